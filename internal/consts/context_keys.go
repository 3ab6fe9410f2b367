package consts

// 请求头与 gin.Context 键名
const (
	// TokenHeader 携带 base64url 编码的序列化令牌
	TokenHeader = "Token"

	// CtxUser 中间件解析出的 *model.User（匿名请求时不设置）
	CtxUser = "emote_user"
)
