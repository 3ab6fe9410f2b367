package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
)

// SerializedToken 是客户端持有的不透明令牌结构，
// base64url(JSON) 编码后经 Token 请求头传递。
// 数据库中只存密钥的哈希，这里的 Secret 明文只在签发时出现一次。
type SerializedToken struct {
	TokenUUID string `json:"token_uuid"`
	Secret    string `json:"token"`
}

const tokenSecretLen = 48

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// EncodeToken 将令牌序列化为客户端可持有的字符串。
func EncodeToken(tokenUUID, secret string) (string, error) {
	raw, err := json.Marshal(SerializedToken{TokenUUID: tokenUUID, Secret: secret})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeToken 解析客户端提交的令牌串。任何畸形输入都返回错误而不是 panic，
// 解析失败前不得信任载荷的任何部分。
func DecodeToken(bearer string) (*SerializedToken, error) {
	if bearer == "" {
		return nil, errors.New("令牌为空")
	}
	raw, err := base64.URLEncoding.DecodeString(bearer)
	if err != nil {
		return nil, errors.New("令牌编码无效")
	}
	var st SerializedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, errors.New("令牌结构无效")
	}
	if st.TokenUUID == "" {
		return nil, errors.New("令牌缺少标识")
	}
	return &st, nil
}

// GenerateTokenSecret 生成 48 位随机字母数字密钥。
func GenerateTokenSecret() (string, error) {
	buf := make([]byte, tokenSecretLen)
	max := big.NewInt(int64(len(alnum)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alnum[n.Int64()]
	}
	return string(buf), nil
}
