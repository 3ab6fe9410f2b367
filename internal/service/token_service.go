package service

import (
	"errors"
	"log"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidToken 表示令牌无法解析或解析后对不上任何存活的用户。
var ErrInvalidToken = errors.New("令牌无效")

// ResolveBearer 将不透明令牌串解析为用户。
// 解析失败、令牌不存在、密钥校验失败都返回 ErrInvalidToken；
// 令牌存在但宿主用户缺失属于数据不一致，记日志后同样按无效处理而不是崩溃。
func ResolveBearer(bearer string) (*model.User, error) {
	st, err := utils.DecodeToken(bearer)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var token model.Token
	if err := db.DB.Where("uuid = ?", st.TokenUUID).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// 校验客户端出示的密钥与存储的哈希是否匹配
	if bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(st.Secret)) != nil {
		return nil, ErrInvalidToken
	}

	var user model.User
	if err := db.DB.Where("uuid = ?", token.UserUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("令牌 %s 指向不存在的用户 %s", token.UUID, token.UserUUID)
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &user, nil
}

// MintToken 为用户签发新令牌，返回客户端持有的序列化令牌串。
// 明文密钥只在这里出现一次，库中只存哈希。
// 在首次运行模式下成功铸造令牌会关闭该模式（恰好一次）。
func MintToken(userUUID, description string) (string, error) {
	var user model.User
	if err := db.DB.Where("uuid = ?", userUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.New("目标用户不存在")
		}
		return "", err
	}

	secret, err := utils.GenerateTokenSecret()
	if err != nil {
		return "", errors.New("生成令牌密钥失败")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("令牌哈希失败")
	}

	token := model.Token{
		UserUUID:    userUUID,
		Description: description,
		TokenHash:   string(hash),
	}
	if err := db.DB.Create(&token).Error; err != nil {
		return "", err
	}

	if guard.ClearFirstRun() {
		log.Println("（管理员）令牌已生成，关闭首次运行模式")
	}

	return utils.EncodeToken(token.UUID, secret)
}

// GetToken 按 uuid 查询令牌；不存在时返回 nil。
func GetToken(uuid string) (*model.Token, error) {
	var token model.Token
	err := db.DB.Where("uuid = ?", uuid).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// ListTokens 返回所有令牌。
func ListTokens() ([]model.Token, error) {
	var tokens []model.Token
	if err := db.DB.Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken 删除令牌，返回是否确有删除。
func DeleteToken(uuid string) (bool, error) {
	result := db.DB.Where("uuid = ?", uuid).Delete(&model.Token{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
