package service

import (
	"errors"
	"testing"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/testutils"
	"emote-hub-server/internal/utils"
)

func TestMintAndResolveToken(t *testing.T) {
	testutils.SetupDB(t)
	guard.SetFirstRunForTest(false)

	user, err := CreateUser("alice", false)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	bearer, err := MintToken(user.UUID, "laptop")
	if err != nil {
		t.Fatalf("铸造令牌失败: %v", err)
	}

	resolved, err := ResolveBearer(bearer)
	if err != nil {
		t.Fatalf("解析令牌失败: %v", err)
	}
	if resolved.UUID != user.UUID {
		t.Errorf("解析出的用户不一致: %s != %s", resolved.UUID, user.UUID)
	}

	// 库中只存哈希，绝不落明文密钥
	st, err := utils.DecodeToken(bearer)
	if err != nil {
		t.Fatalf("解码令牌失败: %v", err)
	}
	var token model.Token
	if err := db.DB.Where("uuid = ?", st.TokenUUID).First(&token).Error; err != nil {
		t.Fatalf("查询令牌行失败: %v", err)
	}
	if token.TokenHash == st.Secret {
		t.Error("令牌行存储了明文密钥")
	}
}

func TestResolveBearerWrongSecret(t *testing.T) {
	testutils.SetupDB(t)
	guard.SetFirstRunForTest(false)

	user, err := CreateUser("alice", false)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	bearer, err := MintToken(user.UUID, "t")
	if err != nil {
		t.Fatalf("铸造令牌失败: %v", err)
	}

	st, err := utils.DecodeToken(bearer)
	if err != nil {
		t.Fatalf("解码令牌失败: %v", err)
	}
	forged, err := utils.EncodeToken(st.TokenUUID, "wrong-secret")
	if err != nil {
		t.Fatalf("编码伪造令牌失败: %v", err)
	}

	if _, err := ResolveBearer(forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望伪造密钥返回 ErrInvalidToken，实际 %v", err)
	}
}

func TestResolveBearerUnknownAndMalformed(t *testing.T) {
	testutils.SetupDB(t)

	unknown, err := utils.EncodeToken("00000000-0000-0000-0000-000000000000", "secret")
	if err != nil {
		t.Fatalf("编码令牌失败: %v", err)
	}
	if _, err := ResolveBearer(unknown); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望不存在的令牌返回 ErrInvalidToken，实际 %v", err)
	}
	if _, err := ResolveBearer("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望畸形令牌返回 ErrInvalidToken，实际 %v", err)
	}
}

func TestResolveBearerDanglingUser(t *testing.T) {
	testutils.SetupDB(t)
	guard.SetFirstRunForTest(false)

	user, err := CreateUser("alice", false)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	bearer, err := MintToken(user.UUID, "t")
	if err != nil {
		t.Fatalf("铸造令牌失败: %v", err)
	}

	// 直接删掉宿主用户，模拟数据不一致；按无效处理而不是崩溃
	if err := db.DB.Where("uuid = ?", user.UUID).Delete(&model.User{}).Error; err != nil {
		t.Fatalf("删除用户失败: %v", err)
	}
	if _, err := ResolveBearer(bearer); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望悬空令牌返回 ErrInvalidToken，实际 %v", err)
	}
}

func TestMintTokenClearsFirstRun(t *testing.T) {
	testutils.SetupDB(t)
	t.Cleanup(func() { guard.SetFirstRunForTest(false) })

	guard.SetFirstRunForTest(true)
	admin, err := CreateUser("admin", true)
	if err != nil {
		t.Fatalf("创建管理员失败: %v", err)
	}

	if _, err := MintToken(admin.UUID, "bootstrap"); err != nil {
		t.Fatalf("铸造令牌失败: %v", err)
	}
	if guard.FirstRunActive() {
		t.Error("期望铸造令牌后关闭首次运行模式")
	}
}

func TestMintTokenMissingUser(t *testing.T) {
	testutils.SetupDB(t)

	if _, err := MintToken("00000000-0000-0000-0000-000000000000", "t"); err == nil {
		t.Error("期望为不存在的用户铸造令牌失败，实际成功")
	}
}

func TestDeleteToken(t *testing.T) {
	testutils.SetupDB(t)
	guard.SetFirstRunForTest(false)

	user, err := CreateUser("alice", false)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	bearer, err := MintToken(user.UUID, "t")
	if err != nil {
		t.Fatalf("铸造令牌失败: %v", err)
	}
	st, _ := utils.DecodeToken(bearer)

	deleted, err := DeleteToken(st.TokenUUID)
	if err != nil {
		t.Fatalf("删除令牌失败: %v", err)
	}
	if !deleted {
		t.Error("期望删除生效")
	}
	if _, err := ResolveBearer(bearer); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望已删除的令牌失效，实际 %v", err)
	}

	deleted, err = DeleteToken(st.TokenUUID)
	if err != nil {
		t.Fatalf("重复删除报错: %v", err)
	}
	if deleted {
		t.Error("期望重复删除返回 false")
	}
}
