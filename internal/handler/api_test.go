package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"emote-hub-server/internal/consts"
	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/router"
	"emote-hub-server/internal/service"
	"emote-hub-server/internal/testutils"

	"github.com/gin-gonic/gin"
)

func setupRouter(t *testing.T) (*gin.Engine, *testutils.MemStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutils.SetupDB(t)
	mem := testutils.SetupStorage(t)
	testutils.SetupConfig(t)
	guard.SetFirstRunForTest(false)

	r := gin.New()
	router.InitRouter(r)
	return r, mem
}

// doJSON 发送 JSON 请求；token 为空时不带 Token 头（匿名）。
func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(consts.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// newUserWithToken 直接走 service 层造一个带令牌的用户。
func newUserWithToken(t *testing.T, username string, admin bool) (*model.User, string) {
	t.Helper()
	user, err := service.CreateUser(username, admin)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	bearer, err := service.MintToken(user.UUID, "test")
	if err != nil {
		t.Fatalf("铸造令牌失败: %v", err)
	}
	return user, bearer
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestFirstRunBootstrapFlow(t *testing.T) {
	r, _ := setupRouter(t)
	t.Cleanup(func() { guard.SetFirstRunForTest(false) })
	guard.SetFirstRunForTest(true)

	// 首次运行模式下匿名不能创建普通用户
	w := doJSON(r, http.MethodPost, "/api/users", "", gin.H{"username": "bob"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d: %s", w.Code, w.Body.String())
	}

	// 匿名创建管理员
	w = doJSON(r, http.MethodPost, "/api/users", "", gin.H{"username": "admin", "administrator": true})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	adminUUID, _ := decodeBody(t, w)["uuid"].(string)
	if adminUUID == "" {
		t.Fatal("响应缺少 uuid")
	}

	// 匿名为管理员签发令牌，这一步关闭首次运行模式
	w = doJSON(r, http.MethodPost, "/api/tokens", "", gin.H{"user_uuid": adminUUID, "description": "bootstrap"})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	bearer, _ := decodeBody(t, w)["token"].(string)
	if bearer == "" {
		t.Fatal("响应缺少令牌")
	}
	if guard.FirstRunActive() {
		t.Error("期望签发令牌后关闭首次运行模式")
	}

	// 模式关闭后匿名创建用户被拒
	w = doJSON(r, http.MethodPost, "/api/users", "", gin.H{"username": "eve", "administrator": true})
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d: %s", w.Code, w.Body.String())
	}

	// 引导出的令牌可以正常使用
	w = doJSON(r, http.MethodGet, "/api/users/"+adminUUID, bearer, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestTokenHeaderAuth(t *testing.T) {
	r, _ := setupRouter(t)
	alice, aliceToken := newUserWithToken(t, "alice", false)
	_, bobToken := newUserWithToken(t, "bob", false)
	_, adminToken := newUserWithToken(t, "root_admin", true)

	// 畸形令牌直接 401
	w := doJSON(r, http.MethodGet, "/api/users/"+alice.UUID, "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}

	// 本人可见
	w = doJSON(r, http.MethodGet, "/api/users/"+alice.UUID, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}

	// 他人不可见
	w = doJSON(r, http.MethodGet, "/api/users/"+alice.UUID, bobToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}

	// 管理员可见
	w = doJSON(r, http.MethodGet, "/api/users/"+alice.UUID, adminToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}

	// 匿名被拒
	w = doJSON(r, http.MethodGet, "/api/users/"+alice.UUID, "", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}

	// 列表端点仅管理员
	w = doJSON(r, http.MethodGet, "/api/users", aliceToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/users", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestGetUserExpand(t *testing.T) {
	r, _ := setupRouter(t)
	alice, aliceToken := newUserWithToken(t, "alice", false)
	if _, err := service.CreateDir("cats", alice.UUID); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	w := doJSON(r, http.MethodGet, "/api/users/"+alice.UUID+"?expand=tokens,dirs", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if _, ok := resp["tokens"]; !ok {
		t.Error("期望展开 tokens")
	}
	if _, ok := resp["dirs"]; !ok {
		t.Error("期望展开 dirs")
	}
	tokens, _ := resp["tokens"].([]interface{})
	for _, tk := range tokens {
		if m, ok := tk.(map[string]interface{}); ok {
			if _, leaked := m["token_hash"]; leaked {
				t.Error("令牌哈希泄露到了响应里")
			}
		}
	}
}

func TestDirMembershipEndpoints(t *testing.T) {
	r, _ := setupRouter(t)
	_, aliceToken := newUserWithToken(t, "alice", false)
	bob, bobToken := newUserWithToken(t, "bob", false)

	// 创建目录
	w := doJSON(r, http.MethodPost, "/api/dirs", aliceToken, gin.H{"slug": "cats"})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	dirUUID, _ := decodeBody(t, w)["uuid"].(string)

	// 匿名创建目录被拒
	w = doJSON(r, http.MethodPost, "/api/dirs", "", gin.H{"slug": "dogs"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}

	// 非成员不能添加成员
	w = doJSON(r, http.MethodPost, "/api/dirs/"+dirUUID+"/members", bobToken, gin.H{"user_uuid": bob.UUID})
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}

	// 特权成员可以添加
	w = doJSON(r, http.MethodPost, "/api/dirs/"+dirUUID+"/members", aliceToken, gin.H{"user_uuid": bob.UUID})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}

	// 普通成员可以按 slug 查目录，但不能再拉人
	w = doJSON(r, http.MethodGet, "/api/dirs/by-slug/cats", bobToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPost, "/api/dirs/"+dirUUID+"/members", bobToken, gin.H{"user_uuid": bob.UUID})
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}

	// 特权位查询
	w = doJSON(r, http.MethodGet, "/api/dirs/"+dirUUID+"/privileged/"+bob.UUID, bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if privileged, _ := decodeBody(t, w)["privileged"].(bool); privileged {
		t.Error("期望 bob 是普通成员")
	}

	// 两名成员时特权成员也删不掉目录
	w = doJSON(r, http.MethodDelete, "/api/dirs/"+dirUUID, aliceToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d: %s", w.Code, w.Body.String())
	}

	// 移走 bob 后可以删
	w = doJSON(r, http.MethodDelete, "/api/dirs/"+dirUUID+"/members/"+bob.UUID, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodDelete, "/api/dirs/"+dirUUID, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
}

// uploadEmote 通过 multipart 接口上传表情。
func uploadEmote(t *testing.T, r *gin.Engine, token, dirUUID, slug, emoteType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("dir_uuid", dirUUID)
	_ = mw.WriteField("slug", slug)
	_ = mw.WriteField("emote_type", emoteType)
	fw, err := mw.CreateFormFile("file", fmt.Sprintf("%s.png", slug))
	if err != nil {
		t.Fatalf("构造上传表单失败: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("写入上传内容失败: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/emotes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set(consts.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadEmoteGuards(t *testing.T) {
	r, _ := setupRouter(t)
	alice, aliceToken := newUserWithToken(t, "alice", false)
	_, bobToken := newUserWithToken(t, "bob", false)

	dir, err := service.CreateDir("cats", alice.UUID)
	if err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	png := testutils.PNGImage(10, 10)

	// 非成员不能向目录上传
	w := uploadEmote(t, r, bobToken, dir.UUID, "wave", model.EmoteTypeStill, png)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d: %s", w.Code, w.Body.String())
	}

	// 成员可以
	w = uploadEmote(t, r, aliceToken, dir.UUID, "wave", model.EmoteTypeStill, png)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	service.WaitBackgroundJobs()

	// 复合 slug 查询：成员放行，非成员拒绝
	w = doJSON(r, http.MethodGet, "/api/emotes/by-slug/cats/wave", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodGet, "/api/emotes/by-slug/cats/wave", bobToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
}

func TestDispatchResizeEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	alice, aliceToken := newUserWithToken(t, "alice", false)
	dir, err := service.CreateDir("cats", alice.UUID)
	if err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	w := uploadEmote(t, r, aliceToken, dir.UUID, "wave", model.EmoteTypeStill, testutils.PNGImage(100, 50))
	if w.Code != http.StatusOK {
		t.Fatalf("上传失败: %d %s", w.Code, w.Body.String())
	}
	emoteUUID, _ := decodeBody(t, w)["uuid"].(string)
	service.WaitBackgroundJobs()

	// 按高度缩放明确拒绝
	w = doJSON(r, http.MethodPost, "/api/emotes/"+emoteUUID+"/resize", aliceToken, gin.H{"width": 40, "height": 20})
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d: %s", w.Code, w.Body.String())
	}

	// 新尺寸派发任务
	w = doJSON(r, http.MethodPost, "/api/emotes/"+emoteUUID+"/resize", aliceToken, gin.H{"width": 40})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	service.WaitBackgroundJobs()

	// 已存在的尺寸直接命中
	w = doJSON(r, http.MethodPost, "/api/emotes/"+emoteUUID+"/resize", aliceToken, gin.H{"width": 40})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if msg, _ := decodeBody(t, w)["msg"].(string); msg != "派生图已存在" {
		t.Errorf("期望命中已有派生图，实际 %q", msg)
	}
}
