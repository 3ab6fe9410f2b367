package service

import (
	"testing"

	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/testutils"
)

func setupDir(t *testing.T) (*testutils.MemStorage, *model.Dir) {
	t.Helper()
	testutils.SetupDB(t)
	mem := testutils.SetupStorage(t)
	testutils.SetupConfig(t)
	guard.SetFirstRunForTest(false)

	user, err := CreateUser("alice", false)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	dir, err := CreateDir("cats", user.UUID)
	if err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	return mem, dir
}

func TestUploadEmote(t *testing.T) {
	mem, dir := setupDir(t)

	emote, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, testutils.PNGImage(100, 50))
	if err != nil {
		t.Fatalf("上传表情失败: %v", err)
	}
	WaitBackgroundJobs()

	images, err := EmoteImages(emote.UUID)
	if err != nil {
		t.Fatalf("查询图片失败: %v", err)
	}
	// 原图 + 测试配置里的两个标准尺寸
	if len(images) != 3 {
		t.Fatalf("期望 3 张图片，实际 %d", len(images))
	}
	originals := 0
	for _, img := range images {
		if img.Processing {
			t.Errorf("期望任务结算后没有 processing 行: %+v", img)
		}
		if img.Original {
			originals++
		}
		if !mem.Has(img.UUID) {
			t.Errorf("期望图片 %s 的 blob 已落盘", img.UUID)
		}
	}
	if originals != 1 {
		t.Errorf("期望恰好 1 张原图，实际 %d", originals)
	}
}

func TestUploadEmoteValidation(t *testing.T) {
	_, dir := setupDir(t)
	png := testutils.PNGImage(10, 10)

	if _, err := UploadEmote(dir.UUID, "Bad Slug", model.EmoteTypeStill, png); err == nil {
		t.Error("期望非法 slug 失败，实际成功")
	}
	if _, err := UploadEmote(dir.UUID, "wave", "hologram", png); err == nil {
		t.Error("期望非法表情类型失败，实际成功")
	}
	if _, err := UploadEmote("00000000-0000-0000-0000-000000000000", "wave", model.EmoteTypeStill, png); err == nil {
		t.Error("期望目录不存在失败，实际成功")
	}
	if _, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, []byte("not an image")); err == nil {
		t.Error("期望非图片数据失败，实际成功")
	}
}

func TestUploadEmoteSlugUniquePerDir(t *testing.T) {
	_, dir := setupDir(t)
	png := testutils.PNGImage(10, 10)

	if _, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, png); err != nil {
		t.Fatalf("上传表情失败: %v", err)
	}
	if _, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, png); err == nil {
		t.Error("期望同目录重复 slug 失败，实际成功")
	}

	// 不同目录下同名 slug 互不冲突
	bob, err := CreateUser("bob", false)
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	other, err := CreateDir("dogs", bob.UUID)
	if err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if _, err := UploadEmote(other.UUID, "wave", model.EmoteTypeStill, png); err != nil {
		t.Errorf("期望不同目录同 slug 成功，实际失败: %v", err)
	}
	WaitBackgroundJobs()
}

func TestUploadEmoteIngestFailureRollsBack(t *testing.T) {
	mem, dir := setupDir(t)
	mem.FailSave = true

	if _, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, testutils.PNGImage(10, 10)); err == nil {
		t.Fatal("期望原图摄取失败时上传报错，实际成功")
	}

	// 表情行被回收，不留下没有原图的表情
	emotes, err := DirEmotes(dir.UUID)
	if err != nil {
		t.Fatalf("查询目录表情失败: %v", err)
	}
	if len(emotes) != 0 {
		t.Errorf("期望失败后没有残留表情，实际 %d", len(emotes))
	}

	mem.FailSave = false
	if _, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, testutils.PNGImage(10, 10)); err != nil {
		t.Errorf("期望重试成功，实际失败: %v", err)
	}
	WaitBackgroundJobs()
}

func TestGetEmoteBySlug(t *testing.T) {
	_, dir := setupDir(t)
	created, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeSticker, testutils.PNGImage(10, 10))
	if err != nil {
		t.Fatalf("上传表情失败: %v", err)
	}
	WaitBackgroundJobs()

	emote, err := GetEmoteBySlug("cats/wave")
	if err != nil {
		t.Fatalf("按复合 slug 查询失败: %v", err)
	}
	if emote == nil || emote.UUID != created.UUID {
		t.Errorf("查询结果不一致: %+v", emote)
	}

	emote, err = GetEmoteBySlug("cats/ghost")
	if err != nil {
		t.Fatalf("查询缺失表情报错: %v", err)
	}
	if emote != nil {
		t.Error("期望缺失表情返回 nil")
	}

	// 复合 slug 必须恰好两段
	if _, err := GetEmoteBySlug("wave"); err == nil {
		t.Error("期望单段复合 slug 报错，实际成功")
	}
	if _, err := GetEmoteBySlug("cats/wave/extra"); err == nil {
		t.Error("期望三段复合 slug 报错，实际成功")
	}
}

func TestDeleteEmoteCleansImages(t *testing.T) {
	mem, dir := setupDir(t)
	emote, err := UploadEmote(dir.UUID, "wave", model.EmoteTypeStill, testutils.PNGImage(100, 50))
	if err != nil {
		t.Fatalf("上传表情失败: %v", err)
	}
	WaitBackgroundJobs()

	deleted, err := DeleteEmote(emote.UUID)
	if err != nil {
		t.Fatalf("删除表情失败: %v", err)
	}
	if !deleted {
		t.Error("期望删除生效")
	}

	images, err := EmoteImages(emote.UUID)
	if err != nil {
		t.Fatalf("查询图片失败: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("期望图片行随表情删除，剩余 %d", len(images))
	}
	if mem.Len() != 0 {
		t.Errorf("期望 blob 随表情删除，剩余 %d", mem.Len())
	}
}
