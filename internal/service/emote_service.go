package service

import (
	"errors"
	"log"

	"emote-hub-server/internal/config"
	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/resizer"
	"emote-hub-server/internal/utils"

	"gorm.io/gorm"
)

// UploadEmote 在目录下创建表情并摄取原图。
// 原图落库落盘成功后，按标准尺寸集合异步派发派生图生成；
// 派发是尽力而为的后台任务，不影响上传调用本身的成败。
func UploadEmote(dirUUID, slug, emoteType string, data []byte) (*model.Emote, error) {
	if ok, msg := utils.ValidateSlug(slug); !ok {
		return nil, errors.New(msg)
	}
	if !model.ValidEmoteType(emoteType) {
		return nil, errors.New("表情类型无效")
	}

	var dir model.Dir
	if err := db.DB.Select("uuid").Where("uuid = ?", dirUUID).First(&dir).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("目录不存在")
		}
		return nil, err
	}

	contentType, err := resizer.DetectContentType(data)
	if err != nil {
		return nil, err
	}

	emote := model.Emote{
		Slug:      slug,
		DirUUID:   dirUUID,
		EmoteType: emoteType,
	}
	if err := db.DB.Create(&emote).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, errors.New("该目录下已存在同名表情")
		}
		return nil, err
	}

	if err := IngestOriginal(emote.UUID, data, contentType); err != nil {
		// 原图摄取失败则回收表情行，避免留下没有原图的表情
		_ = db.DB.Where("uuid = ?", emote.UUID).Delete(&model.Emote{}).Error
		return nil, err
	}

	// 预热标准尺寸
	widths := config.Get().Resize.StandardWidths
	goJob("standard-derivatives", func() {
		for _, w := range widths {
			if _, err := GetOrScheduleDerivative(emote.UUID, w, 0); err != nil {
				log.Printf("预派发标准尺寸 %d 失败 (emote=%s): %v", w, emote.UUID, err)
			}
		}
	})

	return &emote, nil
}

// GetEmote 按 uuid 查询表情；不存在时返回 nil。
func GetEmote(uuid string) (*model.Emote, error) {
	var emote model.Emote
	err := db.DB.Where("uuid = ?", uuid).First(&emote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emote, nil
}

// GetEmoteBySlug 按复合 slug（dirSlug/emoteSlug）查询表情；不存在时返回 nil。
func GetEmoteBySlug(compound string) (*model.Emote, error) {
	dirSlug, emoteSlug, ok := utils.SplitEmoteSlug(compound)
	if !ok {
		return nil, errors.New("复合 slug 必须为 dir-slug/emote-slug 两段")
	}

	var emote model.Emote
	err := db.DB.
		Joins("INNER JOIN dirs ON dirs.uuid = emotes.dir_uuid").
		Where("dirs.slug = ? AND emotes.slug = ?", dirSlug, emoteSlug).
		First(&emote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emote, nil
}

// ListEmotes 返回所有表情。
func ListEmotes() ([]model.Emote, error) {
	var emotes []model.Emote
	if err := db.DB.Find(&emotes).Error; err != nil {
		return nil, err
	}
	return emotes, nil
}

// EmoteImages 返回表情的全部图片行（含 processing 中的行）。
func EmoteImages(emoteUUID string) ([]model.Image, error) {
	var images []model.Image
	if err := db.DB.Where("emote_uuid = ?", emoteUUID).Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteEmote 删除表情及其全部图片。
// blob 清理在行删除前执行，防止只删行留下孤儿 blob。
func DeleteEmote(uuid string) (bool, error) {
	if err := deleteEmoteImages(uuid); err != nil {
		return false, err
	}

	result := db.DB.Where("uuid = ?", uuid).Delete(&model.Emote{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
