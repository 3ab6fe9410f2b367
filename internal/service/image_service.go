package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"emote-hub-server/internal/config"
	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/resizer"
	"emote-hub-server/internal/storage"

	"gorm.io/gorm"
)

type DerivativeStatus int

const (
	// DerivativeReady 派生图已生成，可直接返回字节
	DerivativeReady DerivativeStatus = iota
	// DerivativeScheduled 生成任务已在后台排队，调用方稍后重试
	DerivativeScheduled
	// DerivativeNotFound 表情没有原图，属于上游数据完整性问题
	DerivativeNotFound
)

type DerivativeResult struct {
	Status      DerivativeStatus
	Data        []byte
	ContentType string
}

// GetOrScheduleDerivative 查询或调度一张派生图。
//
// 每个 (emote, width, height) 键同一时刻最多只有一个生成任务在飞，
// 由 Image 表的唯一约束充当互斥闸门：并发插入占位行时输掉的一方
// 把约束冲突当作"已在处理"，绝不是错误。
func GetOrScheduleDerivative(emoteUUID string, width, height int) (*DerivativeResult, error) {
	if width <= 0 {
		return nil, errors.New("目标宽度必须为正数")
	}

	// 1. 查找已有派生行
	query := db.DB.Where("emote_uuid = ? AND width = ? AND original = ?", emoteUUID, width, false)
	if height > 0 {
		query = query.Where("height = ?", height)
	}
	var existing model.Image
	err := query.Order("processing asc").First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		if !existing.Processing {
			data, loadErr := storage.Get().Load(existing.UUID)
			if loadErr != nil {
				return nil, fmt.Errorf("读取派生图数据失败: %w", loadErr)
			}
			return &DerivativeResult{
				Status:      DerivativeReady,
				Data:        data,
				ContentType: existing.ContentType,
			}, nil
		}

		// 占位行卡死过久则回收重派，避免 processing=true 永久滞留
		staleAfter := time.Duration(config.Get().Resize.StaleAfterMinutes) * time.Minute
		if time.Since(existing.CreateTime) <= staleAfter {
			return &DerivativeResult{Status: DerivativeScheduled}, nil
		}
		log.Printf("回收卡死的派生占位行 %s (emote=%s width=%d)", existing.UUID, emoteUUID, width)
		_ = storage.Get().Delete(existing.UUID)
		if err := db.DB.Where("uuid = ?", existing.UUID).Delete(&model.Image{}).Error; err != nil {
			return nil, err
		}
	}

	// 2. 找原图；缺失意味着上游数据不完整
	var original model.Image
	err = db.DB.Where("emote_uuid = ? AND original = ? AND processing = ?", emoteUUID, true, false).
		First(&original).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DerivativeResult{Status: DerivativeNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	// 3. 插入占位行，这一步是"每键至多一个在飞任务"的线性化点
	placeholder := model.Image{
		EmoteUUID:   emoteUUID,
		Width:       width,
		Height:      -1, // 等比缩放完成前未知
		ContentType: resizer.OutContentType(original.ContentType),
		Original:    false,
		Processing:  true,
	}
	if height > 0 {
		placeholder.Height = height
	}
	if err := db.DB.Create(&placeholder).Error; err != nil {
		if isDuplicateKeyError(err) {
			// 并发请求抢先插入了同键占位行
			return &DerivativeResult{Status: DerivativeScheduled}, nil
		}
		return nil, err
	}

	// 4. 后台生成，不阻塞本次调用
	goJob("generate-derivative", func() {
		generateDerivative(placeholder, original, width, height)
	})

	return &DerivativeResult{Status: DerivativeScheduled}, nil
}

// generateDerivative 执行真正的缩放。
// 任何一步失败都删除占位行并尽力删除写了一半的 blob，把状态还原为
// "不存在"，让下一次请求可以干净地重试；失败不回传给最初的调用方。
func generateDerivative(placeholder, original model.Image, width, height int) {
	cleanup := func(reason string, err error) {
		log.Printf("派生图生成失败 (%s): %v", reason, err)
		_ = storage.Get().Delete(placeholder.UUID)
		if delErr := db.DB.Where("uuid = ?", placeholder.UUID).Delete(&model.Image{}).Error; delErr != nil {
			log.Printf("清理派生占位行 %s 失败: %v", placeholder.UUID, delErr)
		}
	}

	srcData, err := storage.Get().Load(original.UUID)
	if err != nil {
		cleanup("读取原图", err)
		return
	}

	outData, outWidth, outHeight, err := resizer.Resize(srcData, original.ContentType, width, height, 0)
	if err != nil {
		cleanup("缩放", err)
		return
	}

	if err := storage.Get().Save(placeholder.UUID, outData); err != nil {
		cleanup("写入存储", err)
		return
	}

	// 最终落行前确认宿主表情还在；表情在任务飞行期间被删除时放弃结果
	var emote model.Emote
	if err := db.DB.Select("uuid").Where("uuid = ?", placeholder.EmoteUUID).First(&emote).Error; err != nil {
		cleanup("表情已不存在", err)
		return
	}

	now := time.Now()
	err = db.DB.Model(&model.Image{}).Where("uuid = ?", placeholder.UUID).
		Updates(map[string]interface{}{
			"width":       outWidth,
			"height":      outHeight,
			"processing":  false,
			"modify_time": &now,
		}).Error
	if err != nil {
		cleanup("更新派生行", err)
	}
}

// IngestOriginal 摄取表情的原图：先插 processing=true 的行，
// blob 落盘成功后再翻转 processing，保证读者不会拿到没有数据的"就绪"行。
func IngestOriginal(emoteUUID string, data []byte, contentType string) error {
	width, height, err := resizer.Dimensions(data)
	if err != nil {
		return err
	}

	// 每个表情恰好一张原图
	var count int64
	if err := db.DB.Model(&model.Image{}).
		Where("emote_uuid = ? AND original = ?", emoteUUID, true).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("该表情已有原图")
	}

	image := model.Image{
		EmoteUUID:   emoteUUID,
		Width:       width,
		Height:      height,
		ContentType: contentType,
		Original:    true,
		Processing:  true,
	}
	if err := db.DB.Create(&image).Error; err != nil {
		if isDuplicateKeyError(err) {
			return errors.New("该表情已有原图")
		}
		return err
	}

	if err := storage.Get().Save(image.UUID, data); err != nil {
		_ = db.DB.Where("uuid = ?", image.UUID).Delete(&model.Image{}).Error
		return fmt.Errorf("写入原图数据失败: %w", err)
	}

	now := time.Now()
	err = db.DB.Model(&model.Image{}).Where("uuid = ?", image.UUID).
		Updates(map[string]interface{}{"processing": false, "modify_time": &now}).Error
	if err != nil {
		_ = storage.Get().Delete(image.UUID)
		_ = db.DB.Where("uuid = ?", image.UUID).Delete(&model.Image{}).Error
		return err
	}
	return nil
}

// GetImage 按 uuid 查询图片行；不存在时返回 nil。
func GetImage(uuid string) (*model.Image, error) {
	var image model.Image
	err := db.DB.Where("uuid = ?", uuid).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ListImages 返回所有图片行。
func ListImages() ([]model.Image, error) {
	var images []model.Image
	if err := db.DB.Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteImage 删除单张图片：先尽力删 blob，再删行。
func DeleteImage(uuid string) (bool, error) {
	if err := storage.Get().Delete(uuid); err != nil {
		log.Printf("删除图片 blob %s 失败: %v", uuid, err)
	}
	result := db.DB.Where("uuid = ?", uuid).Delete(&model.Image{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// deleteEmoteImages 清理表情的全部图片（blob 优先，行随后）。
// blob 删除失败只记日志不中断，父级删除不能因此被拖死。
func deleteEmoteImages(emoteUUID string) error {
	var images []model.Image
	if err := db.DB.Where("emote_uuid = ?", emoteUUID).Find(&images).Error; err != nil {
		return err
	}
	for _, img := range images {
		if err := storage.Get().Delete(img.UUID); err != nil {
			log.Printf("删除图片 blob %s 失败: %v", img.UUID, err)
		}
	}
	return db.DB.Where("emote_uuid = ?", emoteUUID).Delete(&model.Image{}).Error
}
