package mysql

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/models/entities"
)

// PostImageRepository 定义了帖子图片在 MySQL 中的持久化操作接口。
type PostImageRepository interface {
	// CreateImages 批量插入帖子的图片记录。
	// - 与帖子创建处于同一事务，images 为空时为空操作。
	CreateImages(ctx context.Context, db *gorm.DB, images []*entities.PostImage) error

	// GetImagesByPostID 获取单个帖子的全部图片，按 DisplayOrder 升序。
	GetImagesByPostID(ctx context.Context, postID uint64) ([]*entities.PostImage, error)

	// GetImagesByPostIDs 批量获取多个帖子的图片，返回 postID -> 图片列表 的映射。
	// - 没有图片的帖子不会出现在映射中，调用方按零值处理即可。
	GetImagesByPostIDs(ctx context.Context, postIDs []uint64) (map[uint64][]*entities.PostImage, error)

	// SoftDeleteImagesByPostID 软删除某帖的全部图片。
	// - 在帖子墓碑化的同一事务内调用，实现“删除后图片清空”。
	SoftDeleteImagesByPostID(ctx context.Context, db *gorm.DB, postID uint64) error
}

// postImageRepository 是 PostImageRepository 接口的 MySQL 实现。
type postImageRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewPostImageRepository 是 postImageRepository 的构造函数。
func NewPostImageRepository(db *gorm.DB, logger *core.ZapLogger) PostImageRepository {
	return &postImageRepository{
		db:     db,
		logger: logger,
	}
}

// CreateImages 实现图片记录的批量插入。
func (r *postImageRepository) CreateImages(ctx context.Context, db *gorm.DB, images []*entities.PostImage) error {
	if len(images) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Create(&images).Error; err != nil {
		r.logger.Error("批量插入帖子图片失败", zap.Error(err), zap.Int("count", len(images)))
		return err
	}
	return nil
}

// GetImagesByPostID 实现单帖图片查询。
func (r *postImageRepository) GetImagesByPostID(ctx context.Context, postID uint64) ([]*entities.PostImage, error) {
	var images []*entities.PostImage

	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("display_order ASC").
		Find(&images).Error
	if err != nil {
		r.logger.Error("查询帖子图片失败", zap.Error(err), zap.Uint64("postID", postID))
		return nil, err
	}

	return images, nil
}

// GetImagesByPostIDs 实现多帖图片的批量查询。
func (r *postImageRepository) GetImagesByPostIDs(ctx context.Context, postIDs []uint64) (map[uint64][]*entities.PostImage, error) {
	imagesMap := make(map[uint64][]*entities.PostImage, len(postIDs))
	if len(postIDs) == 0 {
		return imagesMap, nil
	}

	var images []*entities.PostImage
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id ASC, display_order ASC").
		Find(&images).Error
	if err != nil {
		r.logger.Error("批量查询帖子图片失败", zap.Error(err), zap.Int("postCount", len(postIDs)))
		return nil, err
	}

	for _, img := range images {
		imagesMap[img.PostID] = append(imagesMap[img.PostID], img)
	}
	return imagesMap, nil
}

// SoftDeleteImagesByPostID 实现图片的级联软删除。
func (r *postImageRepository) SoftDeleteImagesByPostID(ctx context.Context, db *gorm.DB, postID uint64) error {
	// 帖子没有图片时 RowsAffected 为 0，不视为错误。
	result := db.WithContext(ctx).
		Model(&entities.PostImage{}).
		Where("post_id = ? AND deleted_at IS NULL", postID).
		Update("deleted_at", time.Now())

	if result.Error != nil {
		r.logger.Error("软删除帖子图片失败", zap.Error(result.Error), zap.Uint64("postID", postID))
		return result.Error
	}

	r.logger.Debug("帖子图片软删除完成", zap.Uint64("postID", postID), zap.Int64("rows", result.RowsAffected))
	return nil
}
