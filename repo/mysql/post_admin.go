package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/entities"
)

// PostAdminRepository 定义了帖子管理员相关的数据库操作接口。
// - 主要负责管理员后台对帖子数据的查询和审核状态修改。
type PostAdminRepository interface {
	// UpdatePostStatus 更新指定帖子的审核状态和可选的审核原因。
	// - 用于管理员人工审核，或审核服务通过 Kafka 事件回写结果。
	// - reason (sql.NullString): 使用 sql.NullString 以区分 NULL 和空字符串。
	// - 如果记录未找到或已被软删除，返回 commonerrors.ErrRepoNotFound。
	UpdatePostStatus(ctx context.Context, postID uint64, status enums.Status, reason sql.NullString) error

	// ListPostsByCondition 根据多种可选条件分页查询帖子列表。
	// - 服务于管理员后台的复杂查询和筛选需求。
	// - 输出: 返回帖子列表和满足条件的总记录数，用于分页展示。
	ListPostsByCondition(ctx context.Context, req *dto.ListPostsByConditionRequest) ([]*entities.Post, int64, error)
}

// postAdminRepository 是 PostAdminRepository 接口的 MySQL 实现。
type postAdminRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewPostAdminRepository 是 postAdminRepository 的构造函数。
func NewPostAdminRepository(db *gorm.DB, logger *core.ZapLogger) PostAdminRepository {
	return &postAdminRepository{
		db:     db,
		logger: logger,
	}
}

// UpdatePostStatus 实现更新帖子审核状态和原因的逻辑。
func (r *postAdminRepository) UpdatePostStatus(ctx context.Context, postID uint64, status enums.Status, reason sql.NullString) error {
	updateData := map[string]interface{}{
		"status":       status,
		"updated_at":   time.Now(),
		"audit_reason": reason,
	}

	// 墓碑帖不再参与审核流转，deleted_at IS NULL 作为守卫。
	result := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("id = ? AND deleted_at IS NULL", postID).
		Updates(updateData)

	if result.Error != nil {
		r.logger.Error("更新帖子审核状态数据库出错", zap.Error(result.Error), zap.Uint64("postID", postID), zap.Any("status", status))
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("尝试更新不存在或已删除帖子的审核状态", zap.Uint64("postID", postID), zap.Any("status", status))
		return commonerrors.ErrRepoNotFound
	}

	r.logger.Debug("成功更新帖子审核状态", zap.Uint64("postID", postID), zap.Any("status", status))
	return nil
}

// ListPostsByCondition 实现按条件分页查询帖子。
func (r *postAdminRepository) ListPostsByCondition(ctx context.Context, req *dto.ListPostsByConditionRequest) ([]*entities.Post, int64, error) {
	var posts []*entities.Post

	// 管理端查询包含墓碑帖（Unscoped），便于审计已删除内容。
	dbQuery := r.db.WithContext(ctx).Model(&entities.Post{}).Unscoped()

	// 如果提供了精确的 ID，直接按主键查询，忽略其他条件。
	if req.ID != nil {
		var post entities.Post
		err := dbQuery.Where("id = ?", *req.ID).First(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				r.logger.Info("按条件查询帖子：未找到指定 ID", zap.Uint64p("id", req.ID))
				return nil, 0, nil // 未找到不算错误，返回空结果
			}
			r.logger.Error("按 ID 查询帖子失败", zap.Error(err), zap.Uint64p("id", req.ID))
			return nil, 0, err
		}
		return []*entities.Post{&post}, 1, nil
	}

	// --- 动态构建查询条件 ---
	if req.AuthorID != nil {
		dbQuery = dbQuery.Where("author_id = ?", *req.AuthorID)
	}
	if req.AuthorUsername != nil {
		dbQuery = dbQuery.Where("author_username LIKE ?", "%"+*req.AuthorUsername+"%")
	}
	if req.Content != nil {
		dbQuery = dbQuery.Where("content LIKE ?", "%"+*req.Content+"%")
	}
	if req.Status != nil {
		dbQuery = dbQuery.Where("status = ?", *req.Status)
	}
	if req.OnlyRoot {
		dbQuery = dbQuery.Where("parent_id IS NULL")
	}

	// --- 处理排序 ---
	orderField := "created_at" // 默认排序字段
	if req.OrderBy == "updated_at" {
		orderField = "updated_at"
	}
	orderDirection := "ASC"
	if req.OrderDesc {
		orderDirection = "DESC"
	}
	orderClause := fmt.Sprintf("%s %s", orderField, orderDirection)

	// --- 执行 Count 查询 ---
	// 先计算总数，此时不应用 Limit 和 Offset，但应用 Where 条件。
	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		r.logger.Error("按条件查询帖子计数失败", zap.Error(err))
		return nil, 0, err
	}

	if total == 0 {
		r.logger.Debug("按条件查询帖子：未找到匹配记录")
		return posts, 0, nil
	}

	// --- 执行分页数据查询 ---
	// Page 从 1 开始。
	offset := (req.Page - 1) * req.PageSize
	if err := dbQuery.Order(orderClause).Limit(req.PageSize).Offset(offset).Find(&posts).Error; err != nil {
		r.logger.Error("按条件查询帖子分页数据失败", zap.Error(err))
		return nil, 0, err
	}

	r.logger.Debug("按条件查询帖子成功", zap.Int("page", req.Page), zap.Int("pageSize", req.PageSize), zap.Int64("total", total))
	return posts, total, nil
}
