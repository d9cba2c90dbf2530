package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/entities"
)

// PostRepository 定义了帖子数据在 MySQL 中的持久化操作接口。
// 接口的设计旨在将数据访问逻辑与业务逻辑（服务层）解耦。
type PostRepository interface {
	// CreatePost 持久化一个新的帖子记录。
	// - 这是帖子生命周期的起点，对应用户发布帖子或回复的操作。
	// - db 参数允许传入事务对象，以便与父帖计数自增在同一事务内完成。
	CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error

	// IncrementReplyCount 对父帖的直接回复计数原子自增。
	// - 必须与回复的插入处于同一事务，保证计数与回复行的一致性。
	// - 父帖已墓碑化时仍然自增（墓碑依旧占据楼层，可以被回复）。
	// - 如果父帖不存在，返回 commonerrors.ErrRepoNotFound。
	IncrementReplyCount(ctx context.Context, db *gorm.DB, parentID uint64) error

	// GetPostByID 根据单个 ID 检索帖子信息（包含已墓碑化的帖子）。
	// - 墓碑帖的内容在库中已是墓碑文案，由调用方根据 DeletedAt 决定如何处理。
	// - 如果记录完全不存在，返回 commonerrors.ErrRepoNotFound。
	GetPostByID(ctx context.Context, id uint64) (*entities.Post, error)

	// UpdatePostContent 更新帖子内容并记录编辑时间。
	// - 编辑窗口与作者身份的校验由服务层完成，这里只做“存在且未删除”的行级守卫。
	// - 如果记录未找到或已被墓碑化，返回 commonerrors.ErrRepoNotFound。
	UpdatePostContent(ctx context.Context, db *gorm.DB, postID uint64, content string, editedAt time.Time) error

	// SoftDeletePost 对帖子执行墓碑化软删除：
	// 置位 deleted_at 的同时将内容替换为固定墓碑文案。图片的级联软删除
	// 由 PostImageRepository.SoftDeleteImagesByPostID 在同一事务内完成。
	// - 如果记录未找到或已被删除，返回 commonerrors.ErrRepoNotFound（幂等语义由服务层保证）。
	SoftDeletePost(ctx context.Context, db *gorm.DB, postID uint64) error

	// GetFeedByCursor 实现首页信息流的游标分页查询。
	// - 只返回根帖（parent_id IS NULL）、已发布（Approved）且未删除的帖子。
	// - 按 (created_at, id) 复合键降序，最新在前。
	GetFeedByCursor(ctx context.Context, query *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error)

	// GetRepliesByCursor 实现某帖直接回复的游标分页查询。
	// - 按 (created_at, id) 复合键升序（楼层顺序）。
	// - 不做状态过滤：刚创建（待审核）的回复要立即出现在会话串里；
	//   已墓碑化的回复也仍然返回（内容为墓碑文案），保证楼层不塌陷。
	GetRepliesByCursor(ctx context.Context, parentID uint64, query *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error)

	// GetPostsByAuthorCursor 实现某作者公开帖子列表的游标分页查询。
	// - 只返回已发布且未删除的帖子，按 (created_at, id) 降序。
	GetPostsByAuthorCursor(ctx context.Context, authorID string, query *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error)
}

// postRepository 是 PostRepository 接口针对 MySQL 的具体实现。
type postRepository struct {
	db     *gorm.DB        // GORM 数据库实例
	logger *core.ZapLogger // 日志记录器实例
}

// NewPostRepository 是 postRepository 的构造函数。
func NewPostRepository(db *gorm.DB, logger *core.ZapLogger) PostRepository {
	return &postRepository{
		db:     db,
		logger: logger,
	}
}

// CreatePost 实现帖子的数据库插入操作。
func (r *postRepository) CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error {
	// 使用传入的 db 对象（在这里通常为事务对象 tx）执行数据库操作。
	// GORM 会自动填充 BaseModel 中的 ID、CreatedAt 和 UpdatedAt 字段。
	if err := db.WithContext(ctx).Create(post).Error; err != nil {
		// 在仓库层直接返回数据库错误，由服务层决定如何处理或包装。
		return err
	}
	return nil
}

// IncrementReplyCount 实现父帖回复计数的原子自增。
func (r *postRepository) IncrementReplyCount(ctx context.Context, db *gorm.DB, parentID uint64) error {
	// Unscoped: 墓碑帖也可以被回复，计数照常自增。
	result := db.WithContext(ctx).
		Model(&entities.Post{}).
		Unscoped().
		Where("id = ?", parentID).
		UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1))

	if result.Error != nil {
		r.logger.Error("父帖回复计数自增失败", zap.Error(result.Error), zap.Uint64("parentID", parentID))
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("尝试为不存在的父帖自增回复计数", zap.Uint64("parentID", parentID))
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

// GetPostByID 实现根据单个 ID 获取帖子（含墓碑帖）。
func (r *postRepository) GetPostByID(ctx context.Context, id uint64) (*entities.Post, error) {
	var post entities.Post

	// Unscoped 绕过 GORM 的软删除过滤：墓碑帖仍需能被读到，
	// 以支持详情页展示墓碑与回复已删帖子等场景。
	err := r.db.WithContext(ctx).Unscoped().First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("根据 ID 获取帖子未找到", zap.Uint64("postID", id))
			return nil, commonerrors.ErrRepoNotFound
		}
		r.logger.Error("根据 ID 获取帖子数据库查询失败", zap.Uint64("postID", id), zap.Error(err))
		return nil, err
	}

	return &post, nil
}

// UpdatePostContent 实现帖子内容的更新。
func (r *postRepository) UpdatePostContent(ctx context.Context, db *gorm.DB, postID uint64, content string, editedAt time.Time) error {
	updateData := map[string]interface{}{
		"content":    content,
		"edited_at":  editedAt,
		"updated_at": time.Now(),
	}

	// deleted_at IS NULL 作为行级守卫：即使服务层校验与本次更新之间帖子被删除，
	// 墓碑内容也不会被覆盖。
	result := db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("id = ? AND deleted_at IS NULL", postID).
		Updates(updateData)

	if result.Error != nil {
		r.logger.Error("更新帖子内容数据库操作失败", zap.Error(result.Error), zap.Uint64("postID", postID))
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("尝试更新帖子内容但记录不存在或已被删除", zap.Uint64("postID", postID))
		return commonerrors.ErrRepoNotFound
	}

	r.logger.Debug("帖子内容更新成功", zap.Uint64("postID", postID))
	return nil
}

// SoftDeletePost 实现帖子的墓碑化软删除。
func (r *postRepository) SoftDeletePost(ctx context.Context, db *gorm.DB, postID uint64) error {
	// 不使用 GORM 的 Delete：墓碑化要求在置位 deleted_at 的同时替换内容，
	// 单条 UPDATE 保证两者原子生效。
	now := time.Now()
	result := db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("id = ? AND deleted_at IS NULL", postID).
		Updates(map[string]interface{}{
			"content":    constant.TombstoneContent,
			"deleted_at": now,
			"updated_at": now,
		})

	if result.Error != nil {
		r.logger.Error("墓碑化删除帖子数据库操作失败", zap.Error(result.Error), zap.Uint64("postID", postID))
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 记录不存在，或已被删除（重复删除的幂等处理由服务层基于已加载的实体完成）。
		r.logger.Warn("尝试删除帖子但记录不存在或已被删除", zap.Uint64("postID", postID))
		return commonerrors.ErrRepoNotFound
	}

	r.logger.Debug("帖子墓碑化删除成功", zap.Uint64("postID", postID))
	return nil
}

// GetFeedByCursor 实现首页信息流的游标分页查询。
func (r *postRepository) GetFeedByCursor(ctx context.Context, query *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error) {
	var posts []*entities.Post

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = constant.DefaultPageSize
		r.logger.Warn("GetFeedByCursor 接收到的 PageSize 无效，使用默认值",
			zap.Int("receivedPageSize", query.PageSize),
			zap.Int("defaultPageSize", pageSize),
		)
	}

	// 信息流只展示根帖；GORM 默认作用域自动过滤已软删除（墓碑）的帖子。
	dbQuery := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("parent_id IS NULL").
		Where("status = ?", enums.Approved)

	// 应用复合游标条件：严格落在 (lastCreatedAt, lastPostID) 之后（降序方向）。
	if query.LastCreatedAt != nil && query.LastPostID != nil {
		dbQuery = dbQuery.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			*query.LastCreatedAt, *query.LastCreatedAt, *query.LastPostID)
	}

	// 查询 pageSize + 1 条记录，以判断是否还有下一页。
	err := dbQuery.Order("created_at DESC").Order("id DESC").
		Limit(pageSize + 1).Find(&posts).Error
	if err != nil {
		r.logger.Error("信息流游标分页查询失败", zap.Error(err), zap.Any("query", query))
		return nil, nil, nil, err
	}

	pagePosts, nextCreatedAt, nextPostID := cutPage(posts, pageSize)
	return pagePosts, nextCreatedAt, nextPostID, nil
}

// GetRepliesByCursor 实现直接回复的游标分页查询（楼层正序）。
func (r *postRepository) GetRepliesByCursor(ctx context.Context, parentID uint64, query *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error) {
	var posts []*entities.Post

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = constant.DefaultPageSize
		r.logger.Warn("GetRepliesByCursor 接收到的 PageSize 无效，使用默认值",
			zap.Int("receivedPageSize", query.PageSize),
			zap.Int("defaultPageSize", pageSize),
		)
	}

	// Unscoped 且不过滤状态：墓碑回复保留楼层照常返回（内容已是墓碑文案），
	// 待审核的回复对其所在会话串立即可见（信息流的 Approved 过滤不适用于楼层）。
	dbQuery := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Unscoped().
		Where("parent_id = ?", parentID)

	if query.LastCreatedAt != nil && query.LastPostID != nil {
		dbQuery = dbQuery.Where("(created_at > ? OR (created_at = ? AND id > ?))",
			*query.LastCreatedAt, *query.LastCreatedAt, *query.LastPostID)
	}

	err := dbQuery.Order("created_at ASC").Order("id ASC").
		Limit(pageSize + 1).Find(&posts).Error
	if err != nil {
		r.logger.Error("回复列表游标分页查询失败", zap.Error(err),
			zap.Uint64("parentID", parentID), zap.Any("query", query))
		return nil, nil, nil, err
	}

	pagePosts, nextCreatedAt, nextPostID := cutPage(posts, pageSize)
	return pagePosts, nextCreatedAt, nextPostID, nil
}

// GetPostsByAuthorCursor 实现作者公开帖子列表的游标分页查询。
func (r *postRepository) GetPostsByAuthorCursor(ctx context.Context, authorID string, query *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error) {
	var posts []*entities.Post

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = constant.DefaultPageSize
		r.logger.Warn("GetPostsByAuthorCursor 接收到的 PageSize 无效，使用默认值",
			zap.Int("receivedPageSize", query.PageSize),
			zap.Int("defaultPageSize", pageSize),
		)
	}

	dbQuery := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("author_id = ?", authorID).
		Where("status = ?", enums.Approved)

	if query.LastCreatedAt != nil && query.LastPostID != nil {
		dbQuery = dbQuery.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			*query.LastCreatedAt, *query.LastCreatedAt, *query.LastPostID)
	}

	err := dbQuery.Order("created_at DESC").Order("id DESC").
		Limit(pageSize + 1).Find(&posts).Error
	if err != nil {
		r.logger.Error("作者帖子列表游标分页查询失败", zap.Error(err),
			zap.String("authorID", authorID), zap.Any("query", query))
		return nil, nil, nil, err
	}

	pagePosts, nextCreatedAt, nextPostID := cutPage(posts, pageSize)
	return pagePosts, nextCreatedAt, nextPostID, nil
}

// cutPage 处理“多查一条”的分页结果：
// 若结果超过 pageSize，截断到 pageSize 并以最后一条记录的 (created_at, id)
// 作为下一页游标；否则返回 nil 游标表示没有更多数据。
func cutPage(posts []*entities.Post, pageSize int) ([]*entities.Post, *time.Time, *uint64) {
	if len(posts) <= pageSize {
		return posts, nil, nil
	}
	lastPostInPage := posts[pageSize-1]
	nextCreatedAt := lastPostInPage.CreatedAt
	nextPostID := lastPostInPage.ID
	return posts[:pageSize], &nextCreatedAt, &nextPostID
}
