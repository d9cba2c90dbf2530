package service

import (
	"context"
	"database/sql"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/vo"
	"github.com/Xushengqwer/thread_service/repo/mysql"
	"github.com/Xushengqwer/thread_service/repo/redis"
)

// PostAdminService 定义了管理端与审核回写相关的业务逻辑接口。
type PostAdminService interface {
	// AuditPost 更新帖子的审核状态与原因。
	// - 被管理员接口和审核结果的 Kafka 消费者共用。
	// - 状态变化会影响信息流可见性，成功后失效相关缓存。
	AuditPost(ctx context.Context, req *dto.AuditPostRequest) error

	// ListPostsByCondition 管理端按条件分页查询帖子（含墓碑帖）。
	ListPostsByCondition(ctx context.Context, req *dto.ListPostsByConditionRequest) (*vo.OffsetPageVO, error)
}

// postAdminService 是 PostAdminService 接口的具体实现。
type postAdminService struct {
	postAdminRepo mysql.PostAdminRepository
	postImageRepo mysql.PostImageRepository
	feedCache     redis.FeedCache
	logger        *core.ZapLogger
}

// NewPostAdminService 是 postAdminService 的构造函数。
func NewPostAdminService(
	postAdminRepo mysql.PostAdminRepository,
	postImageRepo mysql.PostImageRepository,
	feedCache redis.FeedCache,
	logger *core.ZapLogger,
) PostAdminService {
	return &postAdminService{
		postAdminRepo: postAdminRepo,
		postImageRepo: postImageRepo,
		feedCache:     feedCache,
		logger:        logger,
	}
}

// AuditPost 实现审核状态的更新。
func (s *postAdminService) AuditPost(ctx context.Context, req *dto.AuditPostRequest) error {
	reason := sql.NullString{String: req.Reason, Valid: req.Reason != ""}

	if err := s.postAdminRepo.UpdatePostStatus(ctx, req.PostID, req.Status, reason); err != nil {
		return err
	}

	// 状态流转改变帖子的对外可见性：失效首屏与详情缓存。
	if cacheErr := s.feedCache.InvalidateFirstPage(ctx); cacheErr != nil {
		s.logger.Warn("审核后失效信息流首页缓存失败", zap.Error(cacheErr), zap.Uint64("postID", req.PostID))
	}
	if cacheErr := s.feedCache.InvalidatePostDetail(ctx, req.PostID); cacheErr != nil {
		s.logger.Warn("审核后失效帖子详情缓存失败", zap.Error(cacheErr), zap.Uint64("postID", req.PostID))
	}

	s.logger.Info("帖子审核状态更新完成",
		zap.Uint64("postID", req.PostID),
		zap.Any("status", req.Status),
		zap.String("reason", req.Reason))
	return nil
}

// ListPostsByCondition 实现管理端条件查询。
func (s *postAdminService) ListPostsByCondition(ctx context.Context, req *dto.ListPostsByConditionRequest) (*vo.OffsetPageVO, error) {
	posts, total, err := s.postAdminRepo.ListPostsByCondition(ctx, req)
	if err != nil {
		return nil, err
	}

	postIDs := make([]uint64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	imagesByPost, err := s.postImageRepo.GetImagesByPostIDs(ctx, postIDs)
	if err != nil {
		// 管理端列表的图片属附加信息，查询失败不阻断列表返回。
		s.logger.Warn("管理端列表加载图片失败", zap.Error(err))
		imagesByPost = nil
	}

	return &vo.OffsetPageVO{
		Posts: vo.MapPostsToResponses(posts, imagesByPost),
		Total: total,
	}, nil
}
