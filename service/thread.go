package service

import (
	"context"
	"errors"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/entities"
	"github.com/Xushengqwer/thread_service/models/vo"
	"github.com/Xushengqwer/thread_service/myErrors"
	"github.com/Xushengqwer/thread_service/repo/mysql"
	"github.com/Xushengqwer/thread_service/repo/redis"
)

// ThreadQueryService 定义了信息流与会话串的只读查询接口。
type ThreadQueryService interface {
	// GetFeed 获取首页信息流：根帖、已发布、未删除，按 (created_at, id) 降序游标分页。
	// - 无游标且使用默认页大小的首屏请求走 Redis 缓存。
	GetFeed(ctx context.Context, query *dto.CursorQueryDTO) (*vo.CursorPageVO, error)

	// GetPostDetail 获取帖子详情：目标帖子、其父帖（如有）及直接回复的一页。
	// - 不做状态过滤：刚创建（待审核）的帖子详情立即可达，墓碑帖展示墓碑文案。
	// - 回复按 (created_at, id) 升序（楼层顺序）分页；墓碑回复保留楼层。
	// - 子回复首屏且默认页大小的请求走 Redis 缓存。
	GetPostDetail(ctx context.Context, postID uint64, childrenQuery *dto.CursorQueryDTO) (*vo.PostDetailVO, error)

	// GetPostsByAuthor 获取某作者的公开帖子列表（已发布、未删除），降序游标分页。
	GetPostsByAuthor(ctx context.Context, authorID string, query *dto.CursorQueryDTO) (*vo.CursorPageVO, error)
}

// threadQueryService 是 ThreadQueryService 接口的具体实现。
type threadQueryService struct {
	postRepo      mysql.PostRepository
	postImageRepo mysql.PostImageRepository
	feedCache     redis.FeedCache
	logger        *core.ZapLogger
}

// NewThreadQueryService 是 threadQueryService 的构造函数。
func NewThreadQueryService(
	postRepo mysql.PostRepository,
	postImageRepo mysql.PostImageRepository,
	feedCache redis.FeedCache,
	logger *core.ZapLogger,
) ThreadQueryService {
	return &threadQueryService{
		postRepo:      postRepo,
		postImageRepo: postImageRepo,
		feedCache:     feedCache,
		logger:        logger,
	}
}

// GetFeed 实现信息流查询。
func (s *threadQueryService) GetFeed(ctx context.Context, query *dto.CursorQueryDTO) (*vo.CursorPageVO, error) {
	// 仅首屏（无游标 + 默认页大小）可走缓存，其余页形态太多，直接回源。
	cacheable := query.IsFirstPage() && query.PageSize == constant.DefaultPageSize

	if cacheable {
		cached, cacheErr := s.feedCache.GetFirstPage(ctx)
		if cacheErr == nil {
			s.logger.Debug("信息流首屏命中缓存")
			return cached, nil
		}
		if !errors.Is(cacheErr, myErrors.ErrCacheMiss) {
			// Redis 故障时降级回源，不向上传播。
			s.logger.Warn("读取信息流首屏缓存失败，降级回源", zap.Error(cacheErr))
		}
	}

	posts, nextCreatedAt, nextPostID, err := s.postRepo.GetFeedByCursor(ctx, query)
	if err != nil {
		return nil, err
	}

	page, err := s.buildCursorPage(ctx, posts, nextCreatedAt, nextPostID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if cacheErr := s.feedCache.SetFirstPage(ctx, page); cacheErr != nil {
			s.logger.Warn("回填信息流首屏缓存失败", zap.Error(cacheErr))
		}
	}
	return page, nil
}

// GetPostDetail 实现帖子详情查询。
func (s *threadQueryService) GetPostDetail(ctx context.Context, postID uint64, childrenQuery *dto.CursorQueryDTO) (*vo.PostDetailVO, error) {
	cacheable := childrenQuery.IsFirstPage() && childrenQuery.PageSize == constant.DefaultPageSize

	if cacheable {
		cached, cacheErr := s.feedCache.GetPostDetail(ctx, postID)
		if cacheErr == nil {
			s.logger.Debug("帖子详情命中缓存", zap.Uint64("postID", postID))
			return cached, nil
		}
		if !errors.Is(cacheErr, myErrors.ErrCacheMiss) {
			s.logger.Warn("读取帖子详情缓存失败，降级回源", zap.Error(cacheErr), zap.Uint64("postID", postID))
		}
	}

	// 1. 目标帖子。不做状态过滤：发帖后立即跳转详情页要能命中，
	// 墓碑帖同样可见（展示墓碑文案）；只有记录不存在才是终态错误。
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	// 2. 父帖（目标是回复时）。父帖即便已墓碑化也返回，保证会话上下文完整。
	var parent *entities.Post
	if post.ParentID != nil {
		parent, err = s.postRepo.GetPostByID(ctx, *post.ParentID)
		if err != nil && !errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, err
		}
	}

	// 3. 直接回复的一页（楼层正序）。
	children, nextCreatedAt, nextPostID, err := s.postRepo.GetRepliesByCursor(ctx, postID, childrenQuery)
	if err != nil {
		return nil, err
	}

	// 4. 批量加载涉及帖子的图片。
	postIDs := make([]uint64, 0, len(children)+2)
	postIDs = append(postIDs, post.ID)
	if parent != nil {
		postIDs = append(postIDs, parent.ID)
	}
	for _, child := range children {
		postIDs = append(postIDs, child.ID)
	}
	imagesByPost, err := s.postImageRepo.GetImagesByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	detail := &vo.PostDetailVO{
		Post:                  vo.MapPostToResponse(post, imagesByPost[post.ID]),
		Children:              vo.MapPostsToResponses(children, imagesByPost),
		ChildrenNextCreatedAt: nextCreatedAt,
		ChildrenNextPostID:    nextPostID,
		ChildrenHasMore:       nextPostID != nil,
	}
	if parent != nil {
		detail.Parent = vo.MapPostToResponse(parent, imagesByPost[parent.ID])
	}

	if cacheable {
		if cacheErr := s.feedCache.SetPostDetail(ctx, postID, detail); cacheErr != nil {
			s.logger.Warn("回填帖子详情缓存失败", zap.Error(cacheErr), zap.Uint64("postID", postID))
		}
	}
	return detail, nil
}

// GetPostsByAuthor 实现作者公开帖子列表查询。
func (s *threadQueryService) GetPostsByAuthor(ctx context.Context, authorID string, query *dto.CursorQueryDTO) (*vo.CursorPageVO, error) {
	posts, nextCreatedAt, nextPostID, err := s.postRepo.GetPostsByAuthorCursor(ctx, authorID, query)
	if err != nil {
		return nil, err
	}
	return s.buildCursorPage(ctx, posts, nextCreatedAt, nextPostID)
}

// buildCursorPage 批量补齐图片后组装游标分页 VO。
func (s *threadQueryService) buildCursorPage(ctx context.Context, posts []*entities.Post, nextCreatedAt *time.Time, nextPostID *uint64) (*vo.CursorPageVO, error) {
	postIDs := make([]uint64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	imagesByPost, err := s.postImageRepo.GetImagesByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	return &vo.CursorPageVO{
		Posts:         vo.MapPostsToResponses(posts, imagesByPost),
		NextCreatedAt: nextCreatedAt,
		NextPostID:    nextPostID,
		HasMore:       nextPostID != nil,
	}, nil
}
