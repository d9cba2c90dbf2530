package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/config"
	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/models/vo"
	"github.com/Xushengqwer/thread_service/myErrors"
)

// FeedCache 定义了信息流与帖子详情的缓存操作接口。
// - 目标: 首页信息流首屏和热点帖子详情是读放大最严重的两条路径，
//   以 Redis 缓存整页 VO 的方式加速，减轻数据库压力。
// - 一致性策略: 写路径（创建/编辑/删除/审核）主动失效，读路径回源后重建。
type FeedCache interface {
	// GetFirstPage 获取信息流首页缓存（仅缓存无游标、默认页大小的首屏）。
	// - 如果缓存未命中，返回 myErrors.ErrCacheMiss，上层服务需要处理回源。
	GetFirstPage(ctx context.Context) (*vo.CursorPageVO, error)

	// SetFirstPage 写入信息流首页缓存，TTL 由配置决定。
	SetFirstPage(ctx context.Context, page *vo.CursorPageVO) error

	// InvalidateFirstPage 使信息流首页缓存失效。
	// - 根帖的创建、删除或审核状态变化后调用。
	InvalidateFirstPage(ctx context.Context) error

	// GetPostDetail 获取帖子详情缓存（仅缓存子回复首屏、默认页大小的详情）。
	// - 如果缓存未命中，返回 myErrors.ErrCacheMiss。
	GetPostDetail(ctx context.Context, postID uint64) (*vo.PostDetailVO, error)

	// SetPostDetail 写入帖子详情缓存，TTL 由配置决定。
	SetPostDetail(ctx context.Context, postID uint64, detail *vo.PostDetailVO) error

	// InvalidatePostDetail 使单个帖子的详情缓存失效。
	// - 帖子本身或其直接回复发生写操作后调用。
	InvalidatePostDetail(ctx context.Context, postID uint64) error
}

// feedCacheImpl 是 FeedCache 接口的 Redis 实现。
type feedCacheImpl struct {
	redisClient *redis.Client
	logger      *core.ZapLogger
	cacheCfg    config.FeedCacheConfig
}

// NewFeedCache 是 feedCacheImpl 的构造函数。
func NewFeedCache(redisClient *redis.Client, logger *core.ZapLogger, cacheCfg config.FeedCacheConfig) FeedCache {
	return &feedCacheImpl{
		redisClient: redisClient,
		logger:      logger,
		cacheCfg:    cacheCfg,
	}
}

// GetFirstPage 实现信息流首页缓存的读取。
func (c *feedCacheImpl) GetFirstPage(ctx context.Context) (*vo.CursorPageVO, error) {
	key := constant.FeedFirstPageKey

	jsonData, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("信息流首页缓存未命中", zap.String("key", key))
			return nil, myErrors.ErrCacheMiss
		}
		c.logger.Error("从 Redis 获取信息流首页缓存失败", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("获取信息流首页缓存 (key: %s) 失败: %w", key, err)
	}

	var page vo.CursorPageVO
	if jsonErr := json.Unmarshal([]byte(jsonData), &page); jsonErr != nil {
		// 缓存数据损坏：删除坏数据并按未命中处理，让读路径回源重建。
		c.logger.Error("反序列化信息流首页缓存数据失败，删除并按未命中处理",
			zap.Error(jsonErr), zap.String("key", key))
		if delErr := c.redisClient.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("删除损坏的信息流首页缓存失败", zap.Error(delErr), zap.String("key", key))
		}
		return nil, myErrors.ErrCacheMiss
	}

	return &page, nil
}

// SetFirstPage 实现信息流首页缓存的写入。
func (c *feedCacheImpl) SetFirstPage(ctx context.Context, page *vo.CursorPageVO) error {
	key := constant.FeedFirstPageKey

	jsonData, err := json.Marshal(page)
	if err != nil {
		c.logger.Error("序列化信息流首页数据失败", zap.Error(err))
		return fmt.Errorf("序列化信息流首页数据失败: %w", err)
	}

	ttl := time.Duration(c.cacheCfg.FirstPageTTLSeconds) * time.Second
	if err := c.redisClient.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("写入信息流首页缓存失败", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("写入信息流首页缓存 (key: %s) 失败: %w", key, err)
	}

	c.logger.Debug("信息流首页缓存已写入", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// InvalidateFirstPage 实现信息流首页缓存的主动失效。
func (c *feedCacheImpl) InvalidateFirstPage(ctx context.Context) error {
	key := constant.FeedFirstPageKey
	if err := c.redisClient.Del(ctx, key).Err(); err != nil {
		c.logger.Error("失效信息流首页缓存失败", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("失效信息流首页缓存 (key: %s) 失败: %w", key, err)
	}
	c.logger.Debug("信息流首页缓存已失效", zap.String("key", key))
	return nil
}

// GetPostDetail 实现帖子详情缓存的读取。
func (c *feedCacheImpl) GetPostDetail(ctx context.Context, postID uint64) (*vo.PostDetailVO, error) {
	key := fmt.Sprintf("%s%d", constant.PostDetailCacheKeyPrefix, postID)

	jsonData, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("帖子详情缓存未命中", zap.String("key", key), zap.Uint64("postID", postID))
			return nil, myErrors.ErrCacheMiss
		}
		c.logger.Error("从 Redis 获取帖子详情缓存失败", zap.Error(err), zap.String("key", key), zap.Uint64("postID", postID))
		return nil, fmt.Errorf("获取帖子(ID: %d)详情缓存 (key: %s) 失败: %w", postID, key, err)
	}

	var detail vo.PostDetailVO
	if jsonErr := json.Unmarshal([]byte(jsonData), &detail); jsonErr != nil {
		c.logger.Error("反序列化帖子详情缓存数据失败，删除并按未命中处理",
			zap.Error(jsonErr), zap.String("key", key), zap.Uint64("postID", postID))
		if delErr := c.redisClient.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("删除损坏的帖子详情缓存失败", zap.Error(delErr), zap.String("key", key))
		}
		return nil, myErrors.ErrCacheMiss
	}

	return &detail, nil
}

// SetPostDetail 实现帖子详情缓存的写入。
func (c *feedCacheImpl) SetPostDetail(ctx context.Context, postID uint64, detail *vo.PostDetailVO) error {
	key := fmt.Sprintf("%s%d", constant.PostDetailCacheKeyPrefix, postID)

	jsonData, err := json.Marshal(detail)
	if err != nil {
		c.logger.Error("序列化帖子详情数据失败", zap.Error(err), zap.Uint64("postID", postID))
		return fmt.Errorf("序列化帖子(ID: %d)详情数据失败: %w", postID, err)
	}

	ttl := time.Duration(c.cacheCfg.DetailTTLSeconds) * time.Second
	if err := c.redisClient.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("写入帖子详情缓存失败", zap.Error(err), zap.String("key", key), zap.Uint64("postID", postID))
		return fmt.Errorf("写入帖子(ID: %d)详情缓存 (key: %s) 失败: %w", postID, key, err)
	}

	c.logger.Debug("帖子详情缓存已写入", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// InvalidatePostDetail 实现帖子详情缓存的主动失效。
func (c *feedCacheImpl) InvalidatePostDetail(ctx context.Context, postID uint64) error {
	key := fmt.Sprintf("%s%d", constant.PostDetailCacheKeyPrefix, postID)
	if err := c.redisClient.Del(ctx, key).Err(); err != nil {
		c.logger.Error("失效帖子详情缓存失败", zap.Error(err), zap.String("key", key), zap.Uint64("postID", postID))
		return fmt.Errorf("失效帖子(ID: %d)详情缓存 (key: %s) 失败: %w", postID, key, err)
	}
	c.logger.Debug("帖子详情缓存已失效", zap.String("key", key))
	return nil
}
