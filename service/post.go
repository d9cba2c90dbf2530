package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/dependencies"
	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/entities"
	"github.com/Xushengqwer/thread_service/models/event"
	"github.com/Xushengqwer/thread_service/models/vo"
	"github.com/Xushengqwer/thread_service/mq/producer"
	"github.com/Xushengqwer/thread_service/myErrors"
	"github.com/Xushengqwer/thread_service/repo/mysql"
	"github.com/Xushengqwer/thread_service/repo/redis"
)

// PostService 定义了帖子生命周期（创建、编辑、删除）的业务逻辑接口。
type PostService interface {
	// CreatePost 处理用户发布新帖子或回复的业务流程。
	// - 内容与图片数量校验后，将帖子（及图片记录）原子性地写入数据库；
	//   若为回复，父帖回复计数在同一事务内自增。
	// - 成功创建后，异步触发 Kafka 事件通知审核服务。
	CreatePost(ctx context.Context, authorID string, req *dto.CreatePostRequest) (*vo.PostResponse, error)

	// UpdatePostContent 处理作者在编辑窗口内修改帖子内容。
	// - 仅作者本人可编辑；创建后超过编辑窗口（10 分钟）拒绝修改。
	// - 已墓碑化的帖子不可编辑。
	// - 编辑成功后重新送审，并失效相关缓存。
	UpdatePostContent(ctx context.Context, postID uint64, authorID string, req *dto.UpdatePostRequest) (*vo.PostResponse, error)

	// DeletePost 处理作者删除自己的帖子（墓碑化）。
	// - 内容替换为固定墓碑文案、图片清空；楼层与回复计数保留。
	// - 重复删除是幂等的：已墓碑化的帖子再次删除直接返回成功。
	DeletePost(ctx context.Context, postID uint64, authorID string) error

	// UploadPostImage 上传单张帖子图片到 COS，返回访问 URL 与对象键。
	// - 发帖是两步流程：先上传图片拿到 URL，再携带 URL 创建帖子。
	UploadPostImage(ctx context.Context, authorID string, fileHeader *multipart.FileHeader) (*vo.UploadImageVO, error)
}

// postService 是 PostService 接口的具体实现。
type postService struct {
	txManager     mysql.TransactionManager        // 事务边界管理
	postRepo      mysql.PostRepository            // 帖子的 MySQL 操作
	postImageRepo mysql.PostImageRepository       // 帖子图片的 MySQL 操作
	feedCache     redis.FeedCache                 // 信息流/详情缓存
	cosClient     dependencies.COSClientInterface // COS 云存储依赖
	kafkaSvc      producer.PostEventProducer      // Kafka 生产者，用于发送异步消息
	logger        *core.ZapLogger                 // 日志记录器
}

// NewPostService 是 postService 的构造函数，通过依赖注入初始化服务实例。
func NewPostService(
	txManager mysql.TransactionManager,
	postRepo mysql.PostRepository,
	postImageRepo mysql.PostImageRepository,
	feedCache redis.FeedCache,
	cosClient dependencies.COSClientInterface,
	kafkaSvc producer.PostEventProducer,
	logger *core.ZapLogger,
) PostService {
	return &postService{
		txManager:     txManager,
		postRepo:      postRepo,
		postImageRepo: postImageRepo,
		feedCache:     feedCache,
		cosClient:     cosClient,
		kafkaSvc:      kafkaSvc,
		logger:        logger,
	}
}

// validatePostContent 校验帖子内容的长度约束（按字符计数，而非字节）。
func validatePostContent(content string) error {
	length := utf8.RuneCountInString(content)
	if length < constant.PostContentMinLen {
		return myErrors.ErrContentTooShort
	}
	if length > constant.PostContentMaxLen {
		return myErrors.ErrContentTooLong
	}
	return nil
}

// generatePostImageObjectKey 创建一个唯一的 COS 对象键。
// 规则：threads/images/YYYYMMDD/userID_uuid.ext
func (s *postService) generatePostImageObjectKey(originalFilename string, userID string) string {
	now := time.Now()
	datePrefix := now.Format("20060102")
	randomUUID := uuid.NewString()
	extension := strings.ToLower(filepath.Ext(originalFilename))

	return fmt.Sprintf("%s%s/%s_%s%s",
		constant.COSObjectKeyPrefixPostImages,
		datePrefix,
		userID,
		randomUUID,
		extension,
	)
}

// CreatePost 处理用户创建新帖子或回复的请求。
func (s *postService) CreatePost(ctx context.Context, authorID string, req *dto.CreatePostRequest) (*vo.PostResponse, error) {
	// 1. 业务校验：内容长度与图片数量（与结构校验分离，返回可区分的错误）。
	content := strings.TrimSpace(req.Content)
	if err := validatePostContent(content); err != nil {
		return nil, err
	}
	if len(req.Images) > constant.PostMaxImages {
		return nil, myErrors.ErrTooManyImages
	}

	// 2. 回复场景：父帖必须存在。墓碑帖仍可被回复（楼层保留，讨论可以继续）。
	if req.ParentID != nil {
		if _, err := s.postRepo.GetPostByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, commonerrors.ErrRepoNotFound) {
				s.logger.Warn("回复的父帖不存在", zap.Uint64("parentID", *req.ParentID))
			}
			return nil, err
		}
	}

	// 3. 在事务中创建帖子、图片记录，并自增父帖回复计数。
	var createdPost *entities.Post
	var createdImages []*entities.PostImage

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		post := &entities.Post{
			Content:        content,
			AuthorID:       authorID,
			AuthorUsername: req.AuthorUsername,
			AuthorAvatar:   req.AuthorAvatar,
			ParentID:       req.ParentID,
			Status:         enums.Pending, // 默认为待审核
		}
		if repoErr := s.postRepo.CreatePost(ctx, tx, post); repoErr != nil {
			return fmt.Errorf("创建帖子失败: %w", repoErr)
		}
		createdPost = post

		if len(req.Images) > 0 {
			imagesToCreate := make([]*entities.PostImage, len(req.Images))
			for i, img := range req.Images {
				imagesToCreate[i] = &entities.PostImage{
					PostID:       post.ID,
					ImageURL:     img.ImageURL,
					ObjectKey:    img.ObjectKey,
					DisplayOrder: i, // 按客户端提交顺序
				}
			}
			if repoErr := s.postImageRepo.CreateImages(ctx, tx, imagesToCreate); repoErr != nil {
				return fmt.Errorf("创建帖子图片失败: %w", repoErr)
			}
			createdImages = imagesToCreate
		}

		// 回复计数与回复行在同一事务内落库，保证两者一致。
		if req.ParentID != nil {
			if repoErr := s.postRepo.IncrementReplyCount(ctx, tx, *req.ParentID); repoErr != nil {
				return fmt.Errorf("自增父帖回复计数失败: %w", repoErr)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("创建帖子事务失败", zap.Error(err), zap.String("authorID", authorID))
		return nil, err
	}

	// --- 事务成功 ---

	// 4. 异步发送 Kafka 待审核事件。
	postDataForKafka := s.buildPostEventData(createdPost, createdImages)
	go func(pd event.PostData) {
		bgCtx := context.Background() // 为后台 goroutine 创建新的上下文
		if kafkaErr := s.kafkaSvc.SendPostPendingAuditEvent(bgCtx, pd); kafkaErr != nil {
			s.logger.Error("发送 Kafka 帖子待审核事件失败", zap.Error(kafkaErr), zap.Uint64("post_id", pd.ID))
		} else {
			s.logger.Info("成功发送 Kafka 帖子待审核事件", zap.Uint64("post_id", pd.ID))
		}
	}(postDataForKafka)

	// 5. 失效受影响的缓存：新回复会改变父帖详情页（回复列表与计数）。
	if req.ParentID != nil {
		if cacheErr := s.feedCache.InvalidatePostDetail(ctx, *req.ParentID); cacheErr != nil {
			s.logger.Warn("失效父帖详情缓存失败", zap.Error(cacheErr), zap.Uint64("parentID", *req.ParentID))
		}
	}

	return vo.MapPostToResponse(createdPost, createdImages), nil
}

// UpdatePostContent 实现编辑窗口内的内容修改。
func (s *postService) UpdatePostContent(ctx context.Context, postID uint64, authorID string, req *dto.UpdatePostRequest) (*vo.PostResponse, error) {
	content := strings.TrimSpace(req.Content)
	if err := validatePostContent(content); err != nil {
		return nil, err
	}

	// 1. 加载帖子并执行前置校验。
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.DeletedAt.Valid {
		// 墓碑帖不可编辑。
		s.logger.Warn("尝试编辑已删除的帖子", zap.Uint64("postID", postID), zap.String("authorID", authorID))
		return nil, myErrors.ErrPostDeleted
	}
	if post.AuthorID != authorID {
		s.logger.Warn("非作者尝试编辑帖子",
			zap.Uint64("postID", postID),
			zap.String("requestUserID", authorID),
			zap.String("authorID", post.AuthorID))
		return nil, myErrors.ErrUnauthorized
	}
	// 编辑窗口从创建时刻起算，后续编辑不延长窗口。
	if time.Since(post.CreatedAt) > constant.PostEditWindow {
		s.logger.Info("帖子编辑窗口已过期",
			zap.Uint64("postID", postID),
			zap.Time("createdAt", post.CreatedAt))
		return nil, myErrors.ErrEditWindowExpired
	}

	// 2. 执行更新。
	editedAt := time.Now()
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.postRepo.UpdatePostContent(ctx, tx, postID, content, editedAt)
	})
	if err != nil {
		return nil, err
	}
	post.Content = content
	post.EditedAt = &editedAt

	// 3. 修改后的内容重新送审（状态不变，审核拒绝时由回写事件下架）。
	images, imgErr := s.postImageRepo.GetImagesByPostID(ctx, postID)
	if imgErr != nil {
		s.logger.Warn("编辑后加载帖子图片失败，审核事件将不携带图片", zap.Error(imgErr), zap.Uint64("postID", postID))
	}
	postDataForKafka := s.buildPostEventData(post, images)
	go func(pd event.PostData) {
		bgCtx := context.Background()
		if kafkaErr := s.kafkaSvc.SendPostPendingAuditEvent(bgCtx, pd); kafkaErr != nil {
			s.logger.Error("发送 Kafka 帖子重审事件失败", zap.Error(kafkaErr), zap.Uint64("post_id", pd.ID))
		}
	}(postDataForKafka)

	// 4. 失效缓存：内容变化影响信息流首屏与详情页。
	s.invalidateReadCaches(ctx, post)

	return vo.MapPostToResponse(post, images), nil
}

// DeletePost 实现帖子的墓碑化删除。
func (s *postService) DeletePost(ctx context.Context, postID uint64, authorID string) error {
	// 1. 加载帖子并执行前置校验。
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != authorID {
		s.logger.Warn("非作者尝试删除帖子",
			zap.Uint64("postID", postID),
			zap.String("requestUserID", authorID),
			zap.String("authorID", post.AuthorID))
		return myErrors.ErrUnauthorized
	}
	if post.DeletedAt.Valid {
		// 重复删除幂等成功。
		s.logger.Info("帖子已是墓碑状态，删除操作幂等返回", zap.Uint64("postID", postID))
		return nil
	}

	// 2. 预先取出图片记录，供事务成功后清理 COS 对象。
	images, imgErr := s.postImageRepo.GetImagesByPostID(ctx, postID)
	if imgErr != nil {
		s.logger.Warn("删除前加载帖子图片失败，COS 对象可能残留", zap.Error(imgErr), zap.Uint64("postID", postID))
	}

	// 3. 在事务中墓碑化帖子并软删除图片记录。
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if repoErr := s.postRepo.SoftDeletePost(ctx, tx, postID); repoErr != nil {
			// 与前置校验之间的并发删除：目标状态已达成，视为成功。
			if errors.Is(repoErr, commonerrors.ErrRepoNotFound) {
				s.logger.Info("帖子在删除过程中已被墓碑化", zap.Uint64("postID", postID))
				return nil
			}
			return fmt.Errorf("墓碑化帖子失败: %w", repoErr)
		}
		if repoErr := s.postImageRepo.SoftDeleteImagesByPostID(ctx, tx, postID); repoErr != nil {
			return fmt.Errorf("软删除帖子图片失败: %w", repoErr)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("删除帖子事务失败", zap.Error(err), zap.Uint64("postID", postID))
		return err
	}

	// 4. 异步清理 COS 中的图片对象。
	if len(images) > 0 {
		go func(imgs []*entities.PostImage) {
			bgCtx := context.Background()
			for _, img := range imgs {
				if img.ObjectKey == "" {
					continue
				}
				if cosErr := s.cosClient.DeleteObject(bgCtx, img.ObjectKey); cosErr != nil {
					s.logger.Error("删除 COS 图片对象失败", zap.Error(cosErr), zap.String("objectKey", img.ObjectKey))
				}
			}
		}(images)
	}

	// 5. 异步发送 Kafka 删除事件。
	go func(pID uint64, aID string) {
		bgCtx := context.Background()
		if kafkaErr := s.kafkaSvc.SendPostDeleteEvent(bgCtx, pID, aID); kafkaErr != nil {
			s.logger.Error("发送 Kafka 删除事件失败", zap.Error(kafkaErr), zap.Uint64("post_id", pID))
		} else {
			s.logger.Info("成功发送 Kafka 删除事件", zap.Uint64("post_id", pID))
		}
	}(postID, post.AuthorID)

	// 6. 失效缓存。
	s.invalidateReadCaches(ctx, post)

	s.logger.Info("帖子墓碑化删除处理完成", zap.Uint64("post_id", postID))
	return nil
}

// UploadPostImage 实现单张图片上传到 COS。
func (s *postService) UploadPostImage(ctx context.Context, authorID string, fileHeader *multipart.FileHeader) (*vo.UploadImageVO, error) {
	file, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("打开图片文件以上传失败",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		return nil, fmt.Errorf("打开图片文件 %s 失败: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
		s.logger.Warn("未提供图片的内容类型，使用默认值",
			zap.String("filename", fileHeader.Filename),
			zap.String("defaultContentType", contentType))
	}

	objectKey := s.generatePostImageObjectKey(fileHeader.Filename, authorID)

	imageURL, err := s.cosClient.UploadFile(ctx, objectKey, file, fileHeader.Size, contentType)
	if err != nil {
		s.logger.Error("上传图片到 COS 失败",
			zap.String("filename", fileHeader.Filename),
			zap.String("objectKey", objectKey),
			zap.Error(err))
		return nil, fmt.Errorf("上传图片 %s 到 COS 失败: %w", fileHeader.Filename, err)
	}

	s.logger.Info("成功上传图片到 COS",
		zap.String("filename", fileHeader.Filename),
		zap.String("objectKey", objectKey),
		zap.String("imageURL", imageURL))

	return &vo.UploadImageVO{
		ImageURL:  imageURL,
		ObjectKey: objectKey,
	}, nil
}

// buildPostEventData 将帖子实体转换为 Kafka 事件载荷。
func (s *postService) buildPostEventData(post *entities.Post, images []*entities.PostImage) event.PostData {
	eventImages := make([]event.ImageData, 0, len(images))
	for _, img := range images {
		if img == nil {
			continue
		}
		eventImages = append(eventImages, event.ImageData{
			ImageURL:     img.ImageURL,
			ObjectKey:    img.ObjectKey,
			DisplayOrder: img.DisplayOrder,
		})
	}

	return event.PostData{
		ID:             post.ID,
		Content:        post.Content,
		AuthorID:       post.AuthorID,
		AuthorUsername: post.AuthorUsername,
		AuthorAvatar:   post.AuthorAvatar,
		ParentID:       post.ParentID,
		Status:         post.Status,
		CreatedAt:      post.CreatedAt.UnixMilli(),
		Images:         eventImages,
	}
}

// invalidateReadCaches 在写操作后失效受影响的读缓存。
// 缓存失效失败不影响写路径的结果，仅记录日志（TTL 会兜底过期）。
func (s *postService) invalidateReadCaches(ctx context.Context, post *entities.Post) {
	if post.ParentID == nil {
		if err := s.feedCache.InvalidateFirstPage(ctx); err != nil {
			s.logger.Warn("失效信息流首页缓存失败", zap.Error(err), zap.Uint64("postID", post.ID))
		}
	} else {
		if err := s.feedCache.InvalidatePostDetail(ctx, *post.ParentID); err != nil {
			s.logger.Warn("失效父帖详情缓存失败", zap.Error(err), zap.Uint64("parentID", *post.ParentID))
		}
	}
	if err := s.feedCache.InvalidatePostDetail(ctx, post.ID); err != nil {
		s.logger.Warn("失效帖子详情缓存失败", zap.Error(err), zap.Uint64("postID", post.ID))
	}
}
