package service

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	sharedConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/require"
	"github.com/tencentyun/cos-go-sdk-v5"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/entities"
	"github.com/Xushengqwer/thread_service/models/event"
	"github.com/Xushengqwer/thread_service/models/vo"
	"github.com/Xushengqwer/thread_service/myErrors"
)

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(sharedConfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

// --- 事务管理器假实现 ---

type fakeTxManager struct {
	err error // 注入事务层错误
}

func (f *fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// --- 帖子仓库假实现（内存版） ---

type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[uint64]*entities.Post
	nextID uint64

	feedResult    []*entities.Post
	repliesResult []*entities.Post
	authorResult  []*entities.Post
	feedCalls     int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[uint64]*entities.Post)}
}

func (f *fakePostRepo) addPost(post *entities.Post) *entities.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if post.ID == 0 {
		f.nextID++
		post.ID = f.nextID
	} else if post.ID > f.nextID {
		f.nextID = post.ID
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	f.posts[post.ID] = post
	return post
}

func (f *fakePostRepo) CreatePost(_ context.Context, _ *gorm.DB, post *entities.Post) error {
	f.addPost(post)
	return nil
}

func (f *fakePostRepo) IncrementReplyCount(_ context.Context, _ *gorm.DB, parentID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, ok := f.posts[parentID]
	if !ok {
		return commonerrors.ErrRepoNotFound
	}
	parent.ReplyCount++
	return nil
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id uint64) (*entities.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, commonerrors.ErrRepoNotFound
	}
	return post, nil
}

func (f *fakePostRepo) UpdatePostContent(_ context.Context, _ *gorm.DB, postID uint64, content string, editedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok || post.DeletedAt.Valid {
		return commonerrors.ErrRepoNotFound
	}
	post.Content = content
	post.EditedAt = &editedAt
	return nil
}

func (f *fakePostRepo) SoftDeletePost(_ context.Context, _ *gorm.DB, postID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok || post.DeletedAt.Valid {
		return commonerrors.ErrRepoNotFound
	}
	post.Content = constant.TombstoneContent
	post.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (f *fakePostRepo) GetFeedByCursor(_ context.Context, _ *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedCalls++
	if f.feedResult != nil {
		return f.feedResult, nil, nil, nil
	}
	// 未注入桩结果时按信息流语义从内存数据推导：根帖、已发布、未删除，降序。
	var posts []*entities.Post
	for _, post := range f.posts {
		if post.ParentID == nil && post.Status == enums.Approved && !post.DeletedAt.Valid {
			posts = append(posts, post)
		}
	}
	sortPostsDesc(posts)
	return posts, nil, nil, nil
}

func (f *fakePostRepo) GetRepliesByCursor(_ context.Context, parentID uint64, _ *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.repliesResult != nil {
		return f.repliesResult, nil, nil, nil
	}
	// 楼层视图不过滤状态，墓碑回复照常返回，升序排列。
	var posts []*entities.Post
	for _, post := range f.posts {
		if post.ParentID != nil && *post.ParentID == parentID {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil, nil, nil
}

func (f *fakePostRepo) GetPostsByAuthorCursor(_ context.Context, authorID string, _ *dto.CursorQueryDTO) ([]*entities.Post, *time.Time, *uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authorResult != nil {
		return f.authorResult, nil, nil, nil
	}
	var posts []*entities.Post
	for _, post := range f.posts {
		if post.AuthorID == authorID && post.Status == enums.Approved && !post.DeletedAt.Valid {
			posts = append(posts, post)
		}
	}
	sortPostsDesc(posts)
	return posts, nil, nil, nil
}

func sortPostsDesc(posts []*entities.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

// --- 管理端仓库假实现（与 fakePostRepo 共享同一份内存数据） ---

type fakePostAdminRepo struct {
	posts *fakePostRepo
}

func (f *fakePostAdminRepo) UpdatePostStatus(_ context.Context, postID uint64, status enums.Status, reason sql.NullString) error {
	f.posts.mu.Lock()
	defer f.posts.mu.Unlock()
	post, ok := f.posts.posts[postID]
	if !ok || post.DeletedAt.Valid {
		return commonerrors.ErrRepoNotFound
	}
	post.Status = status
	post.AuditReason = reason
	return nil
}

func (f *fakePostAdminRepo) ListPostsByCondition(_ context.Context, _ *dto.ListPostsByConditionRequest) ([]*entities.Post, int64, error) {
	f.posts.mu.Lock()
	defer f.posts.mu.Unlock()
	var posts []*entities.Post
	for _, post := range f.posts.posts {
		posts = append(posts, post)
	}
	sortPostsDesc(posts)
	return posts, int64(len(posts)), nil
}

// --- 图片仓库假实现 ---

type fakePostImageRepo struct {
	mu     sync.Mutex
	images map[uint64][]*entities.PostImage
}

func newFakePostImageRepo() *fakePostImageRepo {
	return &fakePostImageRepo{images: make(map[uint64][]*entities.PostImage)}
}

func (f *fakePostImageRepo) CreateImages(_ context.Context, _ *gorm.DB, images []*entities.PostImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, img := range images {
		f.images[img.PostID] = append(f.images[img.PostID], img)
	}
	return nil
}

func (f *fakePostImageRepo) GetImagesByPostID(_ context.Context, postID uint64) ([]*entities.PostImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images[postID], nil
}

func (f *fakePostImageRepo) GetImagesByPostIDs(_ context.Context, postIDs []uint64) (map[uint64][]*entities.PostImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[uint64][]*entities.PostImage, len(postIDs))
	for _, id := range postIDs {
		if imgs, ok := f.images[id]; ok {
			result[id] = imgs
		}
	}
	return result, nil
}

func (f *fakePostImageRepo) SoftDeleteImagesByPostID(_ context.Context, _ *gorm.DB, postID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.images, postID)
	return nil
}

// --- 缓存假实现 ---

type fakeFeedCache struct {
	mu        sync.Mutex
	firstPage *vo.CursorPageVO
	details   map[uint64]*vo.PostDetailVO

	setFirstPageCalls      int
	firstPageInvalidations int
	detailInvalidations    map[uint64]int
}

func newFakeFeedCache() *fakeFeedCache {
	return &fakeFeedCache{
		details:             make(map[uint64]*vo.PostDetailVO),
		detailInvalidations: make(map[uint64]int),
	}
}

func (f *fakeFeedCache) GetFirstPage(_ context.Context) (*vo.CursorPageVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.firstPage == nil {
		return nil, myErrors.ErrCacheMiss
	}
	return f.firstPage, nil
}

func (f *fakeFeedCache) SetFirstPage(_ context.Context, page *vo.CursorPageVO) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.firstPage = page
	f.setFirstPageCalls++
	return nil
}

func (f *fakeFeedCache) InvalidateFirstPage(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.firstPage = nil
	f.firstPageInvalidations++
	return nil
}

func (f *fakeFeedCache) GetPostDetail(_ context.Context, postID uint64) (*vo.PostDetailVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	detail, ok := f.details[postID]
	if !ok {
		return nil, myErrors.ErrCacheMiss
	}
	return detail, nil
}

func (f *fakeFeedCache) SetPostDetail(_ context.Context, postID uint64, detail *vo.PostDetailVO) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[postID] = detail
	return nil
}

func (f *fakeFeedCache) InvalidatePostDetail(_ context.Context, postID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.details, postID)
	f.detailInvalidations[postID]++
	return nil
}

func (f *fakeFeedCache) detailInvalidationCount(postID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailInvalidations[postID]
}

// --- Kafka 生产者假实现 ---

type fakeEventProducer struct {
	mu            sync.Mutex
	pendingEvents []event.PostData
	deletedPosts  []uint64
}

func (f *fakeEventProducer) SendPostPendingAuditEvent(_ context.Context, postData event.PostData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingEvents = append(f.pendingEvents, postData)
	return nil
}

func (f *fakeEventProducer) SendPostDeleteEvent(_ context.Context, postID uint64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedPosts = append(f.deletedPosts, postID)
	return nil
}

func (f *fakeEventProducer) pendingEventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pendingEvents)
}

func (f *fakeEventProducer) deletedPostCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletedPosts)
}

// --- COS 客户端假实现 ---

type fakeCOSClient struct {
	mu          sync.Mutex
	deletedKeys []string
}

func (f *fakeCOSClient) GetClient() *cos.Client { return nil }

func (f *fakeCOSClient) UploadFile(_ context.Context, objectKey string, _ io.Reader, _ int64, _ string) (string, error) {
	return "https://cdn.example.com/" + objectKey, nil
}

func (f *fakeCOSClient) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedKeys = append(f.deletedKeys, objectKey)
	return nil
}

func (f *fakeCOSClient) deletedKeyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletedKeys)
}
