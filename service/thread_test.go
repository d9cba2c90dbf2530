package service

import (
	"context"
	"testing"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/entities"
	"github.com/Xushengqwer/thread_service/models/vo"
)

func newThreadServiceForTest(t *testing.T) (ThreadQueryService, *fakePostRepo, *fakePostImageRepo, *fakeFeedCache) {
	t.Helper()
	postRepo := newFakePostRepo()
	imageRepo := newFakePostImageRepo()
	cache := newFakeFeedCache()
	svc := NewThreadQueryService(postRepo, imageRepo, cache, newTestLogger(t))
	return svc, postRepo, imageRepo, cache
}

func firstPageQuery() *dto.CursorQueryDTO {
	return &dto.CursorQueryDTO{PageSize: constant.DefaultPageSize}
}

func TestGetFeed_FirstPageHitsCache(t *testing.T) {
	svc, postRepo, _, cache := newThreadServiceForTest(t)
	cached := &vo.CursorPageVO{Posts: []*vo.PostResponse{{ID: 42}}}
	require.NoError(t, cache.SetFirstPage(context.Background(), cached))

	page, err := svc.GetFeed(context.Background(), firstPageQuery())

	require.NoError(t, err)
	assert.Equal(t, cached, page)
	assert.Equal(t, 0, postRepo.feedCalls) // 命中缓存不回源
}

func TestGetFeed_MissFillsCache(t *testing.T) {
	svc, postRepo, _, cache := newThreadServiceForTest(t)
	postRepo.feedResult = []*entities.Post{
		seedPost(postRepo, testAuthorID, time.Now(), nil),
	}

	page, err := svc.GetFeed(context.Background(), firstPageQuery())

	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, 1, postRepo.feedCalls)
	assert.Equal(t, 1, cache.setFirstPageCalls) // 回源后回填首屏缓存
}

func TestGetFeed_CursorPageSkipsCache(t *testing.T) {
	svc, postRepo, _, cache := newThreadServiceForTest(t)
	lastCreatedAt := time.Now()
	lastID := uint64(100)
	query := &dto.CursorQueryDTO{
		LastCreatedAt: &lastCreatedAt,
		LastPostID:    &lastID,
		PageSize:      constant.DefaultPageSize,
	}

	_, err := svc.GetFeed(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, 1, postRepo.feedCalls)
	assert.Equal(t, 0, cache.setFirstPageCalls) // 非首屏不写缓存
}

func TestGetPostDetail_TombstonedChildKeepsFloor(t *testing.T) {
	svc, postRepo, _, _ := newThreadServiceForTest(t)
	root := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Hour), nil)

	tombstoned := seedPost(postRepo, "another-author", time.Now().Add(-30*time.Minute), &root.ID)
	tombstoned.Content = constant.TombstoneContent
	tombstoned.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	alive := seedPost(postRepo, "third-author", time.Now().Add(-20*time.Minute), &root.ID)
	postRepo.repliesResult = []*entities.Post{tombstoned, alive}

	detail, err := svc.GetPostDetail(context.Background(), root.ID, firstPageQuery())

	require.NoError(t, err)
	require.Len(t, detail.Children, 2)
	// 墓碑回复保留楼层并展示墓碑文案。
	assert.Equal(t, constant.TombstoneContent, detail.Children[0].Content)
	assert.True(t, detail.Children[0].Deleted)
	assert.False(t, detail.Children[1].Deleted)
}

func TestGetPostDetail_IncludesParent(t *testing.T) {
	svc, postRepo, _, _ := newThreadServiceForTest(t)
	root := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Hour), nil)
	reply := seedPost(postRepo, "another-author", time.Now().Add(-30*time.Minute), &root.ID)

	detail, err := svc.GetPostDetail(context.Background(), reply.ID, firstPageQuery())

	require.NoError(t, err)
	require.NotNil(t, detail.Parent)
	assert.Equal(t, root.ID, detail.Parent.ID)
	assert.Equal(t, reply.ID, detail.Post.ID)
}

func TestGetPostDetail_TombstonedPostVisible(t *testing.T) {
	svc, postRepo, _, _ := newThreadServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Hour), nil)
	post.Content = constant.TombstoneContent
	post.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	detail, err := svc.GetPostDetail(context.Background(), post.ID, firstPageQuery())

	require.NoError(t, err)
	assert.True(t, detail.Post.Deleted)
	assert.Equal(t, constant.TombstoneContent, detail.Post.Content)
}

func TestGetPostDetail_PendingPostVisible(t *testing.T) {
	svc, postRepo, _, _ := newThreadServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now(), nil)
	post.Status = enums.Pending

	// 刚创建尚未过审的帖子，作者跳转详情页必须立即可见。
	detail, err := svc.GetPostDetail(context.Background(), post.ID, firstPageQuery())

	require.NoError(t, err)
	assert.Equal(t, post.ID, detail.Post.ID)
	assert.Equal(t, enums.Pending, detail.Post.Status)
}

func TestGetPostDetail_NotFound(t *testing.T) {
	svc, _, _, _ := newThreadServiceForTest(t)

	_, err := svc.GetPostDetail(context.Background(), 777, firstPageQuery())

	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestGetPostDetail_FirstPageFillsCache(t *testing.T) {
	svc, postRepo, _, cache := newThreadServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Hour), nil)

	_, err := svc.GetPostDetail(context.Background(), post.ID, firstPageQuery())
	require.NoError(t, err)

	cachedDetail, err := cache.GetPostDetail(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, cachedDetail.Post.ID)
}

func TestGetPostsByAuthor_AttachesImages(t *testing.T) {
	svc, postRepo, imageRepo, _ := newThreadServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now(), nil)
	postRepo.authorResult = []*entities.Post{post}
	require.NoError(t, imageRepo.CreateImages(context.Background(), nil, []*entities.PostImage{
		{PostID: post.ID, ImageURL: "https://cdn.example.com/1.png", ObjectKey: "threads/images/1.png"},
	}))

	page, err := svc.GetPostsByAuthor(context.Background(), testAuthorID, firstPageQuery())

	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Len(t, page.Posts[0].Images, 1)
	assert.False(t, page.HasMore)
}
