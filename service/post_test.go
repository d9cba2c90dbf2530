package service

import (
	"context"
	"strings"
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
	"github.com/Xushengqwer/thread_service/myErrors"
)

const testAuthorID = "11111111-1111-1111-1111-111111111111"

func newPostServiceForTest(t *testing.T) (PostService, *fakePostRepo, *fakePostImageRepo, *fakeFeedCache, *fakeEventProducer, *fakeCOSClient) {
	t.Helper()
	postRepo := newFakePostRepo()
	imageRepo := newFakePostImageRepo()
	cache := newFakeFeedCache()
	prod := &fakeEventProducer{}
	cosCli := &fakeCOSClient{}
	svc := NewPostService(&fakeTxManager{}, postRepo, imageRepo, cache, cosCli, prod, newTestLogger(t))
	return svc, postRepo, imageRepo, cache, prod, cosCli
}

func seedPost(repo *fakePostRepo, authorID string, createdAt time.Time, parentID *uint64) *entities.Post {
	post := &entities.Post{
		Content:        "原始内容，超过三个字符",
		AuthorID:       authorID,
		AuthorUsername: "测试用户",
		ParentID:       parentID,
		Status:         enums.Approved,
	}
	post.CreatedAt = createdAt
	return repo.addPost(post)
}

func TestCreatePost_ContentTooShort(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)

	_, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "ab",
		AuthorUsername: "测试用户",
	})

	assert.ErrorIs(t, err, myErrors.ErrContentTooShort)
}

func TestCreatePost_ContentTooShortAfterTrim(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)

	// 空白不计入有效长度。
	_, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "   a    ",
		AuthorUsername: "测试用户",
	})

	assert.ErrorIs(t, err, myErrors.ErrContentTooShort)
}

func TestCreatePost_ContentTooLong(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)

	_, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        strings.Repeat("长", constant.PostContentMaxLen+1),
		AuthorUsername: "测试用户",
	})

	assert.ErrorIs(t, err, myErrors.ErrContentTooLong)
}

func TestCreatePost_ContentMaxLenAccepted(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)

	// 恰好 500 个字符（非字节）应被接受。
	resp, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        strings.Repeat("长", constant.PostContentMaxLen),
		AuthorUsername: "测试用户",
	})

	require.NoError(t, err)
	assert.Equal(t, constant.PostContentMaxLen, len([]rune(resp.Content)))
}

func TestCreatePost_TooManyImages(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)

	images := make([]dto.PostImageItem, constant.PostMaxImages+1)
	for i := range images {
		images[i] = dto.PostImageItem{ImageURL: "https://cdn.example.com/a.png"}
	}

	_, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "合法的帖子内容",
		AuthorUsername: "测试用户",
		Images:         images,
	})

	assert.ErrorIs(t, err, myErrors.ErrTooManyImages)
}

func TestCreatePost_RootPost(t *testing.T) {
	svc, postRepo, imageRepo, _, prod, _ := newPostServiceForTest(t)

	resp, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "一条全新的根帖内容",
		AuthorUsername: "测试用户",
		Images: []dto.PostImageItem{
			{ImageURL: "https://cdn.example.com/1.png", ObjectKey: "threads/images/1.png"},
			{ImageURL: "https://cdn.example.com/2.png", ObjectKey: "threads/images/2.png"},
		},
	})

	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Nil(t, resp.ParentID)
	assert.Equal(t, enums.Pending, resp.Status) // 新帖默认待审核
	assert.Equal(t, int64(0), resp.ReplyCount)
	assert.Nil(t, resp.EditedAt)
	require.Len(t, resp.Images, 2)
	assert.Equal(t, 0, resp.Images[0].DisplayOrder)
	assert.Equal(t, 1, resp.Images[1].DisplayOrder)

	stored, err := postRepo.GetPostByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "一条全新的根帖内容", stored.Content)

	storedImages, err := imageRepo.GetImagesByPostID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Len(t, storedImages, 2)

	// 审核事件异步发出。
	require.Eventually(t, func() bool {
		return prod.pendingEventCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreatePost_ReplyIncrementsParentCount(t *testing.T) {
	svc, postRepo, _, cache, _, _ := newPostServiceForTest(t)
	parent := seedPost(postRepo, "another-author", time.Now().Add(-time.Hour), nil)

	resp, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "给根帖的一条回复",
		AuthorUsername: "测试用户",
		ParentID:       &parent.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.ParentID)
	assert.Equal(t, parent.ID, *resp.ParentID)

	// 回复计数与回复行同事务自增。
	updatedParent, err := postRepo.GetPostByID(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updatedParent.ReplyCount)

	// 父帖详情缓存被失效。
	assert.Equal(t, 1, cache.detailInvalidationCount(parent.ID))
}

func TestCreatePost_ReplyToMissingParent(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)
	missingID := uint64(9999)

	_, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "回复一个不存在的帖子",
		AuthorUsername: "测试用户",
		ParentID:       &missingID,
	})

	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestCreatePost_ReplyToTombstoneAllowed(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	parent := seedPost(postRepo, "another-author", time.Now().Add(-time.Hour), nil)
	parent.Content = constant.TombstoneContent
	parent.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	_, err := svc.CreatePost(context.Background(), testAuthorID, &dto.CreatePostRequest{
		Content:        "墓碑帖下的讨论仍在继续",
		AuthorUsername: "测试用户",
		ParentID:       &parent.ID,
	})

	require.NoError(t, err)
	updatedParent, err := postRepo.GetPostByID(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updatedParent.ReplyCount)
}

func TestUpdatePostContent_Success(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Minute), nil)

	resp, err := svc.UpdatePostContent(context.Background(), post.ID, testAuthorID, &dto.UpdatePostRequest{
		Content: "编辑后的新内容",
	})

	require.NoError(t, err)
	assert.Equal(t, "编辑后的新内容", resp.Content)
	assert.NotNil(t, resp.EditedAt)
}

func TestUpdatePostContent_NotAuthor(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	post := seedPost(postRepo, "someone-else", time.Now().Add(-time.Minute), nil)

	_, err := svc.UpdatePostContent(context.Background(), post.ID, testAuthorID, &dto.UpdatePostRequest{
		Content: "不是我的帖子也想改",
	})

	assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
}

func TestUpdatePostContent_WindowExpired(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-constant.PostEditWindow-time.Minute), nil)

	_, err := svc.UpdatePostContent(context.Background(), post.ID, testAuthorID, &dto.UpdatePostRequest{
		Content: "窗口已过还想编辑",
	})

	assert.ErrorIs(t, err, myErrors.ErrEditWindowExpired)
}

func TestUpdatePostContent_WithinWindowBoundary(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	// 窗口内最后一刻仍可编辑。
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-constant.PostEditWindow+5*time.Second), nil)

	_, err := svc.UpdatePostContent(context.Background(), post.ID, testAuthorID, &dto.UpdatePostRequest{
		Content: "压哨修改一下内容",
	})

	assert.NoError(t, err)
}

func TestUpdatePostContent_Tombstoned(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Minute), nil)
	post.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	_, err := svc.UpdatePostContent(context.Background(), post.ID, testAuthorID, &dto.UpdatePostRequest{
		Content: "墓碑帖无法再编辑",
	})

	assert.ErrorIs(t, err, myErrors.ErrPostDeleted)
}

func TestDeletePost_Tombstones(t *testing.T) {
	svc, postRepo, imageRepo, cache, prod, cosCli := newPostServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Hour), nil)
	post.ReplyCount = 3
	require.NoError(t, imageRepo.CreateImages(context.Background(), nil, []*entities.PostImage{
		{PostID: post.ID, ImageURL: "https://cdn.example.com/1.png", ObjectKey: "threads/images/1.png"},
	}))

	err := svc.DeletePost(context.Background(), post.ID, testAuthorID)
	require.NoError(t, err)

	// 内容替换为墓碑文案，楼层与计数保留。
	deleted, err := postRepo.GetPostByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.True(t, deleted.DeletedAt.Valid)
	assert.Equal(t, constant.TombstoneContent, deleted.Content)
	assert.Equal(t, int64(3), deleted.ReplyCount)

	// 图片记录清空。
	images, err := imageRepo.GetImagesByPostID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	// 根帖删除会失效信息流首屏缓存。
	assert.Equal(t, 1, cache.firstPageInvalidations)

	// COS 对象清理与删除事件均异步触发。
	require.Eventually(t, func() bool {
		return cosCli.deletedKeyCount() == 1 && prod.deletedPostCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDeletePost_Idempotent(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	post := seedPost(postRepo, testAuthorID, time.Now().Add(-time.Hour), nil)

	require.NoError(t, svc.DeletePost(context.Background(), post.ID, testAuthorID))
	// 第二次删除幂等成功。
	assert.NoError(t, svc.DeletePost(context.Background(), post.ID, testAuthorID))
}

func TestDeletePost_NotAuthor(t *testing.T) {
	svc, postRepo, _, _, _, _ := newPostServiceForTest(t)
	post := seedPost(postRepo, "someone-else", time.Now().Add(-time.Hour), nil)

	err := svc.DeletePost(context.Background(), post.ID, testAuthorID)

	assert.ErrorIs(t, err, myErrors.ErrUnauthorized)
}

func TestDeletePost_NotFound(t *testing.T) {
	svc, _, _, _, _, _ := newPostServiceForTest(t)

	err := svc.DeletePost(context.Background(), 4242, testAuthorID)

	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}
