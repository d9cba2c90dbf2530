package service

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/models/dto"
)

// TestPostLifecycle_FullFlow 串联帖子从发布到删除的完整链路：
// 创建根帖（待审核）→ 审核通过进入信息流 → 回复自增计数 →
// 详情页展示回复 → 回复被删除后楼层保留、计数不回退。
func TestPostLifecycle_FullFlow(t *testing.T) {
	ctx := context.Background()
	postRepo := newFakePostRepo()
	imageRepo := newFakePostImageRepo()
	cache := newFakeFeedCache()
	logger := newTestLogger(t)

	postSvc := NewPostService(&fakeTxManager{}, postRepo, imageRepo, cache, &fakeCOSClient{}, &fakeEventProducer{}, logger)
	threadSvc := NewThreadQueryService(postRepo, imageRepo, cache, logger)
	adminSvc := NewPostAdminService(&fakePostAdminRepo{posts: postRepo}, imageRepo, cache, logger)

	// 1. 发布根帖，初始为待审核状态。
	root, err := postSvc.CreatePost(ctx, testAuthorID, &dto.CreatePostRequest{
		Content:        "今天小区门口的早餐摊回来了",
		AuthorUsername: "楼主",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.Pending, root.Status)

	// 2. 待审核的根帖不进入信息流，但作者跳转详情页必须立即可见。
	feed, err := threadSvc.GetFeed(ctx, firstPageQuery())
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)

	detail, err := threadSvc.GetPostDetail(ctx, root.ID, firstPageQuery())
	require.NoError(t, err)
	assert.Equal(t, root.ID, detail.Post.ID)

	// 3. 审核通过后，信息流首屏缓存被失效，根帖出现在信息流中。
	require.NoError(t, adminSvc.AuditPost(ctx, &dto.AuditPostRequest{PostID: root.ID, Status: enums.Approved}))

	feed, err = threadSvc.GetFeed(ctx, firstPageQuery())
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, root.ID, feed.Posts[0].ID)

	// 4. 另一位用户回复根帖：回复计数自增，父帖详情缓存被失效，
	//    刚创建（仍待审核）的回复立即出现在楼层中。
	reply, err := postSvc.CreatePost(ctx, "22222222-2222-2222-2222-222222222222", &dto.CreatePostRequest{
		Content:        "确实，豆浆还是原来的味道",
		AuthorUsername: "邻居",
		ParentID:       &root.ID,
	})
	require.NoError(t, err)

	rootEntity, err := postRepo.GetPostByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rootEntity.ReplyCount)

	detail, err = threadSvc.GetPostDetail(ctx, root.ID, firstPageQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Post.ReplyCount)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, reply.ID, detail.Children[0].ID)
	assert.Equal(t, enums.Pending, detail.Children[0].Status)

	// 5. 回复作者删除自己的回复：楼层保留为墓碑，父帖计数不回退。
	require.NoError(t, postSvc.DeletePost(ctx, reply.ID, "22222222-2222-2222-2222-222222222222"))

	detail, err = threadSvc.GetPostDetail(ctx, root.ID, firstPageQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Post.ReplyCount)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, constant.TombstoneContent, detail.Children[0].Content)
	assert.True(t, detail.Children[0].Deleted)
}
