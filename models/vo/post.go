package vo

import (
	"time"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/Xushengqwer/thread_service/models/entities"
)

// PostImageVO 帖子图片视图对象
type PostImageVO struct {
	ImageURL     string `json:"image_url"`     // 图片访问 URL
	DisplayOrder int    `json:"display_order"` // 展示顺序
	ObjectKey    string `json:"object_key"`    // COS 对象键
}

// PostResponse 单个帖子的视图对象，用于列表与详情响应
type PostResponse struct {
	ID             uint64        `json:"id"`
	Content        string        `json:"content"`
	AuthorID       string        `json:"author_id"`
	AuthorUsername string        `json:"author_username"`
	AuthorAvatar   string        `json:"author_avatar"`
	ParentID       *uint64       `json:"parent_id,omitempty"` // 为空表示根帖
	ReplyCount     int64         `json:"reply_count"`
	Status         enums.Status  `json:"status" swaggertype:"integer"` // 0=待审核, 1=已发布, 2=拒绝
	Deleted        bool          `json:"deleted"`                      // 是否为墓碑帖（内容已被作者删除）
	EditedAt       *time.Time    `json:"edited_at,omitempty"`          // 最后一次成功编辑的时间，未编辑过为空
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Images         []PostImageVO `json:"images,omitempty"` // 图片列表，按 DisplayOrder 升序
}

// CursorPageVO 游标分页的帖子列表视图对象
// - NextCreatedAt/NextPostID 为下一页的复合游标；均为空表示没有更多数据。
type CursorPageVO struct {
	Posts         []*PostResponse `json:"posts"`
	NextCreatedAt *time.Time      `json:"nextCreatedAt,omitempty"`
	NextPostID    *uint64         `json:"nextPostId,omitempty"`
	HasMore       bool            `json:"hasMore"`
}

// OffsetPageVO 管理端偏移分页的帖子列表视图对象
type OffsetPageVO struct {
	Posts []*PostResponse `json:"posts"`
	Total int64           `json:"total"`
}

// UploadImageVO 单张图片上传成功后的返回对象
type UploadImageVO struct {
	ImageURL  string `json:"image_url"` // 上传后的访问 URL
	ObjectKey string `json:"object_key"`
}

// MapPostToResponse 将帖子实体转换为视图对象。
// - 墓碑帖在库中内容已是墓碑文案、图片已随帖软删除，这里只需补充 Deleted 标记。
func MapPostToResponse(post *entities.Post, images []*entities.PostImage) *PostResponse {
	if post == nil {
		return nil
	}
	resp := &PostResponse{
		ID:             post.ID,
		Content:        post.Content,
		AuthorID:       post.AuthorID,
		AuthorUsername: post.AuthorUsername,
		AuthorAvatar:   post.AuthorAvatar,
		ParentID:       post.ParentID,
		ReplyCount:     post.ReplyCount,
		Status:         post.Status,
		Deleted:        post.DeletedAt.Valid,
		EditedAt:       post.EditedAt,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
	for _, img := range images {
		resp.Images = append(resp.Images, PostImageVO{
			ImageURL:     img.ImageURL,
			DisplayOrder: img.DisplayOrder,
			ObjectKey:    img.ObjectKey,
		})
	}
	return resp
}

// MapPostsToResponses 批量转换帖子实体，imagesByPostID 允许为 nil（列表页不带图时）。
func MapPostsToResponses(posts []*entities.Post, imagesByPostID map[uint64][]*entities.PostImage) []*PostResponse {
	responses := make([]*PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, MapPostToResponse(post, imagesByPostID[post.ID]))
	}
	return responses
}
