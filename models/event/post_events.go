package event

import "github.com/Xushengqwer/go-common/models/enums"

// 本包定义帖子服务与外部审核服务之间通过 Kafka 交换的事件结构。
// 事件信封统一携带 EventID（UUID，用于幂等去重）与 Timestamp（毫秒时间戳）。

// ImageData 事件中携带的图片信息
type ImageData struct {
	ImageURL     string `json:"image_url"`
	ObjectKey    string `json:"object_key"`
	DisplayOrder int    `json:"display_order"`
}

// PostData 事件中携带的帖子快照
type PostData struct {
	ID             uint64       `json:"id"`
	Content        string       `json:"content"`
	AuthorID       string       `json:"author_id"`
	AuthorUsername string       `json:"author_username"`
	AuthorAvatar   string       `json:"author_avatar"`
	ParentID       *uint64      `json:"parent_id,omitempty"`
	Status         enums.Status `json:"status"`
	CreatedAt      int64        `json:"created_at"` // 毫秒时间戳
	Images         []ImageData  `json:"images,omitempty"`
}

// PostPendingAuditEvent 帖子创建/编辑后发往审核服务的待审核事件
type PostPendingAuditEvent struct {
	EventID   string   `json:"event_id"`
	Timestamp int64    `json:"timestamp"`
	Post      PostData `json:"post"`
}

// PostApprovedEvent 审核服务回写的审核通过事件
type PostApprovedEvent struct {
	EventID   string `json:"event_id"`
	Timestamp int64  `json:"timestamp"`
	PostID    uint64 `json:"post_id"`
}

// RejectionDetail 拒绝事件中的单条违规详情
type RejectionDetail struct {
	Label          string   `json:"label"`           // 违规类别标签
	Score          float64  `json:"score"`           // 置信度分数
	MatchedContent []string `json:"matched_content"` // 命中的内容片段
	Suggestion     string   `json:"suggestion"`      // 处理建议
}

// PostRejectedEvent 审核服务回写的审核拒绝事件
type PostRejectedEvent struct {
	EventID    string            `json:"event_id"`
	Timestamp  int64             `json:"timestamp"`
	PostID     uint64            `json:"post_id"`
	Suggestion string            `json:"suggestion"` // 总体处理建议，将落库为审核原因
	Details    []RejectionDetail `json:"details,omitempty"`
}

// PostDeletedEvent 帖子被作者删除（墓碑化）后广播的事件，供下游清理派生数据
type PostDeletedEvent struct {
	EventID   string `json:"event_id"`
	Timestamp int64  `json:"timestamp"`
	PostID    uint64 `json:"post_id"`
	AuthorID  string `json:"author_id"`
}
