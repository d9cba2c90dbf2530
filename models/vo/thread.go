package vo

import "time"

// PostDetailVO 帖子详情视图对象，一次请求返回会话串所需的全部上下文：
// - Post: 目标帖子本身
// - Parent: 父帖（目标为根帖时为空；父帖被墓碑化时仍返回墓碑内容）
// - Children: 目标帖子的直接回复，按 (created_at, id) 正序分页
type PostDetailVO struct {
	Post     *PostResponse   `json:"post"`
	Parent   *PostResponse   `json:"parent,omitempty"`
	Children []*PostResponse `json:"children"`

	// 子回复的下一页复合游标；均为空表示子回复已取完。
	ChildrenNextCreatedAt *time.Time `json:"childrenNextCreatedAt,omitempty"`
	ChildrenNextPostID    *uint64    `json:"childrenNextPostId,omitempty"`
	ChildrenHasMore       bool       `json:"childrenHasMore"`
}
