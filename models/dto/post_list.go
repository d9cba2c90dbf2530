package dto

import (
	"time"

	"github.com/Xushengqwer/thread_service/constant"
)

// clampPageSize 将非法的页大小回落为默认值。
// - binding 校验已拦截外部请求的非法值，这里兜底内部调用方直接构造的查询。
func clampPageSize(size int) int {
	if size <= 0 || size > 100 {
		return constant.DefaultPageSize
	}
	return size
}

// CursorPageRequestDTO 定义了游标分页查询的公共API请求参数。
// - 游标采用 (lastCreatedAt, lastPostId) 复合键：排序列为 created_at，
//   并以 id 作为确定性的次级排序键，避免相同时间戳下跨页丢行或重复。
type CursorPageRequestDTO struct {
	// LastCreatedAt 上一页最后一条记录的创建时间，用于游标分页。
	// - 从URL查询参数 "lastCreatedAt" 获取，RFC3339 格式。
	LastCreatedAt *time.Time `form:"lastCreatedAt" binding:"omitempty" time_format:"2006-01-02T15:04:05Z07:00"`

	// LastPostID 上一页最后一条记录的 ID，用于游标分页（辅助排序）。
	LastPostID *uint64 `form:"lastPostId" binding:"omitempty,gte=1"`

	// PageSize 每页期望返回的记录数。
	PageSize int `form:"pageSize" binding:"required,gte=1,lte=100"`
}

// ToCursorQuery 将API请求参数转换为服务层/仓库层使用的查询DTO。
func (dto *CursorPageRequestDTO) ToCursorQuery() *CursorQueryDTO {
	return &CursorQueryDTO{
		LastCreatedAt: dto.LastCreatedAt,
		LastPostID:    dto.LastPostID,
		PageSize:      clampPageSize(dto.PageSize),
	}
}

// ListPostsByAuthorRequest 定义按作者游标分页查询帖子的API请求参数。
type ListPostsByAuthorRequest struct {
	UserID string `form:"user_id" binding:"required"` // 要查询其帖子的用户 ID，必填

	CursorPageRequestDTO
}

// PostDetailRequestDTO 定义了获取帖子详情（含子回复分页）的API请求参数。
// - 目标帖子 ID 来自路径参数；这里只承载子回复的游标分页参数。
type PostDetailRequestDTO struct {
	// ChildrenLastCreatedAt 子回复上一页最后一条的创建时间（子回复按时间正序）。
	ChildrenLastCreatedAt *time.Time `form:"childrenLastCreatedAt" binding:"omitempty" time_format:"2006-01-02T15:04:05Z07:00"`

	// ChildrenLastPostID 子回复上一页最后一条的帖子 ID。
	ChildrenLastPostID *uint64 `form:"childrenLastPostId" binding:"omitempty,gte=1"`

	// ChildrenPageSize 子回复每页数量。
	ChildrenPageSize int `form:"childrenPageSize" binding:"required,gte=1,lte=100"`
}

// ToChildrenCursorQuery 将子回复分页参数转换为查询DTO。
func (dto *PostDetailRequestDTO) ToChildrenCursorQuery() *CursorQueryDTO {
	return &CursorQueryDTO{
		LastCreatedAt: dto.ChildrenLastCreatedAt,
		LastPostID:    dto.ChildrenLastPostID,
		PageSize:      clampPageSize(dto.ChildrenPageSize),
	}
}

// CursorQueryDTO 封装了游标分页的查询参数。
// - 用于在 Service 层和 Repo 层之间传递结构化的查询条件。
// - LastCreatedAt/LastPostID 均为 nil 表示首次查询（第一页）。
type CursorQueryDTO struct {
	LastCreatedAt *time.Time `json:"lastCreatedAt"`
	LastPostID    *uint64    `json:"lastPostID"`
	PageSize      int        `json:"pageSize"`
}

// IsFirstPage 判断该查询是否为无游标的首页查询。
func (q *CursorQueryDTO) IsFirstPage() bool {
	return q.LastCreatedAt == nil && q.LastPostID == nil
}
