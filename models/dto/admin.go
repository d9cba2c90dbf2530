package dto

import (
	"github.com/Xushengqwer/go-common/models/enums"
)

// ListPostsByConditionRequest 定义管理员分页条件查询帖子的请求数据结构
type ListPostsByConditionRequest struct {
	ID             *uint64       `form:"id" json:"id,omitempty"`                               // 帖子ID，若存在则按主键查询，可选
	AuthorID       *string       `form:"author_id" json:"author_id,omitempty"`                 // 作者ID精确查询，可选
	AuthorUsername *string       `form:"author_username" json:"author_username,omitempty"`     // 作者用户名模糊查询，可选
	Content        *string       `form:"content" json:"content,omitempty"`                     // 内容模糊查询，可选
	Status         *enums.Status `form:"status" json:"status,omitempty" swaggertype:"integer"` // 状态筛选，可选（0=待审核, 1=已发布, 2=拒绝）
	OnlyRoot       bool          `form:"only_root" json:"only_root"`                           // 仅根帖（parent_id IS NULL），默认 false
	OrderBy        string        `form:"order_by" json:"order_by"`                             // 排序字段（created_at 或 updated_at），默认 created_at
	OrderDesc      bool          `form:"order_desc" json:"order_desc"`                         // 是否降序，true 为降序
	Page           int           `form:"page" json:"page" binding:"required,gt=0"`             // 页码，从 1 开始，必填
	PageSize       int           `form:"page_size" json:"page_size" binding:"required,gt=0"`   // 每页大小，必填
}

// AuditPostRequest 定义审核帖子的请求数据结构
type AuditPostRequest struct {
	PostID uint64 `json:"post_id" binding:"required" example:"123"`
	// Status 表示帖子的审核状态。
	// 0: 待审核 (Pending)
	// 1: 已发布/审核通过 (Approved)
	// 2: 拒绝 (Rejected)
	Status enums.Status `json:"status" binding:"min=0,max=2" swaggertype:"integer"`
	Reason string       `json:"reason" binding:"omitempty,max=255" example:"内容符合社区规范"`
}
