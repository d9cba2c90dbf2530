package dto

// PostImageItem 创建帖子时携带的单张图片引用。
// - 图片需先通过上传接口传至 COS，这里提交返回的 URL 与对象键。
type PostImageItem struct {
	ImageURL  string `json:"image_url" binding:"required,url|uri"`     // 图片访问 URL，必填
	ObjectKey string `json:"object_key" binding:"omitempty,max=255"`   // COS 对象键，可选（外链图片时为空）
}

// CreatePostRequest 定义了创建帖子的请求数据结构
// - binding 标签只做结构校验（必填项）；内容长度与图片数量的业务校验在服务层
//   独立执行，以便返回可区分的错误信息。
type CreatePostRequest struct {
	Content        string          `json:"content" form:"content" binding:"required"`                        // 帖子内容，必填
	Images         []PostImageItem `json:"images" binding:"omitempty,dive"`                                  // 图片列表，可选（数量上限在服务层校验）
	ParentID       *uint64         `json:"parent_id" form:"parent_id" binding:"omitempty,gte=1"`             // 父帖ID，可选；为空表示根帖
	AuthorUsername string          `json:"author_username" form:"author_username" binding:"required,max=50"` // 作者用户名，必填，最大50字符（冗余展示字段）
	AuthorAvatar   string          `json:"author_avatar" form:"author_avatar" binding:"omitempty,url|uri"`   // 作者头像 URL，可选（冗余展示字段）
}

// UpdatePostRequest 定义了编辑帖子内容的请求数据结构
// - 仅允许修改内容；图片与父帖引用不可通过该接口变更。
// - PostID 从路径参数获取，不在请求体内。
type UpdatePostRequest struct {
	Content string `json:"content" form:"content" binding:"required"` // 新的帖子内容，必填
}
