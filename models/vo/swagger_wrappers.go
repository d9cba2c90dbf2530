package vo

// 本文件中的类型仅用于生成 Swagger 文档，
// 为泛型响应 response.APIResponse[T] 提供具体化的包装结构。

// PostResponseWrapper 单帖响应的文档包装
type PostResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message" example:"成功"`
	Data    *PostResponse `json:"data"`
}

// PostDetailResponseWrapper 帖子详情响应的文档包装
type PostDetailResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message" example:"成功"`
	Data    *PostDetailVO `json:"data"`
}

// CursorPageResponseWrapper 游标分页列表响应的文档包装
type CursorPageResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message" example:"成功"`
	Data    *CursorPageVO `json:"data"`
}

// OffsetPageResponseWrapper 管理端偏移分页列表响应的文档包装
type OffsetPageResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message" example:"成功"`
	Data    *OffsetPageVO `json:"data"`
}

// UploadImageResponseWrapper 图片上传响应的文档包装
type UploadImageResponseWrapper struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message" example:"成功"`
	Data    *UploadImageVO `json:"data"`
}

// EmptyResponseWrapper 无数据响应的文档包装（删除、审核等操作）
type EmptyResponseWrapper struct {
	Code    int    `json:"code" example:"0"`
	Message string `json:"message" example:"成功"`
}
