package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/constants"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/myErrors"
	"github.com/Xushengqwer/thread_service/service"
)

// PostController 处理帖子生命周期相关的 HTTP 请求。
type PostController struct {
	postService service.PostService
}

// NewPostController 构造函数，用于创建 PostController 实例
func NewPostController(postService service.PostService) *PostController {
	return &PostController{
		postService: postService,
	}
}

// getUserIDFromContext 从 gin.Context 中取出网关透传下来的 userID。
func getUserIDFromContext(c *gin.Context) (string, bool) {
	userIDValue, exists := c.Get(string(constants.UserIDKey))
	if !exists {
		response.RespondError(c, http.StatusUnauthorized, response.ErrCodeClientUnauthorized, "无法获取用户信息 (Context Key Not Found)")
		return "", false
	}
	userID, ok := userIDValue.(string)
	if !ok || userID == "" {
		response.RespondError(c, http.StatusUnauthorized, response.ErrCodeClientUnauthorized, "无法获取有效的用户 ID (Invalid UserID in Context)")
		return "", false
	}
	return userID, true
}

// parsePostIDParam 解析路径参数中的帖子 ID。
func parsePostIDParam(c *gin.Context) (uint64, bool) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || postID == 0 {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的帖子 ID")
		return 0, false
	}
	return postID, true
}

// respondLifecycleError 将服务层的生命周期错误映射为 HTTP 响应。
func respondLifecycleError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, myErrors.ErrContentTooShort),
		errors.Is(err, myErrors.ErrContentTooLong),
		errors.Is(err, myErrors.ErrTooManyImages):
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, err.Error())
	case errors.Is(err, myErrors.ErrEditWindowExpired):
		response.RespondError(c, http.StatusForbidden, response.ErrCodeClientUnauthorized, err.Error())
	case errors.Is(err, myErrors.ErrUnauthorized):
		response.RespondError(c, http.StatusForbidden, response.ErrCodeClientUnauthorized, "无权操作该帖子")
	case errors.Is(err, myErrors.ErrPostDeleted),
		errors.Is(err, commonerrors.ErrRepoNotFound):
		response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子不存在或已被删除")
	default:
		// 不向客户端暴露内部错误细节。
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, action+"失败")
	}
}

// CreatePost 处理创建帖子（根帖或回复）的 HTTP 请求。
// @Summary      创建新帖子或回复
// @Description  创建一条根帖（parent_id 为空）或对某帖的回复。图片需先通过上传接口上传，随请求提交 URL 与对象键。新帖默认进入待审核状态。
// @Tags         threads (帖子)
// @Accept       json
// @Produce      json
// @Param        request body dto.CreatePostRequest true "帖子内容与图片"
// @Success      200 {object} vo.PostResponseWrapper "帖子创建成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的请求负载（内容长度、图片数量等）"
// @Failure      401 {object} vo.EmptyResponseWrapper "用户未授权"
// @Failure      404 {object} vo.EmptyResponseWrapper "回复的父帖不存在"
// @Failure      500 {object} vo.EmptyResponseWrapper "创建帖子时发生内部服务器错误"
// @Router       /api/v1/thread/posts [post]
func (ctrl *PostController) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	postVO, err := ctrl.postService.CreatePost(c.Request.Context(), userID, &req)
	if err != nil {
		respondLifecycleError(c, err, "创建帖子")
		return
	}

	response.RespondSuccess(c, postVO, "帖子创建成功")
}

// UpdatePostContent 处理编辑帖子内容的 HTTP 请求。
// @Summary      编辑帖子内容
// @Description  作者在创建后 10 分钟的编辑窗口内修改帖子内容。窗口过期、非作者或帖子已删除时拒绝。
// @Tags         threads (帖子)
// @Accept       json
// @Produce      json
// @Param        post_id path uint64 true "帖子 ID" minimum(1)
// @Param        request body dto.UpdatePostRequest true "新的帖子内容"
// @Success      200 {object} vo.PostResponseWrapper "编辑成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的请求负载"
// @Failure      403 {object} vo.EmptyResponseWrapper "非作者或编辑窗口已过期"
// @Failure      404 {object} vo.EmptyResponseWrapper "帖子不存在或已被删除"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/posts/{post_id} [put]
func (ctrl *PostController) UpdatePostContent(c *gin.Context) {
	postID, ok := parsePostIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	postVO, err := ctrl.postService.UpdatePostContent(c.Request.Context(), postID, userID, &req)
	if err != nil {
		respondLifecycleError(c, err, "编辑帖子")
		return
	}

	response.RespondSuccess(c, postVO, "帖子编辑成功")
}

// DeletePost 处理删除帖子的 HTTP 请求。
// @Summary      删除帖子（墓碑化）
// @Description  作者删除自己的帖子：内容替换为墓碑文案、图片清空，楼层与回复计数保留。重复删除幂等成功。
// @Tags         threads (帖子)
// @Produce      json
// @Param        post_id path uint64 true "帖子 ID" minimum(1)
// @Success      200 {object} vo.EmptyResponseWrapper "删除成功"
// @Failure      403 {object} vo.EmptyResponseWrapper "非作者"
// @Failure      404 {object} vo.EmptyResponseWrapper "帖子不存在"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/posts/{post_id} [delete]
func (ctrl *PostController) DeletePost(c *gin.Context) {
	postID, ok := parsePostIDParam(c)
	if !ok {
		return
	}

	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	if err := ctrl.postService.DeletePost(c.Request.Context(), postID, userID); err != nil {
		respondLifecycleError(c, err, "删除帖子")
		return
	}

	response.RespondSuccess[any](c, nil, "帖子删除成功")
}

// UploadPostImage 处理帖子图片上传的 HTTP 请求。
// @Summary      上传帖子图片
// @Description  上传单张图片到对象存储，返回访问 URL 与对象键，供随后的创建帖子请求引用。请求体应为 multipart/form-data。
// @Tags         threads (帖子)
// @Accept       multipart/form-data
// @Produce      json
// @Param        image formData file true "图片文件"
// @Success      200 {object} vo.UploadImageResponseWrapper "上传成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "缺少图片文件或文件处理错误"
// @Failure      401 {object} vo.EmptyResponseWrapper "用户未授权"
// @Failure      500 {object} vo.EmptyResponseWrapper "上传图片时发生内部服务器错误"
// @Router       /api/v1/thread/posts/images [post]
func (ctrl *PostController) UploadPostImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "缺少图片文件: "+err.Error())
		return
	}

	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	uploadVO, err := ctrl.postService.UploadPostImage(c.Request.Context(), userID, fileHeader)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "上传图片失败")
		return
	}

	response.RespondSuccess(c, uploadVO, "图片上传成功")
}

// RegisterRoutes 注册帖子生命周期相关的路由。
func (ctrl *PostController) RegisterRoutes(group *gin.RouterGroup) {
	posts := group.Group("/posts")
	{
		posts.POST("", ctrl.CreatePost)                 // POST /api/v1/thread/posts
		posts.POST("/images", ctrl.UploadPostImage)     // POST /api/v1/thread/posts/images
		posts.PUT(":post_id", ctrl.UpdatePostContent)   // PUT /api/v1/thread/posts/{post_id}
		posts.DELETE(":post_id", ctrl.DeletePost)       // DELETE /api/v1/thread/posts/{post_id}
	}
}
