package controller

import (
	"errors"
	"net/http"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/service"
)

// ThreadController 处理信息流与会话串的只读查询请求。
type ThreadController struct {
	threadService service.ThreadQueryService
}

// NewThreadController 构造函数，用于创建 ThreadController 实例
func NewThreadController(threadService service.ThreadQueryService) *ThreadController {
	return &ThreadController{
		threadService: threadService,
	}
}

// GetFeed 处理获取首页信息流的 HTTP 请求。
// @Summary      获取首页信息流
// @Description  按 (created_at, id) 降序游标分页返回已发布的根帖。首屏（无游标 + 默认页大小）走缓存。
// @Tags         threads (帖子)
// @Produce      json
// @Param        lastCreatedAt query string false "上一页最后一条的创建时间 (RFC3339)" format(date-time)
// @Param        lastPostId query uint64 false "上一页最后一条的帖子 ID" minimum(1)
// @Param        pageSize query int true "每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.CursorPageResponseWrapper "信息流获取成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/feed [get]
func (ctrl *ThreadController) GetFeed(c *gin.Context) {
	var req dto.CursorPageRequestDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	page, err := ctrl.threadService.GetFeed(c.Request.Context(), req.ToCursorQuery())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取信息流失败")
		return
	}

	response.RespondSuccess(c, page, "信息流获取成功")
}

// GetPostDetail 处理获取帖子详情的 HTTP 请求。
// @Summary      获取帖子详情
// @Description  返回目标帖子、其父帖（如为回复）及直接回复的一页。回复按楼层正序分页，墓碑回复保留楼层。
// @Tags         threads (帖子)
// @Produce      json
// @Param        post_id path uint64 true "帖子 ID" minimum(1)
// @Param        childrenLastCreatedAt query string false "子回复上一页最后一条的创建时间 (RFC3339)" format(date-time)
// @Param        childrenLastPostId query uint64 false "子回复上一页最后一条的帖子 ID" minimum(1)
// @Param        childrenPageSize query int true "子回复每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.PostDetailResponseWrapper "帖子详情获取成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的参数"
// @Failure      404 {object} vo.EmptyResponseWrapper "帖子不存在"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/posts/{post_id} [get]
func (ctrl *ThreadController) GetPostDetail(c *gin.Context) {
	postID, ok := parsePostIDParam(c)
	if !ok {
		return
	}

	var req dto.PostDetailRequestDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	detail, err := ctrl.threadService.GetPostDetail(c.Request.Context(), postID, req.ToChildrenCursorQuery())
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子不存在")
			return
		}
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取帖子详情失败")
		return
	}

	response.RespondSuccess(c, detail, "帖子详情获取成功")
}

// GetPostsByAuthor 处理获取某作者公开帖子列表的 HTTP 请求。
// @Summary      获取作者的帖子列表
// @Description  按 (created_at, id) 降序游标分页返回指定作者的已发布帖子。
// @Tags         threads (帖子)
// @Produce      json
// @Param        user_id query string true "作者用户 ID"
// @Param        lastCreatedAt query string false "上一页最后一条的创建时间 (RFC3339)" format(date-time)
// @Param        lastPostId query uint64 false "上一页最后一条的帖子 ID" minimum(1)
// @Param        pageSize query int true "每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.CursorPageResponseWrapper "列表获取成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/posts/by-author [get]
func (ctrl *ThreadController) GetPostsByAuthor(c *gin.Context) {
	var req dto.ListPostsByAuthorRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	page, err := ctrl.threadService.GetPostsByAuthor(c.Request.Context(), req.UserID, req.ToCursorQuery())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取作者帖子列表失败")
		return
	}

	response.RespondSuccess(c, page, "作者帖子列表获取成功")
}

// GetMyPosts 处理获取当前登录用户自己的帖子列表的 HTTP 请求。
// @Summary      获取我的帖子列表
// @Description  按 (created_at, id) 降序游标分页返回当前登录用户的帖子。用户身份来自网关透传。
// @Tags         threads (帖子)
// @Produce      json
// @Param        lastCreatedAt query string false "上一页最后一条的创建时间 (RFC3339)" format(date-time)
// @Param        lastPostId query uint64 false "上一页最后一条的帖子 ID" minimum(1)
// @Param        pageSize query int true "每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.CursorPageResponseWrapper "列表获取成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的查询参数"
// @Failure      401 {object} vo.EmptyResponseWrapper "用户未授权"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/posts/mine [get]
func (ctrl *ThreadController) GetMyPosts(c *gin.Context) {
	var req dto.CursorPageRequestDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	page, err := ctrl.threadService.GetPostsByAuthor(c.Request.Context(), userID, req.ToCursorQuery())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取我的帖子列表失败")
		return
	}

	response.RespondSuccess(c, page, "我的帖子列表获取成功")
}

// RegisterRoutes 注册信息流与会话串的只读查询路由。
func (ctrl *ThreadController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/feed", ctrl.GetFeed) // GET /api/v1/thread/feed

	posts := group.Group("/posts")
	{
		posts.GET("/by-author", ctrl.GetPostsByAuthor) // GET /api/v1/thread/posts/by-author
		posts.GET("/mine", ctrl.GetMyPosts)            // GET /api/v1/thread/posts/mine
		posts.GET(":post_id", ctrl.GetPostDetail)      // GET /api/v1/thread/posts/{post_id}
	}
}
