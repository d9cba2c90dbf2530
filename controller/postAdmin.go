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

// PostAdminController 处理管理端的帖子审核与条件查询请求。
type PostAdminController struct {
	postAdminService service.PostAdminService
}

// NewPostAdminController 构造函数，用于创建 PostAdminController 实例
func NewPostAdminController(postAdminService service.PostAdminService) *PostAdminController {
	return &PostAdminController{
		postAdminService: postAdminService,
	}
}

// AuditPost 处理管理员审核帖子的 HTTP 请求。
// @Summary      审核帖子
// @Description  管理员更新帖子的审核状态（0=待审核, 1=通过, 2=拒绝），可附带原因。
// @Tags         post-admin (管理员-帖子)
// @Accept       json
// @Produce      json
// @Param        request body dto.AuditPostRequest true "审核请求"
// @Success      200 {object} vo.EmptyResponseWrapper "审核成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的请求负载"
// @Failure      404 {object} vo.EmptyResponseWrapper "帖子不存在或已被删除"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/admin/posts/audit [post]
func (ctrl *PostAdminController) AuditPost(c *gin.Context) {
	var req dto.AuditPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}

	if err := ctrl.postAdminService.AuditPost(c.Request.Context(), &req); err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "帖子不存在或已被删除")
			return
		}
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "审核帖子失败")
		return
	}

	response.RespondSuccess[any](c, nil, "帖子审核成功")
}

// ListPostsByCondition 处理管理员按条件分页查询帖子的 HTTP 请求。
// @Summary      管理员条件查询帖子列表
// @Description  支持按 ID、作者、内容、状态等条件分页查询，结果包含墓碑帖。
// @Tags         post-admin (管理员-帖子)
// @Produce      json
// @Param        id query uint64 false "帖子 ID（按主键查询）"
// @Param        author_id query string false "作者 ID 精确匹配"
// @Param        author_username query string false "作者用户名模糊匹配"
// @Param        content query string false "内容模糊匹配"
// @Param        status query int false "审核状态 (0=待审核, 1=通过, 2=拒绝)" Enums(0, 1, 2)
// @Param        only_root query bool false "仅查询根帖"
// @Param        order_by query string false "排序字段 (created_at 或 updated_at)" Enums(created_at, updated_at)
// @Param        order_desc query bool false "是否降序"
// @Param        page query int true "页码 (从 1 开始)" minimum(1)
// @Param        page_size query int true "每页大小" minimum(1)
// @Success      200 {object} vo.OffsetPageResponseWrapper "查询成功"
// @Failure      400 {object} vo.EmptyResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.EmptyResponseWrapper "服务器内部错误"
// @Router       /api/v1/thread/admin/posts [get]
func (ctrl *PostAdminController) ListPostsByCondition(c *gin.Context) {
	var req dto.ListPostsByConditionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}

	page, err := ctrl.postAdminService.ListPostsByCondition(c.Request.Context(), &req)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "查询帖子列表失败")
		return
	}

	response.RespondSuccess(c, page, "帖子列表查询成功")
}

// RegisterRoutes 注册管理端帖子相关的路由。
func (ctrl *PostAdminController) RegisterRoutes(group *gin.RouterGroup) {
	adminPosts := group.Group("/admin/posts")
	{
		adminPosts.POST("/audit", ctrl.AuditPost)     // POST /api/v1/thread/admin/posts/audit
		adminPosts.GET("", ctrl.ListPostsByCondition) // GET /api/v1/thread/admin/posts
	}
}
