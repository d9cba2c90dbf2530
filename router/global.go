package router

import (
	"net/http"
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	appConfig "github.com/Xushengqwer/thread_service/config"
	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/controller"
)

// SetupRouter 仅负责配置 Gin 引擎、中间件和路由注册。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *appConfig.ThreadConfig,
	postController *controller.PostController,
	threadController *controller.ThreadController,
	postAdminController *controller.PostAdminController,
) *gin.Engine {
	logger.Info("开始设置 Gin 路由...")

	// 使用 gin.New() 而不是 gin.Default()，Recovery 与访问日志由公共中间件接管。
	router := gin.New()

	// 1. OTel Middleware (最先，处理追踪上下文和 Span)
	router.Use(otelgin.Middleware(constant.ServiceName))

	// 2. Panic Recovery (捕获后续中间件和 handler 的 panic)
	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))

	// 3. Request Logger (记录访问日志，需要 TraceID)
	if baseLogger := logger.Logger(); baseLogger != nil {
		router.Use(commonMiddleware.RequestLoggerMiddleware(baseLogger))
	} else {
		logger.Warn("无法获取底层的 *zap.Logger，跳过 RequestLoggerMiddleware 注册")
	}

	// 4. Request Timeout (超时控制)
	requestTimeout := time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))

	// 5. User Context (提取网关透传的用户信息)
	router.Use(commonMiddleware.UserContextMiddleware())

	logger.Debug("已注册全局中间件")

	// --- 创建 API 版本分组 ---
	v1 := router.Group("/api/v1/thread")

	// --- 注册控制器路由 ---
	threadController.RegisterRoutes(v1)
	postController.RegisterRoutes(v1)
	postAdminController.RegisterRoutes(v1)
	logger.Info("所有控制器路由已注册到 /api/v1/thread 分组")

	// --- Swagger UI ---
	swaggerURL := ginSwagger.URL("/swagger/doc.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	logger.Info("Swagger UI endpoint registered at /swagger/*any")

	// --- 健康检查 ---
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	logger.Info("Gin 路由器设置完成")
	return router
}
