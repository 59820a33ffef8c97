package router

import (
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/constants"
	_ "github.com/Xushengqwer/activity_search/docs" // swagger 文档注册
	"github.com/Xushengqwer/activity_search/internal/api"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// SetupRouter 初始化并配置 Gin 引擎，为活动搜索服务注册所有中间件和路由。
// 中间件按顺序注册：OTel 追踪 → Panic 恢复 → 请求日志 → 请求超时；
// 业务路由统一挂在 /api/v1 分组下，另有独立的 Swagger UI 路由。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *config.ActivitySearchConfig,
	searchHandler *api.SearchHandler,
) *gin.Engine {
	logger.Info("开始为活动搜索服务设置 Gin 路由...")

	router := gin.Default()

	// OpenTelemetry 中间件放在最前面
	router.Use(otelgin.Middleware(constants.ServiceName))
	logger.Info("OpenTelemetry (OTel) 中间件已注册。", zap.String("service_name", constants.ServiceName))

	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))
	logger.Info("全局错误处理 (Panic Recovery) 中间件已注册。")

	if baseLogger := logger.Logger(); baseLogger != nil {
		router.Use(commonMiddleware.RequestLoggerMiddleware(baseLogger))
		logger.Info("请求日志中间件已注册。")
	} else {
		logger.Warn("无法获取底层的 *zap.Logger 实例，跳过请求日志中间件的注册。")
	}

	var requestTimeout time.Duration
	if cfg.Server.RequestTimeout > 0 {
		requestTimeout = cfg.Server.RequestTimeout
		logger.Info("从配置文件中加载请求超时设置。", zap.Duration("configured_timeout", requestTimeout))
	} else {
		logger.Warn("配置文件中的请求超时 (server.requestTimeout) 无效或未设置，将使用默认超时10秒。",
			zap.Duration("parsed_duration_from_config", cfg.Server.RequestTimeout),
		)
		requestTimeout = 10 * time.Second
	}
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))
	logger.Info("请求超时中间件已注册。", zap.Duration("timeout_duration", requestTimeout))

	apiV1Group := router.Group("/api/v1")
	logger.Info("API 路由将统一注册到基础路径 /api/v1 分组下。")

	if searchHandler != nil {
		searchHandler.RegisterRoutes(apiV1Group)
		logger.Info("SearchHandler 的相关路由已成功注册到 /api/v1 分组。")
	} else {
		logger.Error("SearchHandler 实例为 nil，其 API 路由无法注册！")
		panic("致命错误：SearchHandler 未初始化，无法注册 API 路由。")
	}

	logger.Info("所有业务相关的 API 路由已注册完成。")

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logger.Info("Swagger UI 路由已注册。可以通过 /swagger/index.html 访问 API 文档。")

	logger.Info("活动搜索服务的 Gin 路由设置已全部完成。")
	return router
}
