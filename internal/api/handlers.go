package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Xushengqwer/gateway/pkg/response"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchHandler 封装活动搜索相关的 API 请求处理逻辑.
type SearchHandler struct {
	searchService *service.SearchService
	logger        *core.ZapLogger
}

// NewSearchHandler 创建 SearchHandler 实例.
func NewSearchHandler(searchSvc *service.SearchService, logger *core.ZapLogger) *SearchHandler {
	if logger == nil {
		panic("NewSearchHandler: logger cannot be nil")
	}
	if searchSvc == nil {
		logger.Fatal("NewSearchHandler: SearchService 不能为 nil")
	}

	return &SearchHandler{
		searchService: searchSvc,
		logger:        logger,
	}
}

// SearchActivities 处理统一活动搜索请求
// @Summary      搜索活动
// @Description  按关键词、地理位置、标量过滤器与排序策略搜索活动，返回分页结果与查询诊断信息。
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request   body      models.SearchRequest  true  "搜索请求体"
// @Success      200       {object}  models.SwaggerSearchResultResponse "搜索成功，返回匹配的活动列表、分页与诊断信息。"
// @Failure      400       {object}  models.SwaggerErrorResponse "请求参数无效，例如坐标超出范围或日期区间颠倒。"
// @Failure      500       {object}  models.SwaggerErrorResponse "服务器内部错误，所有检索路径都不可用。"
// @Router       /api/v1/search [post]
func (h *SearchHandler) SearchActivities(c *gin.Context) {
	var req models.SearchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("请求体绑定或验证失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}
	h.logger.Debug("绑定后的搜索请求", zap.Any("request", req))

	result, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	h.logger.Info("搜索成功", zap.Int("结果数量", len(result.Activities)), zap.String("search_path", result.Meta.SearchPath))
	response.RespondSuccess(c, result, "搜索成功")
}

// GetNearbyActivities 处理 "附近的活动" 请求
// @Summary      附近的活动
// @Description  按中心点与半径返回按距离升序排列的活动列表。
// @Tags         Search
// @Produce      json
// @Param        lat     query     number  true   "中心点纬度" minimum(-90) maximum(90)
// @Param        lng     query     number  true   "中心点经度" minimum(-180) maximum(180)
// @Param        radius  query     number  false  "搜索半径（公里）" default(10)
// @Param        limit   query     int     false  "返回数量上限" default(50) minimum(1) maximum(100)
// @Success      200     {object}  models.SwaggerActivitiesResponse "成功，返回按距离排序的活动列表。"
// @Failure      400     {object}  models.SwaggerErrorResponse "请求参数无效，例如坐标超出范围或半径超限。"
// @Failure      500     {object}  models.SwaggerErrorResponse "服务器内部错误。"
// @Router       /api/v1/activities/nearby [get]
func (h *SearchHandler) GetNearbyActivities(c *gin.Context) {
	var req models.NearbyRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("附近活动请求参数绑定或验证失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}

	activities, err := h.searchService.Nearby(c.Request.Context(), &req)
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	if activities == nil {
		activities = make([]models.Activity, 0)
	}
	h.logger.Info("附近活动查询成功", zap.Int("结果数量", len(activities)))
	response.RespondSuccess(c, activities, "查询成功")
}

// GetHotSearchTerms 处理获取热门搜索词的请求
// @Summary      获取热门搜索词
// @Description  按搜索次数降序返回最热门的搜索词列表。
// @Tags         Search
// @Produce      json
// @Param        limit    query     int     false  "返回的热门搜索词数量" default(10) minimum(1) maximum(50)
// @Success      200      {object}  models.SwaggerHotSearchTermsResponse "成功，返回热门搜索词列表。"
// @Failure      500      {object}  models.SwaggerErrorResponse "服务器内部错误，无法获取热门搜索词。"
// @Router       /api/v1/search/hot-terms [get]
func (h *SearchHandler) GetHotSearchTerms(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	} else if limit > 50 {
		limit = 50
	}

	h.logger.Info("收到获取热门搜索词请求", zap.Int("limit", limit))

	terms, err := h.searchService.GetHotSearchTerms(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("服务层获取热门搜索词失败", zap.Int("limit", limit), zap.Error(err))
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取热门搜索词失败")
		return
	}

	// 空列表返回空数组而不是 null
	if terms == nil {
		terms = make([]models.HotSearchTerm, 0)
	}

	h.logger.Info("成功获取热门搜索词列表", zap.Int("count", len(terms)), zap.Int("requested_limit", limit))
	response.RespondSuccess(c, terms, "热门搜索词获取成功")
}

// HealthCheck 健康检查处理函数
// @Summary      健康检查
// @Tags         System
// @Produce      json
// @Success      200  {object}  models.SwaggerHealthCheckResponse "服务存活"
// @Router       /api/v1/search/_health [get]
func (h *SearchHandler) HealthCheck(c *gin.Context) {
	h.logger.Debug("执行存活度健康检查")
	response.RespondSuccess(c, gin.H{"status": "ok"}, "服务存活")
}

// respondSearchError 把服务层错误翻译为 HTTP 响应：
// 校验错误带字段名返回 400，其余视为内部错误返回 500。
func (h *SearchHandler) respondSearchError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		h.logger.Warn("搜索请求校验失败",
			zap.String("field", vErr.Field),
			zap.String("rule", vErr.Rule),
			zap.String("message", vErr.Message),
		)
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, vErr.Message)
		return
	}

	h.logger.Error("服务层搜索失败", zap.Error(err))
	response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "搜索服务内部错误")
}

// RegisterRoutes 将搜索相关的路由注册到提供的 Gin 路由组 (RouterGroup) 上。
func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.logger.Info("开始注册 SearchHandler 的路由...")

	rg.POST("/search", h.SearchActivities)
	h.logger.Info("路由 POST /search 已注册到 SearchHandler.SearchActivities")

	rg.GET("/activities/nearby", h.GetNearbyActivities)
	h.logger.Info("路由 GET /activities/nearby 已注册到 SearchHandler.GetNearbyActivities")

	rg.GET("/search/hot-terms", h.GetHotSearchTerms)
	h.logger.Info("路由 GET /search/hot-terms 已注册到 SearchHandler.GetHotSearchTerms")

	rg.GET("/search/_health", h.HealthCheck)
	h.logger.Info("路由 GET /search/_health 已注册到 SearchHandler.HealthCheck")

	h.logger.Info("SearchHandler 的所有路由已注册完成。")
}
