package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/repositories"
	"github.com/Xushengqwer/activity_search/internal/search"

	"go.uber.org/zap"
)

// dateLayout 是过滤器中日期字段的格式。
const dateLayout = "2006-01-02"

// 空结果建议的条数：优先取活动名，取不到再取分类名。
const (
	suggestActivityLimit = 5
	suggestCategoryLimit = 3
)

// AnalyticsPublisher 把搜索分析事件发布到外部消息系统。
// 发布是 fire-and-forget 的，实现不得阻塞调用方。
type AnalyticsPublisher interface {
	PublishSearchEvent(event *models.SearchAnalyticsEvent)
}

// SearchService 封装统一活动搜索的业务逻辑。
// 它持有两条检索路径：索引路径（Elasticsearch）与扫描路径（PostgreSQL）。
// 每次请求先探测索引路径是否可用，不可用或查询失败时静默降级到扫描路径，
// 实际走的路径记录在响应的 meta.searchPath 里，调用方永远拿到合法响应。
type SearchService struct {
	geoFilter   *search.GeoFilter
	indexRepo   repositories.ActivityIndexRepository
	scanRepo    repositories.ActivityScanRepository
	hotTermRepo repositories.HotSearchTermRepository
	analytics   AnalyticsPublisher // 可为 nil，表示不向消息系统发布分析事件
	cfg         config.SearchConfig
	logger      *core.ZapLogger
}

// NewSearchService 创建 SearchService。
// indexRepo 可为 nil（纯扫描部署），scanRepo 是兜底路径、不可缺失。
func NewSearchService(
	geoFilter *search.GeoFilter,
	indexRepo repositories.ActivityIndexRepository,
	scanRepo repositories.ActivityScanRepository,
	hotTermRepo repositories.HotSearchTermRepository,
	analytics AnalyticsPublisher,
	cfg config.SearchConfig,
	logger *core.ZapLogger,
) *SearchService {
	if logger == nil {
		panic("创建 SearchService 失败：Logger 实例不能为 nil。")
	}
	if geoFilter == nil {
		logger.Fatal("创建 SearchService 失败：GeoFilter 实例不能为 nil。")
	}
	if scanRepo == nil {
		logger.Fatal("创建 SearchService 失败：ActivityScanRepository 实例不能为 nil。扫描路径是兜底路径，服务不能在没有它的情况下运行。")
	}
	if hotTermRepo == nil {
		logger.Fatal("创建 SearchService 失败：HotSearchTermRepository 实例不能为 nil。服务将无法处理热门搜索词功能。")
	}

	logger.Info("SearchService 初始化成功",
		zap.Bool("index_path_configured", indexRepo != nil),
		zap.Bool("analytics_publisher_configured", analytics != nil),
		zap.Bool("widen_on_empty", cfg.WidenOnEmpty),
	)
	return &SearchService{
		geoFilter:   geoFilter,
		indexRepo:   indexRepo,
		scanRepo:    scanRepo,
		hotTermRepo: hotTermRepo,
		analytics:   analytics,
		cfg:         cfg,
		logger:      logger,
	}
}

// Search 执行一次统一活动搜索。
// 流程：校验与归一化 → 路径选择与执行 → 空结果时按需放宽重查 →
// 距离标注与高亮 → 组装分页与诊断信息 → 异步记录分析事件。
// 校验失败返回 *models.ValidationError，两条路径都失败才返回执行错误。
func (s *SearchService) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	started := time.Now()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	// --- 校验与归一化 ---
	text, err := search.PreprocessQuery(req.Query)
	if err != nil {
		return nil, err
	}
	geo := buildGeoQuery(req)
	if err := s.geoFilter.Validate(geo); err != nil {
		return nil, err
	}
	if err := validateFilters(req.Filters); err != nil {
		return nil, err
	}
	page, limit := search.ClampPage(req.Page, req.Limit)
	sortStrategy := search.ParseSortStrategy(req.Sorting)

	fingerprint := search.Fingerprint(req)
	s.logger.Info("正在处理活动搜索请求",
		zap.String("request_fingerprint", fingerprint),
		zap.String("processed_query", text.Processed),
		zap.String("sorting", string(sortStrategy)),
		zap.Bool("spatial", geo.IsSpatial()),
		zap.Int("page", page),
		zap.Int("limit", limit),
	)

	query := &repositories.ActivityQuery{
		Text:    text,
		Geo:     geo,
		GeoBox:  s.geoFilter.BoundingBox(geo),
		Filters: req.Filters,
		Sort:    sortStrategy,
		Page:    page,
		Limit:   limit,
	}

	// --- 路径选择与执行 ---
	resultPage, path, err := s.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	// --- 空间搜索命中为空时放宽半径重查（可配置，默认关闭）---
	widened := false
	if resultPage.Total == 0 && s.cfg.WidenOnEmpty && geo != nil && geo.Center != nil && geo.Bounds == nil {
		widenedQuery := *query
		widenedQuery.Geo = &search.GeoQuery{Center: geo.Center}
		widenedQuery.GeoBox = nil
		widenedQuery.Sort = search.SortDistance
		if wp, wpath, werr := s.execute(ctx, &widenedQuery); werr == nil && wp.Total > 0 {
			s.logger.Info("空间搜索命中为空，已放宽半径约束重查",
				zap.Int64("widened_total", wp.Total))
			resultPage, path, widened = wp, wpath, true
		}
	}

	// --- 距离标注与高亮（只处理返回的这一页）---
	if geo != nil && geo.Center != nil {
		annotateDistances(resultPage.Activities, *geo.Center)
	}
	if req.Highlight && text.HasQuery() {
		search.HighlightPage(resultPage.Activities, text.Terms)
	}

	// --- 空结果建议 ---
	var suggestions []string
	if resultPage.Total == 0 && text.HasQuery() {
		suggestions = s.buildSuggestions(ctx, text.Processed)
	}

	result := &models.SearchResult{
		Activities: resultPage.Activities,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      resultPage.Total,
			TotalPages: search.TotalPages(resultPage.Total, limit),
		},
		Meta: models.SearchMeta{
			ProcessedQuery:    text.Processed,
			SearchTerms:       text.Terms,
			HasLocationFilter: geo.IsSpatial(),
			SearchPath:        path,
			Widened:           widened,
			Suggestions:       suggestions,
		},
		Took: resultPage.TookMs,
	}

	s.logger.Info("活动搜索成功完成",
		zap.Int64("total", result.Pagination.Total),
		zap.Int("returned", len(result.Activities)),
		zap.String("search_path", path),
		zap.Bool("widened", widened),
		zap.Int64("took_ms", result.Took),
	)

	// --- 异步记录：热门搜索词计数 + 分析事件 ---
	// 与请求上下文解耦，观测性失败绝不影响搜索响应。
	s.recordSearch(fingerprint, text, req.Filters, resultPage.Total, time.Since(started).Milliseconds(), path)

	return result, nil
}

// Nearby 是 "附近的活动" 的便捷入口：中心点+半径、按距离排序、单页返回。
func (s *SearchService) Nearby(ctx context.Context, req *models.NearbyRequest) ([]models.Activity, error) {
	searchReq := &models.SearchRequest{
		Location: &models.GeoPoint{Lat: req.Lat, Lng: req.Lng},
		Radius:   req.Radius,
		Sorting:  string(search.SortDistance),
		Page:     1,
		Limit:    req.Limit,
	}
	result, err := s.Search(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	return result.Activities, nil
}

// GetHotSearchTerms 检索热门搜索词列表，limit 非法时使用配置的默认条数。
func (s *SearchService) GetHotSearchTerms(ctx context.Context, limit int) ([]models.HotSearchTerm, error) {
	if limit <= 0 {
		limit = s.cfg.HotTermsDefaultLimit
	}
	s.logger.Info("服务层：正在请求获取热门搜索词列表", zap.Int("limit", limit))

	terms, err := s.hotTermRepo.GetHotSearchTerms(ctx, limit)
	if err != nil {
		s.logger.Error("调用 HotSearchTermRepository 获取热门搜索词列表失败",
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil, fmt.Errorf("获取热门搜索词列表失败 (limit: %d): %w", limit, err)
	}

	s.logger.Info("服务层：成功获取热门搜索词列表",
		zap.Int("retrieved_count", len(terms)),
		zap.Int("requested_limit", limit),
	)
	return terms, nil
}

// execute 做路径选择并执行检索。
// 索引路径先探活；探活失败或查询失败都静默降级到扫描路径，
// 只有兜底的扫描路径也失败时才把错误冒泡给调用方。
func (s *SearchService) execute(ctx context.Context, q *repositories.ActivityQuery) (*repositories.ActivityPage, string, error) {
	if s.indexRepo != nil && s.indexRepo.Available(ctx) {
		page, err := s.indexRepo.SearchActivities(ctx, q)
		if err == nil {
			return page, models.SearchPathIndexed, nil
		}
		s.logger.Warn("索引路径查询失败，本次请求降级到扫描路径",
			zap.String("processed_query", q.Text.Processed),
			zap.Error(err),
		)
	}

	page, err := s.scanRepo.SearchActivities(ctx, q)
	if err != nil {
		s.logger.Error("扫描路径查询失败，没有可用的检索路径",
			zap.String("processed_query", q.Text.Processed),
			zap.Error(err),
		)
		return nil, models.SearchPathScan, fmt.Errorf("执行搜索操作失败: %w", err)
	}
	return page, models.SearchPathScan, nil
}

// buildSuggestions 为空结果构造搜索建议：先按活动名模糊匹配，
// 一条都没有再退到分类名。建议查询失败只记日志，不影响响应。
func (s *SearchService) buildSuggestions(ctx context.Context, processed string) []string {
	names, err := s.scanRepo.SuggestActivityNames(ctx, processed, suggestActivityLimit)
	if err != nil {
		s.logger.Warn("查询活动名建议失败", zap.String("query", processed), zap.Error(err))
		return nil
	}
	if len(names) > 0 {
		return names
	}

	categories, err := s.scanRepo.SuggestCategoryNames(ctx, processed, suggestCategoryLimit)
	if err != nil {
		s.logger.Warn("查询分类名建议失败", zap.String("query", processed), zap.Error(err))
		return nil
	}
	return categories
}

// recordSearch 异步记录一次搜索：递增热门搜索词计数、写搜索日志表、
// 发布分析事件。全部 fire-and-forget，使用独立的超时上下文。
func (s *SearchService) recordSearch(fingerprint string, text search.TextQuery, filters *models.SearchFilters, total int64, durationMs int64, path string) {
	event := &models.SearchAnalyticsEvent{
		Fingerprint: fingerprint,
		Query:       text.Processed,
		Filters:     filters,
		ResultCount: total,
		DurationMs:  durationMs,
		SearchPath:  path,
		SearchedAt:  time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if text.HasQuery() {
			term := search.NormalizeTerm(text.Processed)
			if err := s.hotTermRepo.IncrementSearchTermCount(ctx, term); err != nil {
				s.logger.Warn("递增热门搜索词计数失败",
					zap.String("term", term),
					zap.Error(err),
				)
			}
		}

		if err := s.scanRepo.LogSearch(ctx, event); err != nil {
			s.logger.Warn("写入搜索日志失败", zap.Error(err))
		}

		if s.analytics != nil {
			s.analytics.PublishSearchEvent(event)
		}
	}()
}

// buildGeoQuery 把请求中的空间参数装配为 GeoQuery。
// 显式边界框优先于中心点+半径；两者都缺省返回 nil（非空间搜索）。
func buildGeoQuery(req *models.SearchRequest) *search.GeoQuery {
	if req.Bounds != nil {
		return &search.GeoQuery{Bounds: req.Bounds}
	}
	if req.Location != nil {
		return &search.GeoQuery{Center: req.Location, RadiusKm: req.Radius}
	}
	return nil
}

// validateFilters 校验标量过滤器中的多字段联动约束，
// 失败返回带字段名的 *models.ValidationError。
func validateFilters(f *models.SearchFilters) error {
	if f == nil {
		return nil
	}
	if pr := f.PriceRange; pr != nil && pr.Min != nil && pr.Max != nil && *pr.Min > *pr.Max {
		return models.NewValidationError("priceRange", "order", "价格下限不能大于上限")
	}
	if f.MinQuality != nil && (*f.MinQuality < 0 || *f.MinQuality > 100) {
		return models.NewValidationError("minQuality", "range", "最低质量分必须在 [0, 100] 之间")
	}
	if dr := f.DateRange; dr != nil {
		var start, end time.Time
		var err error
		if dr.Start != "" {
			if start, err = time.Parse(dateLayout, dr.Start); err != nil {
				return models.NewValidationError("dateRange.start", "format", "日期格式必须为 YYYY-MM-DD")
			}
		}
		if dr.End != "" {
			if end, err = time.Parse(dateLayout, dr.End); err != nil {
				return models.NewValidationError("dateRange.end", "format", "日期格式必须为 YYYY-MM-DD")
			}
		}
		if dr.Start != "" && dr.End != "" && start.After(end) {
			return models.NewValidationError("dateRange", "order", "开始日期不能晚于结束日期")
		}
	}
	return nil
}

// annotateDistances 用与过滤相同的 haversine 公式标注每个活动到中心点的
// 距离（公里，两位小数）。坐标缺失的活动不标注。
func annotateDistances(activities []models.Activity, center models.GeoPoint) {
	for i := range activities {
		loc := activities[i].Location
		if loc == nil || loc.Latitude == nil || loc.Longitude == nil {
			continue
		}
		d := search.RoundDistance(search.Haversine(center.Lat, center.Lng, *loc.Latitude, *loc.Longitude))
		activities[i].DistanceKm = &d
	}
}
