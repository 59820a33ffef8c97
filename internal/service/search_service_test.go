package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/repositories"
	"github.com/Xushengqwer/activity_search/internal/search"
)

// --- 测试用的假仓库 ---

type fakeIndexRepo struct {
	available bool
	page      *repositories.ActivityPage
	err       error

	mu      sync.Mutex
	queries []*repositories.ActivityQuery
}

func (f *fakeIndexRepo) SearchActivities(_ context.Context, q *repositories.ActivityQuery) (*repositories.ActivityPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeIndexRepo) IndexActivity(context.Context, models.EsActivityDocument) error { return nil }
func (f *fakeIndexRepo) DeleteActivity(context.Context, string) error                   { return nil }
func (f *fakeIndexRepo) Available(context.Context) bool                                 { return f.available }

type fakeScanRepo struct {
	// pages 按调用顺序依次返回，耗尽后重复最后一个。
	pages       []*repositories.ActivityPage
	err         error
	activitySug []string
	categorySug []string

	mu      sync.Mutex
	queries []*repositories.ActivityQuery
	logged  []*models.SearchAnalyticsEvent
}

func (f *fakeScanRepo) SearchActivities(_ context.Context, q *repositories.ActivityQuery) (*repositories.ActivityPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	call := len(f.queries)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if call <= len(f.pages) {
		return f.pages[call-1], nil
	}
	return f.pages[len(f.pages)-1], nil
}

func (f *fakeScanRepo) SuggestActivityNames(context.Context, string, int) ([]string, error) {
	return f.activitySug, nil
}

func (f *fakeScanRepo) SuggestCategoryNames(context.Context, string, int) ([]string, error) {
	return f.categorySug, nil
}

func (f *fakeScanRepo) LogSearch(_ context.Context, event *models.SearchAnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logged = append(f.logged, event)
	return nil
}

func (f *fakeScanRepo) loggedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logged)
}

type fakeHotTermRepo struct {
	terms []models.HotSearchTerm
	err   error

	mu             sync.Mutex
	incremented    []string
	requestedLimit int
}

func (f *fakeHotTermRepo) IncrementSearchTermCount(_ context.Context, term string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incremented = append(f.incremented, term)
	return nil
}

func (f *fakeHotTermRepo) GetHotSearchTerms(_ context.Context, limit int) ([]models.HotSearchTerm, error) {
	f.mu.Lock()
	f.requestedLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.terms, nil
}

func (f *fakeHotTermRepo) incrementedTerms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.incremented...)
}

type fakeAnalytics struct {
	mu     sync.Mutex
	events []*models.SearchAnalyticsEvent
}

func (f *fakeAnalytics) PublishSearchEvent(event *models.SearchAnalyticsEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeAnalytics) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// --- 测试装配 ---

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonConfig.ZapConfig{})
	if err != nil {
		t.Fatalf("初始化测试 Logger 失败: %v", err)
	}
	return logger
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		Envelope:             config.GeoEnvelopeConfig{MinLat: 21.8, MaxLat: 25.4, MinLng: 119.3, MaxLng: 122.1},
		MaxRadiusKm:          100,
		HotTermsDefaultLimit: 10,
	}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func singlePage(activities ...models.Activity) *repositories.ActivityPage {
	return &repositories.ActivityPage{Activities: activities, Total: int64(len(activities))}
}

func newService(t *testing.T, cfg config.SearchConfig, indexRepo repositories.ActivityIndexRepository, scanRepo *fakeScanRepo, hotRepo *fakeHotTermRepo, analytics AnalyticsPublisher) *SearchService {
	t.Helper()
	if scanRepo.pages == nil {
		scanRepo.pages = []*repositories.ActivityPage{singlePage()}
	}
	return NewSearchService(search.NewGeoFilter(cfg), indexRepo, scanRepo, hotRepo, analytics, cfg, newTestLogger(t))
}

// waitFor 轮询等待异步记录完成。
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("等待异步记录超时")
}

// --- 校验 ---

func TestSearch_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		req   models.SearchRequest
		field string
	}{
		{
			name:  "纬度越界",
			req:   models.SearchRequest{Location: &models.GeoPoint{Lat: 91, Lng: 121.5}, Radius: 5},
			field: "location.lat",
		},
		{
			name:  "中心点在覆盖范围外",
			req:   models.SearchRequest{Location: &models.GeoPoint{Lat: 35.68, Lng: 139.69}, Radius: 5},
			field: "location",
		},
		{
			name:  "半径超过上限",
			req:   models.SearchRequest{Location: &models.GeoPoint{Lat: 25.03, Lng: 121.56}, Radius: 101},
			field: "radius",
		},
		{
			name:  "边界框南北颠倒",
			req:   models.SearchRequest{Bounds: &models.GeoBounds{North: 22.0, South: 25.0, East: 122.0, West: 121.0}},
			field: "bounds",
		},
		{
			name:  "价格区间颠倒",
			req:   models.SearchRequest{Filters: &models.SearchFilters{PriceRange: &models.PriceRange{Min: ptrInt(500), Max: ptrInt(100)}}},
			field: "priceRange",
		},
		{
			name:  "质量分越界",
			req:   models.SearchRequest{Filters: &models.SearchFilters{MinQuality: ptrInt(101)}},
			field: "minQuality",
		},
		{
			name:  "日期格式非法",
			req:   models.SearchRequest{Filters: &models.SearchFilters{DateRange: &models.DateRange{Start: "2026/01/01"}}},
			field: "dateRange.start",
		},
		{
			name:  "日期区间颠倒",
			req:   models.SearchRequest{Filters: &models.SearchFilters{DateRange: &models.DateRange{Start: "2026-06-01", End: "2026-05-01"}}},
			field: "dateRange",
		},
		{
			name:  "关键词全是标点",
			req:   models.SearchRequest{Query: "!!!"},
			field: "query",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scanRepo := &fakeScanRepo{}
			svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

			_, err := svc.Search(context.Background(), &tc.req)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("期望 *models.ValidationError, 实际 %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("期望字段 %q, 实际 %q", tc.field, vErr.Field)
			}
			scanRepo.mu.Lock()
			calls := len(scanRepo.queries)
			scanRepo.mu.Unlock()
			if calls != 0 {
				t.Error("校验失败时不应执行任何检索")
			}
		})
	}
}

// --- 路径选择与降级 ---

func TestSearch_IndexedPath(t *testing.T) {
	indexRepo := &fakeIndexRepo{available: true, page: singlePage(models.Activity{ID: "a1", Name: "平溪天灯节"})}
	scanRepo := &fakeScanRepo{}
	svc := newService(t, testSearchConfig(), indexRepo, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "天灯"})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Meta.SearchPath != models.SearchPathIndexed {
		t.Errorf("期望走索引路径, 实际 %q", result.Meta.SearchPath)
	}
	scanRepo.mu.Lock()
	scanCalls := len(scanRepo.queries)
	scanRepo.mu.Unlock()
	if scanCalls != 0 {
		t.Error("索引路径成功时不应触碰扫描路径")
	}
}

func TestSearch_ScanPathWhenIndexUnavailable(t *testing.T) {
	indexRepo := &fakeIndexRepo{available: false}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(models.Activity{ID: "a1", Name: "孔庙导览"})}}
	svc := newService(t, testSearchConfig(), indexRepo, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "孔庙"})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Meta.SearchPath != models.SearchPathScan {
		t.Errorf("期望降级到扫描路径, 实际 %q", result.Meta.SearchPath)
	}
	indexRepo.mu.Lock()
	indexCalls := len(indexRepo.queries)
	indexRepo.mu.Unlock()
	if indexCalls != 0 {
		t.Error("探活失败时不应向索引路径发起查询")
	}
}

func TestSearch_FallbackOnIndexedQueryError(t *testing.T) {
	indexRepo := &fakeIndexRepo{available: true, err: errors.New("es 查询超时")}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(models.Activity{ID: "a2", Name: "环湖骑行"})}}
	svc := newService(t, testSearchConfig(), indexRepo, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "骑行"})
	if err != nil {
		t.Fatalf("索引路径失败必须静默降级, 实际错误: %v", err)
	}
	if result.Meta.SearchPath != models.SearchPathScan {
		t.Errorf("期望降级到扫描路径, 实际 %q", result.Meta.SearchPath)
	}
	if len(result.Activities) != 1 || result.Activities[0].ID != "a2" {
		t.Error("降级后应返回扫描路径的结果")
	}
}

func TestSearch_ErrorWhenBothPathsFail(t *testing.T) {
	scanRepo := &fakeScanRepo{err: errors.New("数据库连接失败")}
	scanRepo.pages = []*repositories.ActivityPage{singlePage()}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	_, err := svc.Search(context.Background(), &models.SearchRequest{Query: "温泉"})
	if err == nil {
		t.Fatal("兜底的扫描路径失败时必须返回错误")
	}
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		t.Error("执行错误不应被当作校验错误")
	}
}

// --- 分页 ---

func TestSearch_PaginationMath(t *testing.T) {
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{{Activities: nil, Total: 95}}}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Page: 0, Limit: 20})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Pagination.Page != 1 {
		t.Errorf("页码 0 应被钳制为 1, 实际 %d", result.Pagination.Page)
	}
	if result.Pagination.TotalPages != 5 {
		t.Errorf("95 条按 20 条/页应为 5 页, 实际 %d", result.Pagination.TotalPages)
	}

	result, err = svc.Search(context.Background(), &models.SearchRequest{Page: 1, Limit: 500})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Pagination.Limit != 100 {
		t.Errorf("每页大小应被钳制到 100, 实际 %d", result.Pagination.Limit)
	}
}

// --- 距离标注 ---

func TestSearch_DistanceAnnotation(t *testing.T) {
	withCoord := models.Activity{
		ID:   "a1",
		Name: "台北车站附近展览",
		Location: &models.Location{
			City: "台北市", Region: models.RegionNorth,
			Latitude: ptrFloat(25.0478), Longitude: ptrFloat(121.5170),
		},
	}
	noCoord := models.Activity{
		ID:       "a2",
		Name:     "线上讲座",
		Location: &models.Location{City: "台北市", Region: models.RegionNorth},
	}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(withCoord, noCoord)}}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{
		Location: &models.GeoPoint{Lat: 25.0340, Lng: 121.5645},
		Radius:   10,
	})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if !result.Meta.HasLocationFilter {
		t.Error("空间搜索的 hasLocationFilter 应为 true")
	}

	got := result.Activities[0].DistanceKm
	if got == nil {
		t.Fatal("有坐标的活动应被标注距离")
	}
	// 台北 101 到台北车站约 5 公里
	if *got < 4.0 || *got > 6.0 {
		t.Errorf("距离标注明显异常: %.2f 公里", *got)
	}
	if result.Activities[1].DistanceKm != nil {
		t.Error("坐标缺失的活动不应被标注距离")
	}
}

func TestSearch_NoDistanceWithoutLocation(t *testing.T) {
	withCoord := models.Activity{
		ID:       "a1",
		Name:     "展览",
		Location: &models.Location{Latitude: ptrFloat(25.0), Longitude: ptrFloat(121.5)},
	}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(withCoord)}}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "展览"})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Activities[0].DistanceKm != nil {
		t.Error("非空间搜索不应标注距离")
	}
	if result.Meta.HasLocationFilter {
		t.Error("非空间搜索的 hasLocationFilter 应为 false")
	}
}

// --- 高亮 ---

func TestSearch_Highlight(t *testing.T) {
	act := models.Activity{ID: "a1", Name: "平溪天灯节", Description: "天灯施放活动"}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(act)}}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "天灯", Highlight: true})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	hl := result.Activities[0].Highlight
	if hl == nil {
		t.Fatal("命中关键词时应生成高亮副本")
	}
	if hl.Name != "平溪<mark>天灯</mark>节" {
		t.Errorf("高亮结果不符: %q", hl.Name)
	}
	if result.Activities[0].Name != "平溪天灯节" {
		t.Error("原字段必须保持原文")
	}
}

// --- 空结果建议 ---

func TestSearch_SuggestionsOnEmptyResult(t *testing.T) {
	scanRepo := &fakeScanRepo{
		pages:       []*repositories.ActivityPage{singlePage()},
		activitySug: []string{"平溪天灯节", "天灯 DIY 体验"},
	}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "天燈祭"})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if len(result.Meta.Suggestions) != 2 {
		t.Fatalf("期望 2 条活动名建议, 实际 %v", result.Meta.Suggestions)
	}
}

func TestSearch_SuggestionsFallBackToCategories(t *testing.T) {
	scanRepo := &fakeScanRepo{
		pages:       []*repositories.ActivityPage{singlePage()},
		categorySug: []string{"节庆活动"},
	}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{Query: "不存在的关键词"})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if len(result.Meta.Suggestions) != 1 || result.Meta.Suggestions[0] != "节庆活动" {
		t.Errorf("活动名建议为空时应退到分类名, 实际 %v", result.Meta.Suggestions)
	}
}

func TestSearch_NoSuggestionsWithoutQuery(t *testing.T) {
	scanRepo := &fakeScanRepo{
		pages:       []*repositories.ActivityPage{singlePage()},
		activitySug: []string{"不该出现"},
	}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Meta.Suggestions != nil {
		t.Error("无关键词的空结果不应生成建议")
	}
}

// --- 空结果放宽重查 ---

func TestSearch_WidenOnEmpty(t *testing.T) {
	cfg := testSearchConfig()
	cfg.WidenOnEmpty = true

	hit := models.Activity{
		ID:       "a1",
		Name:     "远一点的活动",
		Location: &models.Location{Latitude: ptrFloat(24.80), Longitude: ptrFloat(121.0)},
	}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(), singlePage(hit)}}
	svc := newService(t, cfg, nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{
		Location: &models.GeoPoint{Lat: 25.03, Lng: 121.56},
		Radius:   5,
	})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if !result.Meta.Widened {
		t.Fatal("放宽重查命中后 meta.widened 应为 true")
	}
	if len(result.Activities) != 1 {
		t.Fatalf("应返回放宽后的命中, 实际 %d 条", len(result.Activities))
	}
	if result.Activities[0].DistanceKm == nil {
		t.Error("放宽后的结果仍应标注到原中心点的距离")
	}

	scanRepo.mu.Lock()
	defer scanRepo.mu.Unlock()
	if len(scanRepo.queries) != 2 {
		t.Fatalf("期望两次检索（原始 + 放宽）, 实际 %d 次", len(scanRepo.queries))
	}
	widenedQ := scanRepo.queries[1]
	if widenedQ.Geo == nil || widenedQ.Geo.Center == nil {
		t.Fatal("放宽重查必须保留中心点")
	}
	if widenedQ.Geo.RadiusKm != 0 {
		t.Errorf("放宽重查应去掉半径约束, 实际 %.1f", widenedQ.Geo.RadiusKm)
	}
	if widenedQ.Sort != search.SortDistance {
		t.Errorf("放宽重查应按距离排序, 实际 %q", widenedQ.Sort)
	}
	if widenedQ.GeoBox != nil {
		t.Error("放宽重查不应保留矩形粗过滤范围")
	}
}

func TestSearch_WidenDisabledByDefault(t *testing.T) {
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage()}}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	result, err := svc.Search(context.Background(), &models.SearchRequest{
		Location: &models.GeoPoint{Lat: 25.03, Lng: 121.56},
		Radius:   5,
	})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if result.Meta.Widened {
		t.Error("未开启 widenOnEmpty 时不应放宽重查")
	}
	scanRepo.mu.Lock()
	defer scanRepo.mu.Unlock()
	if len(scanRepo.queries) != 1 {
		t.Errorf("期望只检索一次, 实际 %d 次", len(scanRepo.queries))
	}
}

func TestSearch_NoWidenForBounds(t *testing.T) {
	cfg := testSearchConfig()
	cfg.WidenOnEmpty = true
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage()}}
	svc := newService(t, cfg, nil, scanRepo, &fakeHotTermRepo{}, nil)

	_, err := svc.Search(context.Background(), &models.SearchRequest{
		Bounds: &models.GeoBounds{North: 25.2, South: 24.9, East: 121.7, West: 121.4},
	})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	scanRepo.mu.Lock()
	defer scanRepo.mu.Unlock()
	if len(scanRepo.queries) != 1 {
		t.Error("显式边界框的空结果不应触发放宽重查")
	}
}

// --- 异步记录 ---

func TestSearch_RecordsTermLogAndAnalytics(t *testing.T) {
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(models.Activity{ID: "a1", Name: "夜市美食之旅"})}}
	hotRepo := &fakeHotTermRepo{}
	analytics := &fakeAnalytics{}
	svc := newService(t, testSearchConfig(), nil, scanRepo, hotRepo, analytics)

	_, err := svc.Search(context.Background(), &models.SearchRequest{Query: "  夜市 Food  "})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}

	waitFor(t, func() bool {
		return len(hotRepo.incrementedTerms()) > 0 && scanRepo.loggedCount() > 0 && analytics.count() > 0
	})

	terms := hotRepo.incrementedTerms()
	if terms[0] != "夜市 food" {
		t.Errorf("热门搜索词应为归一化后的小写词条, 实际 %q", terms[0])
	}

	scanRepo.mu.Lock()
	event := scanRepo.logged[0]
	scanRepo.mu.Unlock()
	if event.ResultCount != 1 {
		t.Errorf("分析事件的命中数不符, 实际 %d", event.ResultCount)
	}
	if event.SearchPath != models.SearchPathScan {
		t.Errorf("分析事件的检索路径不符, 实际 %q", event.SearchPath)
	}
	if event.Fingerprint == "" {
		t.Error("分析事件应携带请求指纹")
	}
}

func TestSearch_NoHotTermWithoutQuery(t *testing.T) {
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(models.Activity{ID: "a1", Name: "活动"})}}
	hotRepo := &fakeHotTermRepo{}
	svc := newService(t, testSearchConfig(), nil, scanRepo, hotRepo, nil)

	_, err := svc.Search(context.Background(), &models.SearchRequest{})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}

	// 无关键词时仍会写搜索日志，但不应递增热门词计数
	waitFor(t, func() bool { return scanRepo.loggedCount() > 0 })
	if len(hotRepo.incrementedTerms()) != 0 {
		t.Error("无关键词的搜索不应递增热门词计数")
	}
}

// --- Nearby 与热门搜索词 ---

func TestNearby(t *testing.T) {
	act := models.Activity{
		ID:       "a1",
		Name:     "附近的展览",
		Location: &models.Location{Latitude: ptrFloat(25.04), Longitude: ptrFloat(121.52)},
	}
	scanRepo := &fakeScanRepo{pages: []*repositories.ActivityPage{singlePage(act)}}
	svc := newService(t, testSearchConfig(), nil, scanRepo, &fakeHotTermRepo{}, nil)

	activities, err := svc.Nearby(context.Background(), &models.NearbyRequest{Lat: 25.03, Lng: 121.56, Radius: 10, Limit: 50})
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("期望 1 条结果, 实际 %d", len(activities))
	}
	if activities[0].DistanceKm == nil {
		t.Error("附近的活动应携带距离标注")
	}

	scanRepo.mu.Lock()
	defer scanRepo.mu.Unlock()
	q := scanRepo.queries[0]
	if q.Sort != search.SortDistance {
		t.Errorf("附近的活动应按距离排序, 实际 %q", q.Sort)
	}
	if q.Page != 1 {
		t.Errorf("附近的活动应固定取第一页, 实际 %d", q.Page)
	}
}

func TestGetHotSearchTerms_DefaultLimit(t *testing.T) {
	hotRepo := &fakeHotTermRepo{terms: []models.HotSearchTerm{{Term: "天灯", Count: 42}}}
	scanRepo := &fakeScanRepo{}
	svc := newService(t, testSearchConfig(), nil, scanRepo, hotRepo, nil)

	terms, err := svc.GetHotSearchTerms(context.Background(), 0)
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if len(terms) != 1 {
		t.Fatalf("期望 1 条热门词, 实际 %d", len(terms))
	}
	hotRepo.mu.Lock()
	defer hotRepo.mu.Unlock()
	if hotRepo.requestedLimit != 10 {
		t.Errorf("limit 非法时应使用配置默认值 10, 实际 %d", hotRepo.requestedLimit)
	}
}

func TestGetHotSearchTerms_Error(t *testing.T) {
	hotRepo := &fakeHotTermRepo{err: errors.New("es 不可用")}
	svc := newService(t, testSearchConfig(), nil, &fakeScanRepo{}, hotRepo, nil)

	if _, err := svc.GetHotSearchTerms(context.Background(), 5); err == nil {
		t.Fatal("仓库层失败时应返回错误")
	}
}
