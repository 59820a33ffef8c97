package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/repositories"
	"github.com/Xushengqwer/activity_search/internal/search"
	"github.com/Xushengqwer/activity_search/internal/service"

	"github.com/gin-gonic/gin"
)

type stubScanRepo struct {
	page *repositories.ActivityPage
	err  error
}

func (s *stubScanRepo) SearchActivities(context.Context, *repositories.ActivityQuery) (*repositories.ActivityPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func (s *stubScanRepo) SuggestActivityNames(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (s *stubScanRepo) SuggestCategoryNames(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (s *stubScanRepo) LogSearch(context.Context, *models.SearchAnalyticsEvent) error { return nil }

type stubHotTermRepo struct {
	terms []models.HotSearchTerm
}

func (s *stubHotTermRepo) IncrementSearchTermCount(context.Context, string) error { return nil }

func (s *stubHotTermRepo) GetHotSearchTerms(context.Context, int) ([]models.HotSearchTerm, error) {
	return s.terms, nil
}

func setupTestRouter(t *testing.T, scanRepo *stubScanRepo, hotRepo *stubHotTermRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := core.NewZapLogger(commonConfig.ZapConfig{})
	if err != nil {
		t.Fatalf("初始化测试 Logger 失败: %v", err)
	}

	cfg := config.SearchConfig{
		Envelope:             config.GeoEnvelopeConfig{MinLat: 21.8, MaxLat: 25.4, MinLng: 119.3, MaxLng: 122.1},
		MaxRadiusKm:          100,
		HotTermsDefaultLimit: 10,
	}
	if scanRepo.page == nil {
		scanRepo.page = &repositories.ActivityPage{}
	}

	svc := service.NewSearchService(search.NewGeoFilter(cfg), nil, scanRepo, hotRepo, nil, cfg, logger)
	handler := NewSearchHandler(svc, logger)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestSearchActivities_OK(t *testing.T) {
	scanRepo := &stubScanRepo{page: &repositories.ActivityPage{
		Activities: []models.Activity{{ID: "a1", Name: "平溪天灯节", Status: models.StatusActive}},
		Total:      1,
	}}
	router := setupTestRouter(t, scanRepo, &stubHotTermRepo{})

	body := bytes.NewBufferString(`{"query": "天灯", "page": 1, "limit": 20}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d, 响应: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "平溪天灯节") {
		t.Error("响应应包含命中的活动名")
	}
	if !strings.Contains(rec.Body.String(), `"searchPath":"scan"`) {
		t.Errorf("响应应携带实际走的检索路径, 响应: %s", rec.Body.String())
	}
}

func TestSearchActivities_InvalidJSON(t *testing.T) {
	router := setupTestRouter(t, &stubScanRepo{}, &stubHotTermRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{不是json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("非法 JSON 应返回 400, 实际 %d", rec.Code)
	}
}

func TestSearchActivities_ValidationErrorMapsTo400(t *testing.T) {
	router := setupTestRouter(t, &stubScanRepo{}, &stubHotTermRepo{})

	// 半径超过上限，由服务层校验拒绝
	body := bytes.NewBufferString(`{"location": {"lat": 25.03, "lng": 121.56}, "radius": 500}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("校验错误应返回 400, 实际 %d, 响应: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "半径") {
		t.Error("响应应携带面向调用方的校验错误描述")
	}
}

func TestSearchActivities_ServiceErrorMapsTo500(t *testing.T) {
	scanRepo := &stubScanRepo{err: context.DeadlineExceeded}
	scanRepo.page = &repositories.ActivityPage{}
	router := setupTestRouter(t, scanRepo, &stubHotTermRepo{})

	body := bytes.NewBufferString(`{"query": "温泉"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("检索路径全部失败应返回 500, 实际 %d", rec.Code)
	}
}

func TestGetNearbyActivities_MissingParams(t *testing.T) {
	router := setupTestRouter(t, &stubScanRepo{}, &stubHotTermRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/nearby", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("缺少必填坐标应返回 400, 实际 %d", rec.Code)
	}
}

func TestGetNearbyActivities_OK(t *testing.T) {
	lat, lng := 25.0478, 121.5170
	scanRepo := &stubScanRepo{page: &repositories.ActivityPage{
		Activities: []models.Activity{{
			ID:   "a1",
			Name: "台北车站附近展览",
			Location: &models.Location{
				Latitude: &lat, Longitude: &lng,
			},
		}},
		Total: 1,
	}}
	router := setupTestRouter(t, scanRepo, &stubHotTermRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/nearby?lat=25.034&lng=121.5645&radius=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d, 响应: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "distance_km") {
		t.Error("附近的活动应携带距离标注")
	}
}

func TestGetHotSearchTerms_OK(t *testing.T) {
	hotRepo := &stubHotTermRepo{terms: []models.HotSearchTerm{{Term: "天灯", Count: 42}}}
	router := setupTestRouter(t, &stubScanRepo{}, hotRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/hot-terms?limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "天灯") {
		t.Error("响应应包含热门搜索词")
	}
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t, &stubScanRepo{}, &stubHotTermRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/_health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", rec.Code)
	}
}
