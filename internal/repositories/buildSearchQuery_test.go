package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/search"
)

func mustQuery(t *testing.T, q *ActivityQuery) map[string]interface{} {
	t.Helper()
	raw, err := buildActivitySearchQuery(q)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return parsed
}

func textQuery(t *testing.T, raw string) search.TextQuery {
	t.Helper()
	q, err := search.PreprocessQuery(raw)
	require.NoError(t, err)
	return q
}

func TestBuildActivitySearchQuery_Pagination(t *testing.T) {
	parsed := mustQuery(t, &ActivityQuery{Sort: search.SortRelevance, Page: 3, Limit: 10})
	assert.EqualValues(t, 20, parsed["from"])
	assert.EqualValues(t, 10, parsed["size"])
	assert.Equal(t, true, parsed["track_total_hits"])
}

func TestBuildActivitySearchQuery_MatchAllWithoutText(t *testing.T) {
	parsed := mustQuery(t, &ActivityQuery{Sort: search.SortQuality, Page: 1, Limit: 20})
	boolQuery := parsed["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].(map[string]interface{})
	assert.Contains(t, must, "match_all")
}

func TestBuildActivitySearchQuery_MultiMatchBoosts(t *testing.T) {
	q := &ActivityQuery{Text: textQuery(t, "夜市"), Sort: search.SortRelevance, Page: 1, Limit: 20}
	parsed := mustQuery(t, q)

	boolQuery := parsed["query"].(map[string]interface{})["bool"].(map[string]interface{})
	mm := boolQuery["must"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "夜市", mm["query"])

	fields := mm["fields"].([]interface{})
	assert.Contains(t, fields, "name^10")
	assert.Contains(t, fields, "description^5")
	assert.Contains(t, fields, "summary^3")
	assert.Contains(t, fields, "category_names^2")
}

func TestBuildActivitySearchQuery_StatusFilterAlwaysPresent(t *testing.T) {
	parsed := mustQuery(t, &ActivityQuery{Sort: search.SortRelevance, Page: 1, Limit: 20})
	boolQuery := parsed["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]interface{})
	require.NotEmpty(t, filters)

	first := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "active", first["status"])
}

func TestBuildActivitySearchQuery_ScalarFilters(t *testing.T) {
	minQuality := 60
	minPrice := 0
	q := &ActivityQuery{
		Filters: &models.SearchFilters{
			Categories: []string{"cuisine"},
			Regions:    []string{"north"},
			MinQuality: &minQuality,
			PriceRange: &models.PriceRange{Min: &minPrice},
			DateRange:  &models.DateRange{Start: "2026-09-01", End: "2026-09-30"},
		},
		Sort: search.SortRelevance, Page: 1, Limit: 20,
	}
	parsed := mustQuery(t, q)
	raw, _ := json.Marshal(parsed)
	body := string(raw)

	assert.Contains(t, body, `"category_slugs":["cuisine"]`)
	assert.Contains(t, body, `"region":["north"]`)
	assert.Contains(t, body, `"quality_score"`)
	// 区间重叠：end_date 缺失的长期活动也要命中
	assert.Contains(t, body, `"must_not"`)
	assert.Contains(t, body, `"start_date":{"lte":"2026-09-30"}`)
}

func TestBuildActivitySearchQuery_GeoDistance(t *testing.T) {
	q := &ActivityQuery{
		Geo:  &search.GeoQuery{Center: &models.GeoPoint{Lat: 25.033, Lng: 121.565}, RadiusKm: 5},
		Sort: search.SortDistance, Page: 1, Limit: 20,
	}
	parsed := mustQuery(t, q)
	boolQuery := parsed["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]interface{})

	var geoFilter map[string]interface{}
	for _, f := range filters {
		if gd, ok := f.(map[string]interface{})["geo_distance"]; ok {
			geoFilter = gd.(map[string]interface{})
		}
	}
	require.NotNil(t, geoFilter, "中心点+半径查询应产出 geo_distance 过滤")
	assert.Contains(t, geoFilter["distance"], "km")

	// 排序以 _geo_distance 开头
	sorts := parsed["sort"].([]interface{})
	first := sorts[0].(map[string]interface{})
	assert.Contains(t, first, "_geo_distance")
}

func TestBuildActivitySearchQuery_GeoBoundingBox(t *testing.T) {
	q := &ActivityQuery{
		Geo: &search.GeoQuery{Bounds: &models.GeoBounds{
			North: 25.1, South: 24.95, East: 121.65, West: 121.48,
		}},
		Sort: search.SortQuality, Page: 1, Limit: 20,
	}
	parsed := mustQuery(t, q)
	raw, _ := json.Marshal(parsed)
	assert.Contains(t, string(raw), "geo_bounding_box")
}

func TestBuildActivitySearchQuery_SortEndsWithID(t *testing.T) {
	for _, s := range []search.SortStrategy{
		search.SortRelevance, search.SortDistance, search.SortPopularity, search.SortQuality, search.SortDate,
	} {
		parsed := mustQuery(t, &ActivityQuery{Sort: s, Page: 1, Limit: 20})
		sorts := parsed["sort"].([]interface{})
		last := sorts[len(sorts)-1].(map[string]interface{})
		assert.Contains(t, last, "id", "策略 %s 的排序必须以 id 收尾", s)
	}
}
