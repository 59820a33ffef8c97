package search

import "github.com/Xushengqwer/activity_search/internal/models"

// SortStrategy 是排序策略枚举。
type SortStrategy string

const (
	SortRelevance  SortStrategy = "relevance"
	SortDistance   SortStrategy = "distance"
	SortPopularity SortStrategy = "popularity"
	SortQuality    SortStrategy = "quality"
	SortDate       SortStrategy = "date"
)

// ParseSortStrategy 解析请求中的排序字段，未知或缺省时回退到 relevance。
func ParseSortStrategy(s string) SortStrategy {
	switch SortStrategy(s) {
	case SortDistance, SortPopularity, SortQuality, SortDate:
		return SortStrategy(s)
	default:
		return SortRelevance
	}
}

// OrderKey 是扫描路径 ORDER BY 序列中的一项。
// Expr 引用数据查询里的列或别名（relevance_score / distance_km 等）。
type OrderKey struct {
	Expr string
	Desc bool
}

// SQLOrder 按策略产出扫描路径的 ORDER BY 序列。
// 每个策略都以 a.id ASC 收尾，保证全序确定、翻页在数据不变时稳定，
// 绝不依赖存储顺序。
//   - relevance：有关键词时按加权得分降序，否则退化为质量分降序 + 创建时间降序；
//   - distance：无空间过滤时退化为质量分降序；
//   - 其余策略与次级键见各分支。
func (s SortStrategy) SQLOrder(hasQuery, hasGeo bool) []OrderKey {
	var keys []OrderKey
	switch s {
	case SortDistance:
		if hasGeo {
			keys = []OrderKey{{Expr: "distance_km"}, {Expr: "a.quality_score", Desc: true}}
		} else {
			keys = []OrderKey{{Expr: "a.quality_score", Desc: true}}
		}
	case SortPopularity:
		keys = []OrderKey{{Expr: "a.popularity_score", Desc: true}, {Expr: "a.quality_score", Desc: true}}
	case SortQuality:
		keys = []OrderKey{{Expr: "a.quality_score", Desc: true}, {Expr: "a.popularity_score", Desc: true}}
	case SortDate:
		keys = []OrderKey{{Expr: "t.start_date"}, {Expr: "a.quality_score", Desc: true}}
	default: // relevance
		if hasQuery {
			keys = []OrderKey{{Expr: "relevance_score", Desc: true}, {Expr: "a.quality_score", Desc: true}}
		} else {
			keys = []OrderKey{{Expr: "a.quality_score", Desc: true}, {Expr: "a.created_at", Desc: true}}
		}
	}
	return append(keys, OrderKey{Expr: "a.id"})
}

// ESSort 按策略产出索引路径的 sort 子句，语义与 SQLOrder 对齐：
// relevance 用 ES 原生 _score，distance 用 _geo_distance，
// 同样以 id 升序收尾保证确定性。
func (s SortStrategy) ESSort(hasQuery bool, center *models.GeoPoint) []interface{} {
	var sorts []interface{}
	switch s {
	case SortDistance:
		if center != nil {
			sorts = append(sorts, map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"coordinate": map[string]interface{}{"lat": center.Lat, "lon": center.Lng},
					"order":      "asc",
					"unit":       "km",
				},
			})
			sorts = append(sorts, descOn("quality_score"))
		} else {
			sorts = append(sorts, descOn("quality_score"))
		}
	case SortPopularity:
		sorts = append(sorts, descOn("popularity_score"), descOn("quality_score"))
	case SortQuality:
		sorts = append(sorts, descOn("quality_score"), descOn("popularity_score"))
	case SortDate:
		sorts = append(sorts,
			map[string]interface{}{"start_date": map[string]interface{}{"order": "asc", "missing": "_last"}},
			descOn("quality_score"))
	default: // relevance
		if hasQuery {
			sorts = append(sorts,
				map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
				descOn("quality_score"))
		} else {
			sorts = append(sorts, descOn("quality_score"), descOn("created_at"))
		}
	}
	return append(sorts, map[string]interface{}{"id": map[string]interface{}{"order": "asc"}})
}

func descOn(field string) map[string]interface{} {
	return map[string]interface{}{field: map[string]interface{}{"order": "desc"}}
}
