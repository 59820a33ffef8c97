package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/search"
)

// buildActivitySearchQuery 根据查询描述构建 Elasticsearch 查询的 JSON 体。
// 封装了分页、排序、主查询（match_all 或 multi_match）以及过滤逻辑。
// 过滤条件一律放进 bool.filter 子句：精确匹配不参与评分，且能被 ES 高效缓存。
func buildActivitySearchQuery(q *ActivityQuery) ([]byte, error) {
	// --- 1. 分页 ---
	// 'from' 是基于 0 的偏移量，Page/Limit 在服务层已钳制，这里只做兜底。
	from := search.Offset(q.Page, q.Limit)
	if from < 0 {
		from = 0
	}

	// --- 2. 主查询 ---
	// 无关键词时用 match_all 浏览全部（配合过滤器）；
	// 有关键词时用 multi_match，字段 boost 从扫描路径的权重表派生，
	// 保证两条路径对字段的倾向一致（name 最高，venue/address/分类名最低）。
	var mainQueryDSL map[string]interface{}
	if !q.HasText() {
		mainQueryDSL = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	} else {
		mainQueryDSL = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text.Processed,
				"fields": boostedFields(),
				// best_fields: 取匹配度最高的字段得分，适合互不相关的字段。
				"type": "best_fields",
			},
		}
	}

	// --- 3. 过滤器 ---
	filters := []map[string]interface{}{
		// 基础约束：只有 active 状态的活动可被检索。
		{"term": map[string]interface{}{"status": string(models.StatusActive)}},
	}

	if f := q.Filters; f != nil {
		if len(f.Categories) > 0 {
			filters = append(filters, termsFilter("category_slugs", f.Categories))
		}
		if len(f.Regions) > 0 {
			filters = append(filters, termsFilter("region", f.Regions))
		}
		if len(f.Cities) > 0 {
			filters = append(filters, termsFilter("city", f.Cities))
		}
		if len(f.Tags) > 0 {
			filters = append(filters, termsFilter("tag_slugs", f.Tags))
		}
		if f.MinQuality != nil {
			filters = append(filters, map[string]interface{}{
				"range": map[string]interface{}{"quality_score": map[string]interface{}{"gte": *f.MinQuality}},
			})
		}
		if pr := f.PriceRange; pr != nil {
			bounds := map[string]interface{}{}
			if pr.Min != nil {
				bounds["gte"] = *pr.Min
			}
			if pr.Max != nil {
				bounds["lte"] = *pr.Max
			}
			if len(bounds) > 0 {
				filters = append(filters, map[string]interface{}{
					"range": map[string]interface{}{"price": bounds},
				})
			}
		}
		if dr := f.DateRange; dr != nil {
			filters = append(filters, dateOverlapFilter(dr)...)
		}
	}

	// 空间过滤：显式边界框用 geo_bounding_box，中心点+半径用 geo_distance。
	// 坐标缺失的文档没有 coordinate 字段，天然不命中。
	if q.Geo.IsSpatial() {
		if q.Geo.Bounds != nil {
			b := q.Geo.Bounds
			filters = append(filters, map[string]interface{}{
				"geo_bounding_box": map[string]interface{}{
					"coordinate": map[string]interface{}{
						"top_left":     map[string]interface{}{"lat": b.North, "lon": b.West},
						"bottom_right": map[string]interface{}{"lat": b.South, "lon": b.East},
					},
				},
			})
		} else if q.Geo.Center != nil && q.Geo.RadiusKm > 0 {
			// 半径为 0 表示放宽后的重查：保留中心点用于距离排序，不做半径过滤。
			filters = append(filters, map[string]interface{}{
				"geo_distance": map[string]interface{}{
					// 半径闭区间语义由 ES 的 distance <= 判定保证。
					"distance":   fmt.Sprintf("%fkm", q.Geo.RadiusKm),
					"coordinate": map[string]interface{}{"lat": q.Geo.Center.Lat, "lon": q.Geo.Center.Lng},
				},
			})
		}
	}

	// --- 4. 组合主查询与过滤器 ---
	finalQueryDSL := map[string]interface{}{
		"bool": map[string]interface{}{
			"must":   mainQueryDSL,
			"filter": filters,
		},
	}

	// --- 5. 排序 ---
	// 排序序列由 Ranker 统一产出，以 id 升序收尾保证翻页稳定。
	var center *models.GeoPoint
	if q.Geo != nil {
		center = q.Geo.Center
	}
	sortClause := q.Sort.ESSort(q.HasText(), center)

	// --- 6. 组装最终请求体 ---
	esQueryRequest := map[string]interface{}{
		"from":  from,
		"size":  q.Limit,
		"sort":  sortClause,
		"query": finalQueryDSL,
		// 确保返回精确总命中数，即使超过默认的 10000 条，
		// 否则 totalPages 会算错。
		"track_total_hits": true,
	}

	queryJSON, err := json.Marshal(esQueryRequest)
	if err != nil {
		return nil, fmt.Errorf("序列化 Elasticsearch 查询对象为 JSON 失败: %w", err)
	}
	return queryJSON, nil
}

// boostedFields 把扫描路径的权重表翻译成 multi_match 的 "field^boost" 列表。
func boostedFields() []string {
	fieldMap := map[string]string{
		"name":          "name",
		"description":   "description",
		"summary":       "summary",
		"address":       "address",
		"venue":         "venue",
		"category_name": "category_names",
	}
	fields := make([]string, 0, len(search.RelevanceWeights))
	for _, fw := range search.RelevanceWeights {
		esField, ok := fieldMap[fw.Field]
		if !ok {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s^%d", esField, fw.Weight))
	}
	return fields
}

func termsFilter(field string, values []string) map[string]interface{} {
	return map[string]interface{}{
		"terms": map[string]interface{}{field: values},
	}
}

// dateOverlapFilter 实现区间重叠语义：
// 活动区间 [start_date, end_date-或-长期] 与请求窗口 [start, end] 有交集即命中。
// end_date 缺失视为长期有效，用 bool.should 表达 "end_date >= start 或 无 end_date"。
func dateOverlapFilter(dr *models.DateRange) []map[string]interface{} {
	var filters []map[string]interface{}
	if dr.End != "" {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"start_date": map[string]interface{}{"lte": dr.End}},
		})
	}
	if dr.Start != "" {
		filters = append(filters, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{"range": map[string]interface{}{"end_date": map[string]interface{}{"gte": dr.Start}}},
					{"bool": map[string]interface{}{
						"must_not": map[string]interface{}{
							"exists": map[string]interface{}{"field": "end_date"},
						},
					}},
				},
				"minimum_should_match": 1,
			},
		})
	}
	return filters
}
