package models

// SearchRequest 定义统一搜索 API 的请求体。
// 粗粒度的枚举/范围约束交给 binding 标签，涉及多字段联动的校验
// （坐标范围、半径上限、日期先后等）在服务层做，以便返回带字段名的错误。
type SearchRequest struct {
	Query     string         `json:"query"`                                                                                 // 搜索关键词，可选
	Filters   *SearchFilters `json:"filters"`                                                                               // 标量过滤器集合，可选
	Location  *GeoPoint      `json:"location"`                                                                              // 地理中心点，可选
	Radius    float64        `json:"radius"`                                                                                // 搜索半径（公里），仅在 Location 存在时生效
	Bounds    *GeoBounds     `json:"bounds"`                                                                                // 显式边界框，与 Location+Radius 二选一
	Sorting   string         `json:"sorting" binding:"omitempty,oneof=relevance distance popularity quality date" example:"relevance"` // 排序策略，默认 relevance
	Page      int            `json:"page" example:"1"`                                                                      // 页码，小于 1 时按 1 处理
	Limit     int            `json:"limit" example:"20"`                                                                    // 每页大小，钳制到 [1,100]
	Highlight bool           `json:"highlight"`                                                                             // 是否对返回页做关键词高亮
}

// SearchFilters 是各维度的标量过滤器。
// 同一维度内的多个值取 OR，维度之间取 AND。
type SearchFilters struct {
	Categories []string    `json:"categories,omitempty"` // 分类 slug 列表
	Regions    []string    `json:"regions,omitempty"`    // 地区枚举列表
	Cities     []string    `json:"cities,omitempty"`     // 城市名列表
	Tags       []string    `json:"tags,omitempty"`       // 标签 slug 列表
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	DateRange  *DateRange  `json:"dateRange,omitempty"`
	MinQuality *int        `json:"minQuality,omitempty"` // 最低质量分（0-100）
}

// PriceRange 的 Min/Max 均可单独缺省。
type PriceRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// DateRange 按区间重叠语义过滤活动时间，日期格式 "2006-01-02"。
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// GeoPoint 是一个经纬度坐标。
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoBounds 是一个显式边界框，北纬 >= 南纬，东经 >= 西经。
type GeoBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// NearbyRequest 是 GET /activities/nearby 的查询参数。
type NearbyRequest struct {
	Lat    float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng    float64 `form:"lng" binding:"required,min=-180,max=180"`
	Radius float64 `form:"radius,default=10"` // 公里
	Limit  int     `form:"limit,default=50" binding:"omitempty,min=1,max=100"`
}

// Pagination 是响应中的分页元数据。
// 不变式：TotalPages = ceil(Total / Limit)，返回行数 <= Limit。
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// 本次请求实际走的检索路径，写入 SearchMeta.SearchPath 供观测。
const (
	SearchPathIndexed = "indexed"
	SearchPathScan    = "scan"
)

// SearchMeta 是查询诊断信息。
type SearchMeta struct {
	ProcessedQuery    string   `json:"processedQuery"`          // 预处理后的关键词
	SearchTerms       []string `json:"searchTerms"`             // 提取出的词项（最多 10 个）
	HasLocationFilter bool     `json:"hasLocationFilter"`       // 本次是否应用了空间过滤
	SearchPath        string   `json:"searchPath"`              // "indexed" 或 "scan"
	Widened           bool     `json:"widened,omitempty"`       // 空结果时是否放宽了半径约束重查
	Suggestions       []string `json:"suggestions,omitempty"`   // 空结果时的搜索建议
}

// SearchResult 定义统一搜索 API 的响应数据结构。
type SearchResult struct {
	Activities []Activity `json:"activities"`
	Pagination Pagination `json:"pagination"`
	Meta       SearchMeta `json:"meta"`
	Took       int64      `json:"took_ms,omitempty" example:"23"` // 引擎内部耗时（毫秒）
}
