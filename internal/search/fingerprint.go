package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/Xushengqwer/activity_search/internal/models"
)

// Fingerprint 计算 SearchRequest 的稳定指纹，供外部缓存层作为键使用。
// 引擎自身无状态、不感知缓存，这里只保证：语义相同的请求（多值过滤器
// 顺序无关、page/limit 先钳制）产出相同指纹。
func Fingerprint(req *models.SearchRequest) string {
	type canonical struct {
		Query     string                `json:"q,omitempty"`
		Filters   *models.SearchFilters `json:"f,omitempty"`
		Location  *models.GeoPoint      `json:"loc,omitempty"`
		Radius    float64               `json:"r,omitempty"`
		Bounds    *models.GeoBounds     `json:"b,omitempty"`
		Sorting   string                `json:"s"`
		Page      int                   `json:"p"`
		Limit     int                   `json:"l"`
		Highlight bool                  `json:"hl,omitempty"`
	}

	page, limit := ClampPage(req.Page, req.Limit)
	c := canonical{
		Query:     NormalizeTerm(req.Query),
		Filters:   sortedFilters(req.Filters),
		Location:  req.Location,
		Radius:    req.Radius,
		Bounds:    req.Bounds,
		Sorting:   string(ParseSortStrategy(req.Sorting)),
		Page:      page,
		Limit:     limit,
		Highlight: req.Highlight,
	}

	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ClampPage 统一分页钳制规则：page >= 1，limit ∈ [1, 100]，limit 缺省 20。
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// Offset 由钳制后的 page/limit 计算偏移量。
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages 计算总页数：ceil(total / limit)。
func TotalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// sortedFilters 返回多值维度排序后的过滤器副本，使指纹与值的传入顺序无关。
func sortedFilters(f *models.SearchFilters) *models.SearchFilters {
	if f == nil {
		return nil
	}
	c := *f
	c.Categories = sortedCopy(f.Categories)
	c.Regions = sortedCopy(f.Regions)
	c.Cities = sortedCopy(f.Cities)
	c.Tags = sortedCopy(f.Tags)
	return &c
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
