package repositories

import (
	"strings"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/search"
)

// Predicate 是一个不可变的 SQL 谓词片段：一段带占位符的条件表达式
// 和与之对应的参数序列。占位符在 Render 阶段才编号，因此片段可以
// 自由组合而不用关心位置。
//
// 计数查询与数据查询共享同一个 Predicate，两者只差尾部的分页子句，
// 从结构上保证 total 与页内容永远一致。
type Predicate struct {
	expr string
	args []interface{}
}

// Expr 构造一个叶子谓词，expr 中用 "?" 作为占位符。
// 条件值只能通过 args 传入，绝不拼接进表达式本身。
func Expr(expr string, args ...interface{}) Predicate {
	return Predicate{expr: expr, args: args}
}

// IsZero 返回该谓词是否为空（不贡献任何条件）。
func (p Predicate) IsZero() bool {
	return p.expr == ""
}

// And 合取多个谓词，空谓词被跳过。
func And(ps ...Predicate) Predicate {
	return combine(" AND ", ps)
}

// Or 析取多个谓词，空谓词被跳过；结果整体加括号。
func Or(ps ...Predicate) Predicate {
	return combine(" OR ", ps)
}

func combine(sep string, ps []Predicate) Predicate {
	var exprs []string
	var args []interface{}
	for _, p := range ps {
		if p.IsZero() {
			continue
		}
		exprs = append(exprs, p.expr)
		args = append(args, p.args...)
	}
	switch len(exprs) {
	case 0:
		return Predicate{}
	case 1:
		return Predicate{expr: exprs[0], args: args}
	default:
		return Predicate{expr: "(" + strings.Join(exprs, sep) + ")", args: args}
	}
}

// SQL 返回 "?" 占位符形式的表达式与参数序列，
// 由调用方通过 sqlx.Rebind 统一编号为 "$n"。空谓词渲染为恒真。
func (p Predicate) SQL() (string, []interface{}) {
	if p.IsZero() {
		return "TRUE", nil
	}
	return p.expr, p.args
}

// ActivityFilter 把一次搜索请求的各维度约束装配成单一合取谓词。
// 同一维度内的多个值取 OR（IN 列表），维度之间取 AND；
// 基础约束：只有 active 状态的活动可被检索。
type ActivityFilter struct {
	preds []Predicate
}

// NewActivityFilter 构造过滤器并固化 status='active' 基础约束。
func NewActivityFilter() *ActivityFilter {
	return &ActivityFilter{preds: []Predicate{Expr("a.status = ?", string(models.StatusActive))}}
}

// WithCategories 按分类 slug 过滤（OR 语义）。
func (f *ActivityFilter) WithCategories(slugs []string) *ActivityFilter {
	return f.appendIn("c.slug", slugs)
}

// WithRegions 按地区过滤。
func (f *ActivityFilter) WithRegions(regions []string) *ActivityFilter {
	return f.appendIn("l.region", regions)
}

// WithCities 按城市过滤。
func (f *ActivityFilter) WithCities(cities []string) *ActivityFilter {
	return f.appendIn("l.city", cities)
}

// WithTags 按标签 slug 过滤。
func (f *ActivityFilter) WithTags(slugs []string) *ActivityFilter {
	return f.appendIn("tg.slug", slugs)
}

// WithMinQuality 按最低质量分过滤。
func (f *ActivityFilter) WithMinQuality(min *int) *ActivityFilter {
	if min != nil {
		f.preds = append(f.preds, Expr("a.quality_score >= ?", *min))
	}
	return f
}

// WithPriceRange 按价格区间过滤，Min/Max 可单独缺省。
func (f *ActivityFilter) WithPriceRange(pr *models.PriceRange) *ActivityFilter {
	if pr == nil {
		return f
	}
	if pr.Min != nil {
		f.preds = append(f.preds, Expr("a.price >= ?", *pr.Min))
	}
	if pr.Max != nil {
		f.preds = append(f.preds, Expr("a.price <= ?", *pr.Max))
	}
	return f
}

// WithDateRange 按区间重叠语义过滤活动时间：
// 活动区间 [start_date, end_date-或-长期] 与请求窗口 [start, end] 有交集即命中，
// end_date 为空视为长期有效。Start/End 可单独缺省。
func (f *ActivityFilter) WithDateRange(dr *models.DateRange) *ActivityFilter {
	if dr == nil {
		return f
	}
	if dr.Start != "" {
		f.preds = append(f.preds, Or(
			Expr("t.end_date >= ?", dr.Start),
			Expr("t.end_date IS NULL"),
		))
	}
	if dr.End != "" {
		f.preds = append(f.preds, Expr("t.start_date <= ?", dr.End))
	}
	return f
}

// WithBoundingBox 添加矩形粗过滤。坐标为空的活动天然不命中。
func (f *ActivityFilter) WithBoundingBox(b *models.GeoBounds) *ActivityFilter {
	if b != nil {
		f.preds = append(f.preds,
			Expr("l.latitude BETWEEN ? AND ?", b.South, b.North),
			Expr("l.longitude BETWEEN ? AND ?", b.West, b.East),
		)
	}
	return f
}

// WithRadius 添加精确的大圆距离过滤（半径闭区间），
// 与 search.Haversine 使用同一公式，保证过滤和展示一致。
// 必须与 WithBoundingBox 搭配使用：矩形先粗筛，这里再裁剪四角。
func (f *ActivityFilter) WithRadius(center models.GeoPoint, radiusKm float64) *ActivityFilter {
	f.preds = append(f.preds, Expr(haversineSQL+" <= ?",
		center.Lat, center.Lat, center.Lng, radiusKm))
	return f
}

// WithTextScan 添加扫描路径的文本匹配谓词：对权重表中的字段做
// 大小写不敏感的子串匹配，至少命中一个字段才算匹配。
func (f *ActivityFilter) WithTextScan(processed string) *ActivityFilter {
	if processed == "" {
		return f
	}
	needle := "%" + processed + "%"
	var ors []Predicate
	for _, fw := range search.RelevanceWeights {
		col, ok := scanColumns[fw.Field]
		if !ok {
			continue
		}
		ors = append(ors, Expr(col+" ILIKE ?", needle))
	}
	f.preds = append(f.preds, Or(ors...))
	return f
}

// Build 返回装配完成的合取谓词。
func (f *ActivityFilter) Build() Predicate {
	return And(f.preds...)
}

// appendIn 为多值维度生成 "col IN (?, ...)" 谓词，空列表不贡献条件。
func (f *ActivityFilter) appendIn(col string, values []string) *ActivityFilter {
	if len(values) == 0 {
		return f
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	f.preds = append(f.preds, Expr(col+" IN ("+placeholders+")", args...))
	return f
}

// haversineSQL 是 SQL 形式的大圆距离（公里），与 search.Haversine 等价。
// 占位符顺序：centerLat, centerLat, centerLng。
const haversineSQL = `(6371 * 2 * asin(sqrt(
	power(sin(radians(l.latitude - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(l.latitude)) *
	power(sin(radians(l.longitude - ?) / 2), 2))))`

// scanColumns 把权重表中的字段名映射到扫描查询里的列。
var scanColumns = map[string]string{
	"name":          "a.name",
	"description":   "a.description",
	"summary":       "a.summary",
	"address":       "l.address",
	"venue":         "l.venue",
	"category_name": "c.name",
}
