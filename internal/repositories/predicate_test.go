package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/activity_search/internal/models"
)

func TestPredicate_Combinators(t *testing.T) {
	p := And(
		Expr("a = ?", 1),
		Expr("b = ?", 2),
	)
	expr, args := p.SQL()
	assert.Equal(t, "(a = ? AND b = ?)", expr)
	assert.Equal(t, []interface{}{1, 2}, args)

	// 空谓词被跳过，单个谓词不加括号
	p = And(Predicate{}, Expr("a = ?", 1))
	expr, args = p.SQL()
	assert.Equal(t, "a = ?", expr)
	assert.Len(t, args, 1)

	p = Or(Expr("a = ?", 1), Expr("b = ?", 2), Predicate{})
	expr, _ = p.SQL()
	assert.Equal(t, "(a = ? OR b = ?)", expr)

	// 全空合取渲染为恒真
	expr, args = And().SQL()
	assert.Equal(t, "TRUE", expr)
	assert.Nil(t, args)
}

func TestActivityFilter_BaseConstraint(t *testing.T) {
	expr, args := NewActivityFilter().Build().SQL()
	assert.Contains(t, expr, "a.status = ?")
	require.Len(t, args, 1)
	assert.Equal(t, "active", args[0])
}

func TestActivityFilter_MultiValueDimensions(t *testing.T) {
	f := NewActivityFilter().
		WithCategories([]string{"cuisine", "culture"}).
		WithRegions([]string{"north"})
	expr, args := f.Build().SQL()

	// 维度内 OR（IN 列表），维度间 AND
	assert.Contains(t, expr, "c.slug IN (?, ?)")
	assert.Contains(t, expr, "l.region IN (?)")
	assert.Contains(t, expr, " AND ")
	assert.Equal(t, []interface{}{"active", "cuisine", "culture", "north"}, args)

	// 空列表不贡献条件
	expr, _ = NewActivityFilter().WithCategories(nil).Build().SQL()
	assert.NotContains(t, expr, "c.slug")
}

func TestActivityFilter_Ranges(t *testing.T) {
	min, max := 100, 500
	quality := 60
	f := NewActivityFilter().
		WithPriceRange(&models.PriceRange{Min: &min, Max: &max}).
		WithMinQuality(&quality)
	expr, args := f.Build().SQL()

	assert.Contains(t, expr, "a.price >= ?")
	assert.Contains(t, expr, "a.price <= ?")
	assert.Contains(t, expr, "a.quality_score >= ?")
	assert.Equal(t, []interface{}{"active", 100, 500, 60}, args)
}

func TestActivityFilter_DateRangeOverlap(t *testing.T) {
	f := NewActivityFilter().
		WithDateRange(&models.DateRange{Start: "2026-09-01", End: "2026-09-30"})
	expr, args := f.Build().SQL()

	// 区间重叠：end_date >= start（或长期有效），start_date <= end
	assert.Contains(t, expr, "(t.end_date >= ? OR t.end_date IS NULL)")
	assert.Contains(t, expr, "t.start_date <= ?")
	assert.Equal(t, []interface{}{"active", "2026-09-01", "2026-09-30"}, args)

	// 只给开始日期
	expr, _ = NewActivityFilter().
		WithDateRange(&models.DateRange{Start: "2026-09-01"}).Build().SQL()
	assert.Contains(t, expr, "t.end_date >= ?")
	assert.NotContains(t, expr, "t.start_date <= ?")
}

func TestActivityFilter_TextScan(t *testing.T) {
	expr, args := NewActivityFilter().WithTextScan("夜市").Build().SQL()

	for _, col := range []string{"a.name", "a.description", "a.summary", "l.address", "l.venue", "c.name"} {
		assert.Contains(t, expr, col+" ILIKE ?", "文本扫描应覆盖 %s", col)
	}
	// status + 6 个字段
	require.Len(t, args, 7)
	for _, arg := range args[1:] {
		assert.Equal(t, "%夜市%", arg)
	}

	// 空关键词不贡献条件
	expr, _ = NewActivityFilter().WithTextScan("").Build().SQL()
	assert.NotContains(t, expr, "ILIKE")
}

func TestActivityFilter_Spatial(t *testing.T) {
	center := models.GeoPoint{Lat: 25.033, Lng: 121.565}
	box := &models.GeoBounds{North: 25.1, South: 24.95, East: 121.65, West: 121.48}

	f := NewActivityFilter().WithBoundingBox(box).WithRadius(center, 5)
	expr, args := f.Build().SQL()

	assert.Contains(t, expr, "l.latitude BETWEEN ? AND ?")
	assert.Contains(t, expr, "l.longitude BETWEEN ? AND ?")
	// 精确裁剪用闭区间，保证恰好落在半径上的活动被包含
	assert.Contains(t, expr, "<= ?")
	assert.Contains(t, expr, "6371")

	// status + box(4) + haversine(3) + radius(1)
	require.Len(t, args, 9)
	assert.Equal(t, 5.0, args[len(args)-1])
}

func TestActivityFilter_NoValueInterpolation(t *testing.T) {
	// 所有值都必须走占位符，表达式里绝不出现字面值
	f := NewActivityFilter().
		WithCategories([]string{"cuisine'; DROP TABLE activities;--"}).
		WithTextScan("夜市")
	expr, _ := f.Build().SQL()
	assert.NotContains(t, expr, "DROP TABLE")
	assert.NotContains(t, expr, "夜市")
	assert.False(t, strings.ContainsAny(expr, "'"), "表达式不应包含引号字面值")
}
