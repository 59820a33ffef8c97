package repositories

import (
	"context"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/search"
)

// ActivityQuery 是服务层完成校验与归一化之后的查询描述。
// 两条检索路径共用同一个描述，保证语义一致；Page/Limit 已被钳制。
type ActivityQuery struct {
	Text    search.TextQuery      // 预处理后的关键词，可为零值
	Geo     *search.GeoQuery      // 空间约束，可为 nil
	GeoBox  *models.GeoBounds     // 由 GeoFilter 推导出的矩形粗过滤范围
	Filters *models.SearchFilters // 标量过滤器，可为 nil
	Sort    search.SortStrategy
	Page    int
	Limit   int
}

// HasText 返回该查询是否带关键词。
func (q *ActivityQuery) HasText() bool {
	return q.Text.HasQuery()
}

// HasGeo 返回该查询是否带空间约束。
func (q *ActivityQuery) HasGeo() bool {
	return q.Geo.IsSpatial()
}

// ActivityPage 是一次检索的原始结果页：活动列表加精确总数。
// 距离标注与高亮由服务层统一完成，这里不做。
type ActivityPage struct {
	Activities []models.Activity
	Total      int64
	TookMs     int64
}

// ActivitySearcher 是检索路径的统一接口，
// Elasticsearch（索引路径）与 PostgreSQL（扫描路径）各有一个实现。
type ActivitySearcher interface {
	SearchActivities(ctx context.Context, q *ActivityQuery) (*ActivityPage, error)
}

// ActivityIndexRepository 定义了索引路径额外承担的写入与探活能力。
type ActivityIndexRepository interface {
	ActivitySearcher

	// IndexActivity 索引（创建或更新）一个活动文档，以活动 ID 作为文档 _id 实现幂等。
	IndexActivity(ctx context.Context, doc models.EsActivityDocument) error

	// DeleteActivity 按 ID 删除活动文档，文档不存在视为幂等成功。
	DeleteActivity(ctx context.Context, activityID string) error

	// Available 是索引路径的能力探测：返回 false 时本次请求直接走扫描路径。
	// 探测失败只影响路径选择，绝不作为错误冒泡给调用方。
	Available(ctx context.Context) bool
}

// ActivityScanRepository 定义了扫描路径额外承担的建议与分析能力。
type ActivityScanRepository interface {
	ActivitySearcher

	// SuggestActivityNames 按名称模糊匹配返回至多 limit 个活动名，用于空结果建议。
	SuggestActivityNames(ctx context.Context, query string, limit int) ([]string, error)

	// SuggestCategoryNames 按名称模糊匹配返回至多 limit 个分类名，活动名建议为空时兜底。
	SuggestCategoryNames(ctx context.Context, query string, limit int) ([]string, error)

	// LogSearch 把搜索事件写入分析日志表，失败由调用方自行吞掉。
	LogSearch(ctx context.Context, event *models.SearchAnalyticsEvent) error
}
