package models

import "time"

// ActivityUpsertEvent 镜像了数据管道发送的活动创建/更新事件的结构。
// 管道在发送前已把地点、时间、分类、标签拍平，消费侧只做校验与索引写入。
type ActivityUpsertEvent struct {
	ID              string   `json:"id"`               // 活动的唯一标识符
	Name            string   `json:"name"`             // 活动名称
	Description     string   `json:"description"`      // 活动描述
	Summary         string   `json:"summary"`          // 活动摘要
	Status          string   `json:"status"`           // 活动状态
	QualityScore    int      `json:"quality_score"`    // 质量分
	PopularityScore float64  `json:"popularity_score"` // 热门度分数
	Price           int      `json:"price"`
	PriceType       string   `json:"price_type"`
	Currency        string   `json:"currency,omitempty"`
	ViewCount       int64    `json:"view_count"`
	FavoriteCount   int64    `json:"favorite_count"`
	ClickCount      int64    `json:"click_count"`

	Address   string   `json:"address"`
	District  string   `json:"district,omitempty"`
	City      string   `json:"city"`
	Region    string   `json:"region"`
	Venue     string   `json:"venue,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`  // 可空，缺坐标的活动不参与空间检索
	Longitude *float64 `json:"longitude,omitempty"`

	CategoryNames []string `json:"category_names,omitempty"`
	CategorySlugs []string `json:"category_slugs,omitempty"`
	TagSlugs      []string `json:"tag_slugs,omitempty"`

	StartDate   string  `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"` // "15:04"，与 EndTime 同时缺省表示全天
	EndTime     *string `json:"end_time,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	IsRecurring bool    `json:"is_recurring"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityDeleteEvent 镜像了数据管道发送的活动删除事件的结构。
type ActivityDeleteEvent struct {
	Operation  string `json:"operation"`   // 操作类型，期望值为 "delete"
	ActivityID string `json:"activity_id"` // 需要删除的活动的唯一标识符
}

// SearchAnalyticsEvent 是发布到分析主题的搜索事件，
// 供下游离线统计消费；发送失败不影响搜索响应。
type SearchAnalyticsEvent struct {
	Fingerprint string         `json:"fingerprint"` // 规范化请求指纹，供下游去重
	Query       string         `json:"query"`
	Filters     *SearchFilters `json:"filters,omitempty"`
	ResultCount int64          `json:"result_count"`
	DurationMs  int64          `json:"duration_ms"`
	SearchPath  string         `json:"search_path"` // "indexed" 或 "scan"
	SearchedAt  time.Time      `json:"searched_at"`
}
