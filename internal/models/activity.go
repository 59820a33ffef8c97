package models

import "time"

// ActivityStatus 表示活动的生命周期状态。搜索只会返回 active 状态的活动。
type ActivityStatus string

const (
	StatusActive    ActivityStatus = "active"
	StatusUpcoming  ActivityStatus = "upcoming"
	StatusEnded     ActivityStatus = "ended"
	StatusCancelled ActivityStatus = "cancelled"
	StatusPending   ActivityStatus = "pending"
	StatusDraft     ActivityStatus = "draft"
)

// Region 是部署区域内的行政分区枚举。
type Region string

const (
	RegionNorth   Region = "north"
	RegionCentral Region = "central"
	RegionSouth   Region = "south"
	RegionEast    Region = "east"
	RegionIslands Region = "islands"
)

// PriceType 表示活动的收费类型。
type PriceType string

const (
	PriceFree     PriceType = "free"
	PricePaid     PriceType = "paid"
	PriceDonation PriceType = "donation"
)

// Activity 是搜索返回的活动聚合，由本服务只读消费；
// 写入与质量评分由上游数据管道负责。
type Activity struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Status          ActivityStatus `json:"status"`
	QualityScore    int            `json:"quality_score"`              // 0-100
	PopularityScore float64        `json:"popularity_score"`           // 由写入侧按浏览/收藏/时间衰减计算
	Price           int            `json:"price"`
	PriceType       PriceType      `json:"price_type"`
	Currency        string         `json:"currency,omitempty"`
	ViewCount       int64          `json:"view_count"`
	FavoriteCount   int64          `json:"favorite_count"`
	ClickCount      int64          `json:"click_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Location   *Location     `json:"location,omitempty"`
	Time       *ActivityTime `json:"time,omitempty"`
	Categories []Category    `json:"categories,omitempty"`
	Tags       []Tag         `json:"tags,omitempty"`

	// DistanceKm 仅在空间搜索时出现，单位公里，保留两位小数；
	// 非空间搜索时必须缺省。
	DistanceKm *float64 `json:"distance_km,omitempty"`

	// Highlight 仅在请求 highlight=true 且命中关键词时出现。
	Highlight *HighlightedFields `json:"highlight,omitempty"`
}

// Location 与 Activity 一对一。经纬度可空：没有坐标的活动不参与空间检索，
// 但仍然可以被非空间搜索命中。
type Location struct {
	Address   string   `json:"address"`
	District  string   `json:"district,omitempty"`
	City      string   `json:"city"`
	Region    Region   `json:"region"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Venue     string   `json:"venue,omitempty"`
}

// ActivityTime 描述活动的时间安排。EndDate 为空表示长期有效/进行中；
// StartTime/EndTime 同时缺省表示全天活动。日期格式统一为 "2006-01-02"。
type ActivityTime struct {
	StartDate      string          `json:"start_date"`
	EndDate        *string         `json:"end_date,omitempty"`
	StartTime      *string         `json:"start_time,omitempty"`
	EndTime        *string         `json:"end_time,omitempty"`
	Timezone       string          `json:"timezone,omitempty"`
	IsRecurring    bool            `json:"is_recurring"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
}

// RecurrenceRule 是周期性活动的重复规则。
type RecurrenceRule struct {
	Frequency  string `json:"frequency"` // daily / weekly / monthly / yearly
	Interval   int    `json:"interval"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"` // 0=周日，仅 weekly 使用
}

// Category 与 Activity 多对多，携带前端展示用的颜色与图标。
type Category struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ColorCode string `json:"color_code,omitempty"`
	Icon      string `json:"icon,omitempty"`
}

// Tag 与 Activity 多对多。
type Tag struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Category   string `json:"category,omitempty"`
	UsageCount int64  `json:"usage_count,omitempty"`
}

// HighlightedFields 是关键词高亮后的字段副本，原字段保持原文。
type HighlightedFields struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Summary     string `json:"summary,omitempty"`
}
