package models

import "time"

// EsGeoPoint 是 ES geo_point 字段的文档表示。
type EsGeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EsActivityDocument 表示存储在 Elasticsearch 活动索引中的文档结构。
// 关联数据（地点、时间、分类、标签）在写入时已被拍平，避免检索时做 join。
type EsActivityDocument struct {
	ID              string   `json:"id"`               // 活动唯一标识符
	Name            string   `json:"name"`             // 活动名称，相关性权重最高
	Description     string   `json:"description"`      // 活动描述
	Summary         string   `json:"summary"`          // 活动摘要
	Status          string   `json:"status"`           // 活动状态，索引中仍保留非 active 文档，检索时过滤
	QualityScore    int      `json:"quality_score"`    // 质量分 0-100
	PopularityScore float64  `json:"popularity_score"` // 热门度分数
	Price           int      `json:"price"`
	PriceType       string   `json:"price_type"`
	Currency        string   `json:"currency,omitempty"`
	ViewCount       int64    `json:"view_count"`
	FavoriteCount   int64    `json:"favorite_count"`
	ClickCount      int64    `json:"click_count"`

	Address  string   `json:"address"`
	District string   `json:"district,omitempty"`
	City     string   `json:"city"`
	Region   string   `json:"region"`
	Venue    string   `json:"venue,omitempty"`

	// Coordinate 映射为 geo_point；坐标缺失的活动该字段缺省，天然不命中空间过滤。
	Coordinate *EsGeoPoint `json:"coordinate,omitempty"`

	CategoryNames []string `json:"category_names,omitempty"` // 分类名，参与相关性评分
	CategorySlugs []string `json:"category_slugs,omitempty"` // 分类 slug，仅做精确过滤
	TagSlugs      []string `json:"tag_slugs,omitempty"`

	StartDate   string  `json:"start_date,omitempty"` // "2006-01-02"
	EndDate     *string `json:"end_date,omitempty"`   // 空表示长期有效
	StartTime   *string `json:"start_time,omitempty"` // "15:04"，与 EndTime 同时缺省表示全天
	EndTime     *string `json:"end_time,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	IsRecurring bool    `json:"is_recurring"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // 文档最后同步时间
}

// ToActivity 把拍平的 ES 文档还原为 API 层的活动聚合。
func (d *EsActivityDocument) ToActivity() Activity {
	act := Activity{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		Summary:         d.Summary,
		Status:          ActivityStatus(d.Status),
		QualityScore:    d.QualityScore,
		PopularityScore: d.PopularityScore,
		Price:           d.Price,
		PriceType:       PriceType(d.PriceType),
		Currency:        d.Currency,
		ViewCount:       d.ViewCount,
		FavoriteCount:   d.FavoriteCount,
		ClickCount:      d.ClickCount,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	loc := &Location{
		Address:  d.Address,
		District: d.District,
		City:     d.City,
		Region:   Region(d.Region),
		Venue:    d.Venue,
	}
	if d.Coordinate != nil {
		lat, lng := d.Coordinate.Lat, d.Coordinate.Lon
		loc.Latitude = &lat
		loc.Longitude = &lng
	}
	act.Location = loc

	if d.StartDate != "" {
		act.Time = &ActivityTime{
			StartDate:   d.StartDate,
			EndDate:     d.EndDate,
			StartTime:   d.StartTime,
			EndTime:     d.EndTime,
			Timezone:    d.Timezone,
			IsRecurring: d.IsRecurring,
		}
	}

	for i := range d.CategoryNames {
		cat := Category{Name: d.CategoryNames[i]}
		if i < len(d.CategorySlugs) {
			cat.Slug = d.CategorySlugs[i]
		}
		act.Categories = append(act.Categories, cat)
	}
	for _, slug := range d.TagSlugs {
		act.Tags = append(act.Tags, Tag{Slug: slug, Name: slug})
	}
	return act
}
