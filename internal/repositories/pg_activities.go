package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/search"
)

// pgActivityRepository 是扫描检索路径：当 Elasticsearch 不可用或查询失败时，
// 同一个查询描述会落到这里，用加权 ILIKE 匹配和 SQL 形式的 haversine 过滤
// 在 PostgreSQL 上完成等价检索。建议生成与搜索日志也由它承担。
type pgActivityRepository struct {
	db     *sqlx.DB
	logger *core.ZapLogger
}

// NewPGActivityRepository 创建扫描路径仓库。依赖缺失时快速失败。
func NewPGActivityRepository(db *sqlx.DB, logger *core.ZapLogger) ActivityScanRepository {
	if logger == nil {
		panic("创建 pgActivityRepository 失败：Logger 实例不能为 nil")
	}
	if db == nil {
		logger.Fatal("创建 pgActivityRepository 失败：数据库连接不能为 nil")
	}
	logger.Info("PostgreSQL ActivityRepository 初始化成功")
	return &pgActivityRepository{db: db, logger: logger}
}

// activityRow 是扫描查询的行映射。地点与时间经 LEFT JOIN 而来，全部可空；
// 分类与标签按活动聚合成逗号分隔串，避免 N+1 查询。
type activityRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Description     sql.NullString `db:"description"`
	Summary         sql.NullString `db:"summary"`
	Status          string         `db:"status"`
	QualityScore    int            `db:"quality_score"`
	PopularityScore float64        `db:"popularity_score"`
	Price           int            `db:"price"`
	PriceType       string         `db:"price_type"`
	Currency        sql.NullString `db:"currency"`
	ViewCount       int64          `db:"view_count"`
	FavoriteCount   int64          `db:"favorite_count"`
	ClickCount      int64          `db:"click_count"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`

	Address   sql.NullString  `db:"address"`
	District  sql.NullString  `db:"district"`
	City      sql.NullString  `db:"city"`
	Region    sql.NullString  `db:"region"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
	Venue     sql.NullString  `db:"venue"`

	StartDate   sql.NullString `db:"start_date"`
	EndDate     sql.NullString `db:"end_date"`
	StartTime   sql.NullString `db:"start_time"`
	EndTime     sql.NullString `db:"end_time"`
	Timezone    sql.NullString `db:"timezone"`
	IsRecurring sql.NullBool   `db:"is_recurring"`

	CategoryNames string `db:"category_names"`
	CategorySlugs string `db:"category_slugs"`
	TagSlugs      string `db:"tag_slugs"`

	RelevanceScore int             `db:"relevance_score"`
	DistanceKm     sql.NullFloat64 `db:"distance_km"`
}

// searchJoins 是计数与数据查询共用的 FROM/JOIN 骨架。
const searchJoins = `
FROM activities a
LEFT JOIN locations l ON l.activity_id = a.id
LEFT JOIN activity_times t ON t.activity_id = a.id
LEFT JOIN activity_categories ac ON ac.activity_id = a.id
LEFT JOIN categories c ON c.id = ac.category_id
LEFT JOIN activity_tags atg ON atg.activity_id = a.id
LEFT JOIN tags tg ON tg.id = atg.tag_id`

// SearchActivities 在 PostgreSQL 上执行一次检索。
// 计数查询与数据查询共享同一个谓词（只差尾部的 ORDER BY/LIMIT），
// 二者并发执行以降低延迟；谓词一致性由 buildPredicate 的单一出口保证。
func (repo *pgActivityRepository) SearchActivities(ctx context.Context, q *ActivityQuery) (*ActivityPage, error) {
	started := time.Now()

	whereExpr, whereArgs := buildPredicate(q).SQL()

	// 计数查询：无 ORDER BY/LIMIT，按活动去重。
	countSQL := repo.db.Rebind("SELECT COUNT(DISTINCT a.id) " + searchJoins + " WHERE " + whereExpr)

	type countResult struct {
		total int64
		err   error
	}
	countCh := make(chan countResult, 1)
	go func() {
		var total int64
		err := repo.db.GetContext(ctx, &total, countSQL, whereArgs...)
		countCh <- countResult{total: total, err: err}
	}()

	// 数据查询：相关性与距离作为选择列参与排序。
	dataSQL, dataArgs := repo.buildDataQuery(q, whereExpr, whereArgs)

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, dataSQL, dataArgs...); err != nil {
		<-countCh // 避免泄漏计数 goroutine 的结果
		repo.logger.Error("扫描路径数据查询失败",
			zap.String("query_keywords", q.Text.Processed), zap.Error(err))
		return nil, fmt.Errorf("扫描路径数据查询失败: %w", err)
	}

	count := <-countCh
	if count.err != nil {
		repo.logger.Error("扫描路径计数查询失败",
			zap.String("query_keywords", q.Text.Processed), zap.Error(count.err))
		return nil, fmt.Errorf("扫描路径计数查询失败: %w", count.err)
	}

	page := &ActivityPage{
		Activities: make([]models.Activity, 0, len(rows)),
		Total:      count.total,
		TookMs:     time.Since(started).Milliseconds(),
	}
	for i := range rows {
		page.Activities = append(page.Activities, rows[i].toActivity())
	}

	repo.logger.Info("PostgreSQL 活动检索完成",
		zap.Int64("total", page.Total),
		zap.Int("returned", len(page.Activities)),
		zap.Int64("took_ms", page.TookMs),
	)
	return page, nil
}

// buildPredicate 把查询描述装配成 WHERE 谓词，是两个查询共用的单一出口。
func buildPredicate(q *ActivityQuery) Predicate {
	filter := NewActivityFilter()
	if f := q.Filters; f != nil {
		filter.WithCategories(f.Categories).
			WithRegions(f.Regions).
			WithCities(f.Cities).
			WithTags(f.Tags).
			WithMinQuality(f.MinQuality).
			WithPriceRange(f.PriceRange).
			WithDateRange(f.DateRange)
	}
	if q.HasText() {
		filter.WithTextScan(q.Text.Processed)
	}
	if q.HasGeo() {
		// 先矩形粗筛，再对中心点+半径查询做精确的大圆距离裁剪。
		// 半径为 0 表示放宽后的重查：保留中心点用于距离排序，不做半径过滤。
		filter.WithBoundingBox(q.GeoBox)
		if q.Geo.Bounds == nil && q.Geo.Center != nil && q.Geo.RadiusKm > 0 {
			filter.WithRadius(*q.Geo.Center, q.Geo.RadiusKm)
		}
	}
	return filter.Build()
}

// buildDataQuery 组装数据查询并把 "?" 统一重绑定为 "$n"。
// 参数顺序：选择列（相关性、距离）→ WHERE → LIMIT/OFFSET。
func (repo *pgActivityRepository) buildDataQuery(q *ActivityQuery, whereExpr string, whereArgs []interface{}) (string, []interface{}) {
	var args []interface{}

	relevanceExpr := "0"
	if q.HasText() {
		var relArgs []interface{}
		relevanceExpr, relArgs = scanRelevanceExpr(q.Text.Processed)
		args = append(args, relArgs...)
	}

	distanceExpr := "NULL"
	if q.HasGeo() && q.Geo.Center != nil {
		distanceExpr = haversineSQL
		args = append(args, q.Geo.Center.Lat, q.Geo.Center.Lat, q.Geo.Center.Lng)
	}

	var orderParts []string
	for _, key := range q.Sort.SQLOrder(q.HasText(), q.HasGeo()) {
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		orderParts = append(orderParts, key.Expr+" "+dir)
	}

	query := `SELECT
	a.id, a.name, a.description, a.summary, a.status,
	a.quality_score, a.popularity_score, a.price, a.price_type, a.currency,
	a.view_count, a.favorite_count, a.click_count, a.created_at, a.updated_at,
	l.address, l.district, l.city, l.region, l.latitude, l.longitude, l.venue,
	t.start_date, t.end_date, t.start_time, t.end_time, t.timezone, t.is_recurring,
	COALESCE(string_agg(DISTINCT c.name, ','), '') AS category_names,
	COALESCE(string_agg(DISTINCT c.slug, ','), '') AS category_slugs,
	COALESCE(string_agg(DISTINCT tg.slug, ','), '') AS tag_slugs,
	` + relevanceExpr + ` AS relevance_score,
	` + distanceExpr + ` AS distance_km
` + searchJoins + `
WHERE ` + whereExpr + `
GROUP BY a.id, l.id, t.id
ORDER BY ` + strings.Join(orderParts, ", ") + `
LIMIT ? OFFSET ?`

	args = append(args, whereArgs...)
	args = append(args, q.Limit, search.Offset(q.Page, q.Limit))
	return repo.db.Rebind(query), args
}

// scanRelevanceExpr 由权重表生成加权相关性表达式。
// 分类名在聚合之后才可见，所以套一层 MAX；其余字段对 a.id/l.id 函数依赖，
// 可以直接引用。多字段命中分值相加，名称命中必然压过单个次级字段命中。
func scanRelevanceExpr(processed string) (string, []interface{}) {
	needle := "%" + processed + "%"
	parts := make([]string, 0, len(search.RelevanceWeights))
	args := make([]interface{}, 0, len(search.RelevanceWeights))
	for _, fw := range search.RelevanceWeights {
		col, ok := scanColumns[fw.Field]
		if !ok {
			continue
		}
		expr := fmt.Sprintf("CASE WHEN %s ILIKE ? THEN %d ELSE 0 END", col, fw.Weight)
		if fw.Field == "category_name" {
			expr = "MAX(" + expr + ")"
		}
		parts = append(parts, expr)
		args = append(args, needle)
	}
	return "(" + strings.Join(parts, " + ") + ")", args
}

// SuggestActivityNames 按名称模糊匹配返回活动名建议。
func (repo *pgActivityRepository) SuggestActivityNames(ctx context.Context, query string, limit int) ([]string, error) {
	sqlText := repo.db.Rebind(
		`SELECT DISTINCT name FROM activities WHERE status = ? AND name ILIKE ? ORDER BY name LIMIT ?`)
	var names []string
	err := repo.db.SelectContext(ctx, &names, sqlText, string(models.StatusActive), "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("查询活动名建议失败: %w", err)
	}
	return names, nil
}

// SuggestCategoryNames 按名称模糊匹配返回分类名建议。
func (repo *pgActivityRepository) SuggestCategoryNames(ctx context.Context, query string, limit int) ([]string, error) {
	sqlText := repo.db.Rebind(`SELECT name FROM categories WHERE name ILIKE ? ORDER BY name LIMIT ?`)
	var names []string
	err := repo.db.SelectContext(ctx, &names, sqlText, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("查询分类名建议失败: %w", err)
	}
	return names, nil
}

// LogSearch 把一次搜索事件写入 search_logs 分析表。
// 调用方以 fire-and-forget 方式使用，这里的失败只返回错误、由上层吞掉告警。
func (repo *pgActivityRepository) LogSearch(ctx context.Context, event *models.SearchAnalyticsEvent) error {
	filtersJSON, err := json.Marshal(event.Filters)
	if err != nil {
		return fmt.Errorf("序列化过滤器快照失败: %w", err)
	}
	sqlText := repo.db.Rebind(`
INSERT INTO search_logs (fingerprint, query, filters, result_count, duration_ms, search_path, searched_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, sqlText,
		event.Fingerprint, event.Query, string(filtersJSON), event.ResultCount,
		event.DurationMs, event.SearchPath, event.SearchedAt); err != nil {
		return fmt.Errorf("写入搜索日志失败: %w", err)
	}
	return nil
}

// toActivity 把行映射还原为 API 层的活动聚合。
func (r *activityRow) toActivity() models.Activity {
	act := models.Activity{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description.String,
		Summary:         r.Summary.String,
		Status:          models.ActivityStatus(r.Status),
		QualityScore:    r.QualityScore,
		PopularityScore: r.PopularityScore,
		Price:           r.Price,
		PriceType:       models.PriceType(r.PriceType),
		Currency:        r.Currency.String,
		ViewCount:       r.ViewCount,
		FavoriteCount:   r.FavoriteCount,
		ClickCount:      r.ClickCount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	if r.Address.Valid || r.City.Valid || r.Latitude.Valid {
		loc := &models.Location{
			Address:  r.Address.String,
			District: r.District.String,
			City:     r.City.String,
			Region:   models.Region(r.Region.String),
			Venue:    r.Venue.String,
		}
		if r.Latitude.Valid && r.Longitude.Valid {
			lat, lng := r.Latitude.Float64, r.Longitude.Float64
			loc.Latitude = &lat
			loc.Longitude = &lng
		}
		act.Location = loc
	}

	if r.StartDate.Valid {
		at := &models.ActivityTime{
			StartDate:   r.StartDate.String,
			Timezone:    r.Timezone.String,
			IsRecurring: r.IsRecurring.Bool,
		}
		if r.EndDate.Valid {
			v := r.EndDate.String
			at.EndDate = &v
		}
		if r.StartTime.Valid {
			v := r.StartTime.String
			at.StartTime = &v
		}
		if r.EndTime.Valid {
			v := r.EndTime.String
			at.EndTime = &v
		}
		act.Time = at
	}

	names := splitAgg(r.CategoryNames)
	slugs := splitAgg(r.CategorySlugs)
	for i, name := range names {
		cat := models.Category{Name: name}
		if i < len(slugs) {
			cat.Slug = slugs[i]
		}
		act.Categories = append(act.Categories, cat)
	}
	for _, slug := range splitAgg(r.TagSlugs) {
		act.Tags = append(act.Tags, models.Tag{Slug: slug, Name: slug})
	}
	return act
}

func splitAgg(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
