package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// esActivityRepository 是 ActivityIndexRepository 接口针对 Elasticsearch 的实现，
// 承担索引检索路径：multi_match 相关性、geo_distance 空间过滤、原生 _score 排序。
type esActivityRepository struct {
	client    *elasticsearch.Client // 注入的 Elasticsearch Go 客户端实例。
	indexName string                // 此仓库操作的目标活动索引名称。
	logger    *core.ZapLogger       // 注入的 Logger 实例，用于结构化日志记录。
}

// NewESActivityRepository 创建一个新的 esActivityRepository 实例。
// 关键依赖缺失时直接 panic/Fatal：仓库无法在缺少这些依赖的情况下正常工作，
// 快速失败避免服务以不完整状态启动。
func NewESActivityRepository(client *elasticsearch.Client, indexName string, logger *core.ZapLogger) ActivityIndexRepository {
	if logger == nil {
		panic("创建 esActivityRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 esActivityRepository 失败：Elasticsearch 客户端实例不能为 nil")
	}
	if indexName == "" {
		logger.Fatal("创建 esActivityRepository 失败：活动索引名称不能为空")
	}

	logger.Info("Elasticsearch ActivityRepository 初始化成功",
		zap.String("index_name", indexName),
	)
	return &esActivityRepository{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}
}

// logAndWrapESError 处理并记录 Elasticsearch API 响应中的错误：
// 读取响应体、记录状态码与内容，返回包装后的统一格式错误。
func (repo *esActivityRepository) logAndWrapESError(res *esapi.Response, operationDesc string, contextIdentifier interface{}) error {
	var errBody strings.Builder
	var readErr error
	if res.Body != nil {
		_, readErr = io.Copy(&errBody, res.Body)
	}

	logFields := []zap.Field{
		zap.Any("context_identifier", contextIdentifier),
		zap.String("es_status", res.Status()),
	}

	responseBodyStr := errBody.String()
	if readErr != nil {
		logFields = append(logFields, zap.Error(fmt.Errorf("读取 Elasticsearch 错误响应体失败: %w", readErr)))
	} else if responseBodyStr != "" {
		logFields = append(logFields, zap.String("es_error_response_body", responseBodyStr))
	}

	repo.logger.Error(fmt.Sprintf("Elasticsearch 操作 '%s' 失败", operationDesc), logFields...)

	if responseBodyStr != "" {
		return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s，响应: %s", operationDesc, res.Status(), responseBodyStr)
	}
	return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s", operationDesc, res.Status())
}

// IndexActivity 在 Elasticsearch 中索引（创建或更新）一个活动文档。
// 使用活动 ID 作为文档 _id 实现 upsert 幂等；每次写入都刷新 UpdatedAt（UTC）。
func (repo *esActivityRepository) IndexActivity(ctx context.Context, doc models.EsActivityDocument) error {
	doc.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(doc)
	if err != nil {
		repo.logger.Error("序列化 EsActivityDocument 为 JSON 失败",
			zap.String("activity_id", doc.ID),
			zap.Error(err),
		)
		return fmt.Errorf("序列化活动文档 (ID: %s) 失败: %w", doc.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      repo.indexName,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
		// "false": 异步刷新，写入性能高，新文档短时间内（约 1 秒）对搜索不可见。
		// 对 Kafka 消费这类高吞吐索引场景是首选；"true"/"wait_for" 仅用于测试。
		Refresh: "false",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 索引请求时发生连接或客户端错误",
			zap.String("activity_id", doc.ID),
			zap.Error(err),
		)
		return fmt.Errorf("Elasticsearch 索引请求 (ID: %s) 失败: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return repo.logAndWrapESError(res, "索引活动文档", doc.ID)
	}

	repo.logger.Info("成功发送活动索引/更新请求到 Elasticsearch",
		zap.String("activity_id", doc.ID),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// DeleteActivity 按 ID 从 Elasticsearch 中删除活动文档。
// 文档不存在（404）视为幂等成功：“确保文档不存在”这一目标已经达成。
func (repo *esActivityRepository) DeleteActivity(ctx context.Context, activityID string) error {
	req := esapi.DeleteRequest{
		Index:      repo.indexName,
		DocumentID: activityID,
		Refresh:    "false",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 删除请求时发生连接或客户端错误",
			zap.String("activity_id", activityID),
			zap.Error(err),
		)
		return fmt.Errorf("Elasticsearch 删除请求 (ID: %s) 失败: %w", activityID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		repo.logger.Warn("尝试删除的活动文档在 Elasticsearch 中未找到，视为操作成功 (幂等性)",
			zap.String("activity_id", activityID),
			zap.String("es_status", res.Status()),
		)
		return nil
	}

	if res.IsError() {
		return repo.logAndWrapESError(res, "删除活动文档", activityID)
	}

	repo.logger.Info("成功发送活动删除请求到 Elasticsearch",
		zap.String("activity_id", activityID),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// Available 探测索引路径是否可用：对活动索引做一次轻量的存在性检查。
// 任何失败（网络、索引缺失）都只返回 false，由服务层降级到扫描路径，
// 绝不把探测失败当成请求错误。
func (repo *esActivityRepository) Available(ctx context.Context) bool {
	req := esapi.IndicesExistsRequest{Index: []string{repo.indexName}}
	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Warn("索引路径能力探测失败，本次请求将降级到扫描路径",
			zap.String("index_name", repo.indexName),
			zap.Error(err),
		)
		return false
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		repo.logger.Warn("活动索引不存在或不可用，本次请求将降级到扫描路径",
			zap.String("index_name", repo.indexName),
			zap.String("es_status", res.Status()),
		)
		return false
	}
	return true
}

// SearchActivities 在活动索引上执行一次检索。
// ES 的单次响应同时携带精确总数（track_total_hits）与结果页，
// 天然满足计数与数据共用同一谓词的要求。
func (repo *esActivityRepository) SearchActivities(ctx context.Context, q *ActivityQuery) (*ActivityPage, error) {
	repo.logger.Info("开始执行 Elasticsearch 活动检索",
		zap.String("query_keywords", q.Text.Processed),
		zap.Bool("has_geo", q.HasGeo()),
		zap.String("sort", string(q.Sort)),
		zap.Int("page", q.Page),
		zap.Int("limit", q.Limit),
	)

	queryJSON, err := buildActivitySearchQuery(q)
	if err != nil {
		repo.logger.Error("构建 Elasticsearch 检索 DSL 失败", zap.Error(err))
		return nil, fmt.Errorf("构建检索查询失败: %w", err)
	}
	repo.logger.Debug("构建的 Elasticsearch 查询 DSL", zap.ByteString("dsl_query", queryJSON))

	searchReq := esapi.SearchRequest{
		Index:          []string{repo.indexName},
		Body:           bytes.NewReader(queryJSON),
		TrackTotalHits: true,
	}

	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 检索请求时发生连接或客户端错误",
			zap.String("query_keywords", q.Text.Processed), zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 检索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, repo.logAndWrapESError(res, "检索活动", q.Text.Processed)
	}

	var esResponse struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value    int64  `json:"value"`
				Relation string `json:"relation"`
			} `json:"total"`
			Hits []struct {
				Source models.EsActivityDocument `json:"_source"`
				Score  float64                   `json:"_score,omitempty"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 检索响应体失败",
			zap.String("query_keywords", q.Text.Processed), zap.Error(err))
		return nil, fmt.Errorf("解码 Elasticsearch 检索响应失败: %w", err)
	}

	page := &ActivityPage{
		Activities: make([]models.Activity, 0, len(esResponse.Hits.Hits)),
		Total:      esResponse.Hits.Total.Value,
		TookMs:     int64(esResponse.Took),
	}
	for _, hit := range esResponse.Hits.Hits {
		page.Activities = append(page.Activities, hit.Source.ToActivity())
	}

	repo.logger.Info("Elasticsearch 活动检索成功完成",
		zap.Int64("query_took_ms", page.TookMs),
		zap.Int64("total_hits_found", page.Total),
		zap.Int("returned_hits_count", len(page.Activities)),
		zap.String("total_hits_relation", esResponse.Hits.Total.Relation),
	)
	return page, nil
}
