package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// HotSearchTermRepository 定义了热门搜索词统计数据在 Elasticsearch 中的操作接口。
// 词条在写入前已由服务层归一化（小写、去空白），归一化后的词条即文档 ID。
type HotSearchTermRepository interface {
	// IncrementSearchTermCount 原子递增给定搜索词的计数，词条不存在时创建。
	IncrementSearchTermCount(ctx context.Context, term string) error

	// GetHotSearchTerms 按计数降序返回最热门的 limit 个搜索词。
	GetHotSearchTerms(ctx context.Context, limit int) ([]models.HotSearchTerm, error)
}

// esHotSearchTermRepository 是 HotSearchTermRepository 针对 Elasticsearch 的实现。
type esHotSearchTermRepository struct {
	client    *elasticsearch.Client
	logger    *core.ZapLogger
	indexName string
}

// NewESHotSearchTermRepository 创建热门搜索词仓库，关键依赖缺失时快速失败。
func NewESHotSearchTermRepository(client *elasticsearch.Client, logger *core.ZapLogger, indexName string) HotSearchTermRepository {
	if logger == nil {
		panic("创建 esHotSearchTermRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 esHotSearchTermRepository 失败：Elasticsearch 客户端实例不能为 nil")
	}
	if indexName == "" {
		logger.Fatal("创建 esHotSearchTermRepository 失败：热门搜索词索引名称不能为空")
	}
	logger.Info("Elasticsearch HotSearchTermRepository 初始化成功",
		zap.String("index_name", indexName),
	)
	return &esHotSearchTermRepository{client: client, logger: logger, indexName: indexName}
}

func (repo *esHotSearchTermRepository) wrapHotTermsError(res *esapi.Response, operationDesc string, contextIdentifier interface{}) error {
	var errorBodyContent string
	if res.Body != nil {
		if bodyBytes, err := io.ReadAll(res.Body); err == nil {
			errorBodyContent = string(bodyBytes)
		}
	}

	logFields := []zap.Field{
		zap.Any("context_identifier", contextIdentifier),
		zap.String("es_status", res.Status()),
	}
	if errorBodyContent != "" {
		logFields = append(logFields, zap.String("es_error_response_body", errorBodyContent))
	}
	repo.logger.Error(fmt.Sprintf("Elasticsearch 热门搜索词操作 '%s' 失败", operationDesc), logFields...)

	if errorBodyContent != "" {
		return fmt.Errorf("Elasticsearch 热门搜索词操作 '%s' 失败，状态码: %s，响应: %s", operationDesc, res.Status(), errorBodyContent)
	}
	return fmt.Errorf("Elasticsearch 热门搜索词操作 '%s' 失败，状态码: %s", operationDesc, res.Status())
}

// IncrementSearchTermCount 通过 painless 脚本更新实现计数自增，
// 配合 upsert 文档保证词条首次出现时以 count=1 落库。
func (repo *esHotSearchTermRepository) IncrementSearchTermCount(ctx context.Context, term string) error {
	now := time.Now().UTC()
	updateBody := map[string]interface{}{
		"script": map[string]interface{}{
			"source": "ctx._source.count += params.count_val; ctx._source.last_searched_at = params.now; ctx._source.term = params.term_val;",
			"lang":   "painless",
			"params": map[string]interface{}{
				"count_val": 1,
				"now":       now,
				"term_val":  term,
			},
		},
		"upsert": models.HotSearchTermES{
			Term:           term,
			Count:          1,
			LastSearchedAt: now,
		},
	}

	payload, err := json.Marshal(updateBody)
	if err != nil {
		repo.logger.Error("序列化热门搜索词更新请求体失败", zap.String("term", term), zap.Error(err))
		return fmt.Errorf("序列化热门搜索词更新请求体 (term: %s) 失败: %w", term, err)
	}

	req := esapi.UpdateRequest{
		Index:      repo.indexName,
		DocumentID: term,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 热门搜索词更新请求时发生连接或客户端错误",
			zap.String("term", term), zap.Error(err))
		return fmt.Errorf("Elasticsearch 热门搜索词更新请求 (term: %s) 失败: %w", term, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return repo.wrapHotTermsError(res, "更新热门搜索词计数", term)
	}

	repo.logger.Debug("成功发送热门搜索词计数更新请求到 Elasticsearch",
		zap.String("term", term), zap.String("es_status", res.Status()))
	return nil
}

// GetHotSearchTerms 按计数降序检索最热门的 N 个搜索词。
func (repo *esHotSearchTermRepository) GetHotSearchTerms(ctx context.Context, limit int) ([]models.HotSearchTerm, error) {
	if limit <= 0 {
		limit = 10
	}

	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"count": map[string]string{"order": "desc"}},
		},
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("序列化热门搜索词查询 DSL 失败: %w", err)
	}

	searchReq := esapi.SearchRequest{
		Index: []string{repo.indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 热门搜索词搜索请求时发生连接或客户端错误", zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 热门搜索词搜索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, repo.wrapHotTermsError(res, "检索热门搜索词", fmt.Sprintf("limit: %d", limit))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source models.HotSearchTermES `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 热门搜索词响应体失败", zap.Error(err))
		return nil, fmt.Errorf("解码 Elasticsearch 热门搜索词响应失败: %w", err)
	}

	hotTerms := make([]models.HotSearchTerm, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		hotTerms = append(hotTerms, models.HotSearchTerm{
			Term:  hit.Source.Term,
			Count: hit.Source.Count,
		})
	}

	repo.logger.Info("成功从 Elasticsearch 检索热门搜索词",
		zap.Int("retrieved_count", len(hotTerms)),
		zap.String("index_name", repo.indexName),
	)
	return hotTerms, nil
}
