package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/internal/models"
	"github.com/Xushengqwer/activity_search/internal/repositories"

	"go.uber.org/zap"
)

// 包级别的哨兵错误，标记不可重试的事件数据问题。
// Handler 通过 errors.Is() 识别这些错误并直接转入 DLQ，不做退避重试。
var (
	ErrInvalidActivityID  = errors.New("活动ID不能为空")
	ErrEmptyName          = errors.New("活动名称不能为空")
	ErrPartialCoordinate  = errors.New("活动坐标不完整，纬度与经度必须同时提供")
	ErrInvalidEventFormat = errors.New("无效的事件格式或缺少关键数据")
)

// EventService 封装了活动索引同步事件的业务逻辑：
// 校验事件数据，映射为 ES 文档，再调用索引仓库写入或删除。
type EventService struct {
	indexRepo repositories.ActivityIndexRepository
	logger    *core.ZapLogger
}

// NewEventService 创建 EventService，关键依赖缺失时直接 panic。
func NewEventService(indexRepo repositories.ActivityIndexRepository, logger *core.ZapLogger) *EventService {
	if indexRepo == nil {
		panic("致命错误 [事件服务]: ActivityIndexRepository 依赖注入失败，实例不能为 nil")
	}
	if logger == nil {
		panic("致命错误 [事件服务]: ZapLogger 依赖注入失败，实例不能为 nil")
	}
	return &EventService{
		indexRepo: indexRepo,
		logger:    logger,
	}
}

// HandleActivityUpsertEvent 处理活动创建/更新事件：
// 校验事件数据，转换为 EsActivityDocument，然后调用仓库层索引。
// 校验失败返回包装后的哨兵错误，属于永久性失败；索引失败原样向上传递，允许重试。
func (s *EventService) HandleActivityUpsertEvent(ctx context.Context, event *models.ActivityUpsertEvent) error {
	s.logger.Info("开始处理活动写入事件 (ActivityUpsertEvent)",
		zap.String("activity_id", event.ID),
		zap.String("status", event.Status))

	if event.ID == "" {
		s.logger.Error("处理 ActivityUpsertEvent 失败：事件中的活动 ID 为空")
		return fmt.Errorf("处理活动写入事件失败: %w", ErrInvalidActivityID)
	}
	if event.Name == "" {
		s.logger.Error("处理 ActivityUpsertEvent 失败：事件中的活动名称为空",
			zap.String("activity_id", event.ID),
		)
		return fmt.Errorf("处理活动写入事件失败，活动 ID '%s' 的名称为空: %w", event.ID, ErrEmptyName)
	}
	// 坐标必须成对出现，只给一半说明上游数据有问题
	if (event.Latitude == nil) != (event.Longitude == nil) {
		s.logger.Error("处理 ActivityUpsertEvent 失败：活动坐标不完整",
			zap.String("activity_id", event.ID),
			zap.Bool("has_latitude", event.Latitude != nil),
			zap.Bool("has_longitude", event.Longitude != nil),
		)
		return fmt.Errorf("处理活动写入事件失败，活动 ID '%s' 的坐标不完整: %w", event.ID, ErrPartialCoordinate)
	}

	doc := models.EsActivityDocument{
		ID:              event.ID,
		Name:            event.Name,
		Description:     event.Description,
		Summary:         event.Summary,
		Status:          event.Status,
		QualityScore:    event.QualityScore,
		PopularityScore: event.PopularityScore,
		Price:           event.Price,
		PriceType:       event.PriceType,
		Currency:        event.Currency,
		ViewCount:       event.ViewCount,
		FavoriteCount:   event.FavoriteCount,
		ClickCount:      event.ClickCount,
		Address:         event.Address,
		District:        event.District,
		City:            event.City,
		Region:          event.Region,
		Venue:           event.Venue,
		CategoryNames:   event.CategoryNames,
		CategorySlugs:   event.CategorySlugs,
		TagSlugs:        event.TagSlugs,
		StartDate:       event.StartDate,
		EndDate:         event.EndDate,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
		Timezone:        event.Timezone,
		IsRecurring:     event.IsRecurring,
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}
	if event.Latitude != nil && event.Longitude != nil {
		doc.Coordinate = &models.EsGeoPoint{Lat: *event.Latitude, Lon: *event.Longitude}
	}
	s.logger.Debug("已将活动写入事件映射到 EsActivityDocument 模型",
		zap.String("activity_id", event.ID))

	if err := s.indexRepo.IndexActivity(ctx, doc); err != nil {
		s.logger.Error("调用 ActivityIndexRepository 的 IndexActivity 操作失败",
			zap.String("activity_id", event.ID),
			zap.Error(err),
		)
		return fmt.Errorf("索引活动 ID '%s' 到 Elasticsearch 失败: %w", event.ID, err)
	}

	s.logger.Info("成功处理并索引活动写入事件", zap.String("activity_id", event.ID))
	return nil
}

// HandleActivityDeleteEvent 处理活动删除事件。
// 文档不存在由仓库层视为幂等成功，这里不会收到错误。
func (s *EventService) HandleActivityDeleteEvent(ctx context.Context, event *models.ActivityDeleteEvent) error {
	s.logger.Info("开始处理活动删除事件 (ActivityDeleteEvent)",
		zap.String("activity_id", event.ActivityID))

	if event.ActivityID == "" {
		s.logger.Error("处理 ActivityDeleteEvent 失败：事件中的活动 ID 为空")
		return fmt.Errorf("处理活动删除事件失败: %w", ErrInvalidActivityID)
	}

	if err := s.indexRepo.DeleteActivity(ctx, event.ActivityID); err != nil {
		s.logger.Error("调用 ActivityIndexRepository 的 DeleteActivity 操作失败",
			zap.String("activity_id", event.ActivityID),
			zap.Error(err),
		)
		return fmt.Errorf("从 Elasticsearch 删除活动 ID '%s' 失败: %w", event.ActivityID, err)
	}

	s.logger.Info("成功处理活动删除事件", zap.String("activity_id", event.ActivityID))
	return nil
}
