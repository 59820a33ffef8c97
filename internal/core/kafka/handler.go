package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/internal/models"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Handler 实现了 sarama.ConsumerGroupHandler，负责活动同步事件的消费：
// 按主题路由到具体处理函数，经 EventService 执行业务逻辑，
// 可重试错误走指数退避，最终失败的消息转入死信队列 (DLQ)。
type Handler struct {
	eventService   *EventService
	dlqProducer    sarama.SyncProducer
	dlqTopic       string
	maxRetry       uint64
	topicToHandler map[string]MessageHandlerFunc
	ready          chan bool // Setup 完成后关闭，向 ConsumerGroup 发出就绪信号
	logger         *core.ZapLogger
}

// MessageHandlerFunc 是单条 Kafka 消息处理函数的签名。
type MessageHandlerFunc func(ctx context.Context, message *sarama.ConsumerMessage) error

// NewHandler 创建活动事件的 Kafka 消息处理程序。
// upsertTopic 承载活动创建/更新事件，deleteTopic 承载活动删除事件。
func NewHandler(
	eventSvc *EventService,
	producer sarama.SyncProducer,
	dlqTopic string,
	upsertTopic string,
	deleteTopic string,
	logger *core.ZapLogger,
	maxRetries uint64,
) *Handler {
	if logger == nil {
		panic("致命错误 [Kafka Handler]: Logger 实例不能为 nil")
	}
	if eventSvc == nil {
		logger.Error("创建 Kafka Handler 失败: EventService 实例不能为 nil")
		panic("致命错误 [Kafka Handler]: EventService 实例不能为 nil")
	}
	if producer == nil && dlqTopic != "" {
		logger.Warn("DLQ 主题已配置，但 DLQ 生产者未提供。DLQ 功能可能无法正常工作。", zap.String("dlq_topic", dlqTopic))
	}
	if producer != nil && dlqTopic == "" {
		logger.Warn("DLQ 生产者已提供，但 DLQ 主题未配置。DLQ 功能可能无法正常工作。")
	}

	h := &Handler{
		eventService: eventSvc,
		dlqProducer:  producer,
		dlqTopic:     dlqTopic,
		maxRetry:     maxRetries,
		ready:        make(chan bool),
		logger:       logger,
	}

	h.topicToHandler = map[string]MessageHandlerFunc{
		upsertTopic: h.handleActivityUpsertEvent,
		deleteTopic: h.handleActivityDeleteEvent,
	}
	logger.Info("Kafka Handler 初始化完成",
		zap.Strings("subscribed_topics_for_handler", []string{upsertTopic, deleteTopic}),
		zap.Uint64("max_processing_retries", maxRetries),
		zap.Bool("dlq_producer_configured", producer != nil),
		zap.String("dlq_topic_configured", dlqTopic),
	)
	return h
}

// Ready 返回只读通道，Setup 成功后通道被关闭。
func (h *Handler) Ready() <-chan bool {
	return h.ready
}

// Setup 在新的消费者会话开始时由 Sarama 调用，关闭 ready 通道发出就绪信号。
// 重平衡时 Setup 可能被再次调用，需避免重复关闭已关闭的通道。
func (h *Handler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka Handler 开始执行 Setup...", zap.String("member_id", session.MemberID()))
	select {
	case <-h.ready:
		h.logger.Info("Kafka Handler 的 ready 通道已被关闭，Setup 跳过关闭操作。", zap.String("member_id", session.MemberID()))
	default:
		close(h.ready)
		h.logger.Info("Kafka Handler 的 ready 通道已成功关闭。", zap.String("member_id", session.MemberID()))
	}
	h.logger.Info("Kafka Handler Setup 完成，已准备好消费消息。", zap.String("member_id", session.MemberID()))
	return nil
}

// Cleanup 在消费者会话结束时调用，当前没有需要释放的会话级资源。
func (h *Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka Handler 执行 Cleanup 完成。", zap.String("member_id", session.MemberID()))
	return nil
}

// ConsumeClaim 是消息处理的核心循环，由 Sarama 为每个分配的分区声明调用。
// 消息在处理成功或成功转入 DLQ 后才被标记，保证至少一次语义。
func (h *Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	topic := claim.Topic()
	partition := claim.Partition()
	initialOffset := claim.InitialOffset()

	h.logger.Info("开始消费来自特定分区的消息",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("initial_offset", initialOffset),
	)

	for message := range claim.Messages() {
		offset := message.Offset
		h.logger.Debug("收到 Kafka 消息",
			zap.String("topic", message.Topic),
			zap.Int32("partition", message.Partition),
			zap.Int64("offset", offset),
			zap.ByteString("key", message.Key),
			zap.Int("value_length", len(message.Value)),
			zap.Time("kafka_timestamp", message.Timestamp),
		)

		handlerFunc, ok := h.topicToHandler[message.Topic]
		if !ok {
			h.logger.Warn("未找到针对该主题注册的消息处理函数，将跳过此消息",
				zap.String("topic", message.Topic),
				zap.Int64("offset", offset),
				zap.Int32("partition", message.Partition),
			)
			session.MarkMessage(message, "")
			continue
		}

		processingCtx := session.Context()
		processErr := h.processWithRetry(processingCtx, message, handlerFunc)

		if processErr != nil {
			h.logger.Error("消息在所有重试尝试后处理失败，准备发送到死信队列 (DLQ)",
				zap.String("topic", message.Topic),
				zap.Int64("offset", offset),
				zap.Int32("partition", message.Partition),
				zap.Error(processErr),
			)

			// DLQ 发送使用独立的超时上下文，避免 DLQ 阻塞卡住消费循环
			dlqCtx, dlqCancel := context.WithTimeout(context.Background(), 10*time.Second)
			dlqErr := SendToDLQ(dlqCtx, h.dlqProducer, h.dlqTopic, message, processErr, h.logger)
			dlqCancel()

			if dlqErr != nil {
				h.logger.Error("发送消息到死信队列 (DLQ) 失败，可能导致消息丢失，需要人工关注！",
					zap.String("topic", message.Topic),
					zap.Int64("offset", offset),
					zap.Int32("partition", message.Partition),
					zap.NamedError("original_processing_error", processErr),
					zap.NamedError("dlq_send_error", dlqErr),
				)
				// 仍然标记，保证消费流不被单条坏消息卡死，丢失依赖告警兜底
				session.MarkMessage(message, "")
			} else {
				h.logger.Info("消息已成功发送到死信队列 (DLQ)",
					zap.String("original_topic", message.Topic),
					zap.Int64("original_offset", offset),
					zap.Int32("original_partition", message.Partition),
					zap.String("dlq_topic", h.dlqTopic),
				)
				session.MarkMessage(message, "")
			}
		} else {
			session.MarkMessage(message, "")
			h.logger.Debug("消息处理成功",
				zap.String("topic", message.Topic),
				zap.Int64("offset", offset),
				zap.Int32("partition", message.Partition),
			)
		}

		if session.Context().Err() != nil {
			h.logger.Info("会话上下文在消息处理后被取消，准备停止消费此分区",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Int64("last_processed_offset", offset),
				zap.Error(session.Context().Err()),
			)
			return session.Context().Err()
		}
	}

	h.logger.Info("已完成消费分区中的所有消息（或会话结束）",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
	)
	return nil
}

// processWithRetry 使用指数退避策略执行消息处理函数。
// 永久性错误（校验失败、反序列化失败、上下文取消）立即停止重试。
func (h *Handler) processWithRetry(ctx context.Context, message *sarama.ConsumerMessage, handlerFunc MessageHandlerFunc) error {
	bo := backoff.NewExponentialBackOff()
	// 重试次数由 WithMaxRetries 控制，不设总时长上限
	bo.MaxElapsedTime = 0

	retryableOperation := func() error {
		err := handlerFunc(ctx, message)
		if err != nil {
			if isPermanentError(err) {
				h.logger.Error("消息处理遇到永久性错误，将停止重试并标记为最终失败",
					zap.String("topic", message.Topic),
					zap.Int64("offset", message.Offset),
					zap.Int32("partition", message.Partition),
					zap.Error(err),
				)
				return backoff.Permanent(err)
			}
			h.logger.Warn("消息处理失败，将基于退避策略尝试重试",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Int32("partition", message.Partition),
				zap.Error(err),
			)
			return err
		}
		return nil
	}

	notifyFunc := func(err error, nextRetryDuration time.Duration) {
		h.logger.Warn("准备重试消息处理操作",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.Duration("next_retry_in", nextRetryDuration),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(retryableOperation, backoff.WithMaxRetries(bo, h.maxRetry), notifyFunc)
}

// handleActivityUpsertEvent 处理活动写入主题的消息：
// 反序列化为 models.ActivityUpsertEvent 后交给 EventService。
func (h *Handler) handleActivityUpsertEvent(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.ActivityUpsertEvent

	if err := json.Unmarshal(message.Value, &event); err != nil {
		h.logger.Error("反序列化 'ActivityUpsertEvent' 消息失败，数据格式可能不正确或与模型不匹配",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.ByteString("raw_value_snippet", message.Value[:min(1024, len(message.Value))]),
			zap.Error(err),
		)
		return backoff.Permanent(fmt.Errorf("反序列化 ActivityUpsertEvent 失败 (主题: %s, 偏移量: %d): %w", message.Topic, message.Offset, err))
	}

	h.logger.Debug("成功反序列化 ActivityUpsertEvent，准备交由 EventService 处理",
		zap.String("activity_id", event.ID),
		zap.String("topic", message.Topic),
		zap.Int64("offset", message.Offset),
	)

	return h.eventService.HandleActivityUpsertEvent(ctx, &event)
}

// handleActivityDeleteEvent 处理活动删除主题的消息。
// 操作类型与预期不符的消息被跳过，不重试也不进 DLQ。
func (h *Handler) handleActivityDeleteEvent(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.ActivityDeleteEvent

	if err := json.Unmarshal(message.Value, &event); err != nil {
		h.logger.Error("反序列化 'ActivityDeleteEvent' 消息失败，数据格式可能不正确或与模型不匹配",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.ByteString("raw_value_snippet", message.Value[:min(1024, len(message.Value))]),
			zap.Error(err),
		)
		return backoff.Permanent(fmt.Errorf("反序列化 ActivityDeleteEvent 失败 (主题: %s, 偏移量: %d): %w", message.Topic, message.Offset, err))
	}

	expectedOperation := "delete"
	if event.Operation != expectedOperation {
		h.logger.Warn("收到的 ActivityDeleteEvent 操作类型与预期不符，将跳过处理此消息",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.String("activity_id", event.ActivityID),
			zap.String("received_operation", event.Operation),
			zap.String("expected_operation", expectedOperation),
		)
		return nil
	}

	h.logger.Debug("成功反序列化 ActivityDeleteEvent 并验证通过，准备交由 EventService 处理",
		zap.String("activity_id", event.ActivityID),
		zap.String("operation_type", event.Operation),
		zap.String("topic", message.Topic),
		zap.Int64("offset", message.Offset),
	)

	return h.eventService.HandleActivityDeleteEvent(ctx, &event)
}

// isPermanentError 判断给定错误是否为不应重试的永久性错误：
// 上下文取消/超时、事件校验哨兵错误、JSON 反序列化错误。
// 其余错误视为暂时性问题（网络抖动、ES 临时过载），允许重试。
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, ErrInvalidActivityID) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrPartialCoordinate) ||
		errors.Is(err, ErrInvalidEventFormat) {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &syntaxError) || errors.As(err, &unmarshalTypeError) {
		return true
	}

	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
