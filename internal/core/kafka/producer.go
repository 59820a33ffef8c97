package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/internal/models"

	"go.uber.org/zap"
)

// NewSyncProducer 初始化一个 Kafka 同步生产者。
// 同步生产者在发送后阻塞等待 Broker 确认（确认级别取决于 Producer.RequiredAcks），
// 用于发送必须确保落盘的消息，即发送到 DLQ 的消息。
func NewSyncProducer(cfg config.KafkaConfig, clientConfig *sarama.Config, logger *core.ZapLogger) (sarama.SyncProducer, error) {
	if logger == nil {
		return nil, errors.New("创建 Kafka 同步生产者失败：logger 实例不能为空")
	}
	if clientConfig == nil {
		logger.Error("创建 Kafka 同步生产者失败：Sarama 客户端配置 (clientConfig) 不能为空")
		return nil, errors.New("创建 Kafka 同步生产者失败：Sarama 客户端配置 (clientConfig) 不能为空")
	}
	if len(cfg.Brokers) == 0 {
		logger.Error("创建 Kafka 同步生产者失败：Broker 地址列表不能为空")
		return nil, errors.New("创建 Kafka 同步生产者失败：Broker 地址列表不能为空")
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, clientConfig)
	if err != nil {
		logger.Error("创建 Kafka 同步生产者失败",
			zap.Strings("brokers", cfg.Brokers),
			zap.Error(err),
		)
		return nil, fmt.Errorf("创建 Kafka 同步生产者失败，目标 Broker: %v, 错误: %w", cfg.Brokers, err)
	}

	logger.Info("Kafka 同步生产者初始化成功", zap.Strings("brokers", cfg.Brokers))
	return producer, nil
}

// SendToDLQ 将处理失败的消息发送到死信队列 (DLQ)。
// DLQ 消息保留原始消息体和 Key，并在头部附加原始主题、分区、偏移量
// 与失败原因，供后续离线排查。
func SendToDLQ(ctx context.Context,
	producer sarama.SyncProducer,
	dlqTopic string,
	originalMessage *sarama.ConsumerMessage,
	processingError error,
	logger *core.ZapLogger) error {

	if logger == nil {
		fmt.Println("严重错误: SendToDLQ 函数接收到的 logger 实例为 nil")
		return errors.New("发送到 DLQ 失败：logger 实例不能为空")
	}
	if originalMessage == nil {
		logger.Error("发送消息到 DLQ 失败：原始消息 (originalMessage) 为空")
		return errors.New("发送到 DLQ 失败：原始消息 (originalMessage) 不能为空")
	}
	if producer == nil {
		logger.Error("发送消息到 DLQ 失败：DLQ 生产者实例 (producer) 为空",
			zap.String("original_topic", originalMessage.Topic),
			zap.String("dlq_topic", dlqTopic),
		)
		return errors.New("发送到 DLQ 失败：DLQ 生产者实例 (producer) 未配置")
	}
	if dlqTopic == "" {
		logger.Error("发送消息到 DLQ 失败：DLQ 主题名称 (dlqTopic) 为空",
			zap.String("original_topic", originalMessage.Topic),
		)
		return errors.New("发送到 DLQ 失败：DLQ 主题名称 (dlqTopic) 未配置")
	}

	headers := []sarama.RecordHeader{
		{Key: []byte("dlq_original_topic"), Value: []byte(originalMessage.Topic)},
		{Key: []byte("dlq_original_partition"), Value: []byte(strconv.FormatInt(int64(originalMessage.Partition), 10))},
		{Key: []byte("dlq_original_offset"), Value: []byte(strconv.FormatInt(originalMessage.Offset, 10))},
		{Key: []byte("dlq_timestamp_utc"), Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	}
	if processingError != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("dlq_processing_error"), Value: []byte(processingError.Error())})
	}
	if originalMessage.Key != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("dlq_original_key"), Value: originalMessage.Key})
	}
	if originalMessage.Timestamp.IsZero() {
		headers = append(headers, sarama.RecordHeader{Key: []byte("dlq_original_message_timestamp_utc"), Value: []byte("original_timestamp_is_zero")})
	} else {
		headers = append(headers, sarama.RecordHeader{Key: []byte("dlq_original_message_timestamp_utc"), Value: []byte(originalMessage.Timestamp.UTC().Format(time.RFC3339Nano))})
	}

	dlqMessage := &sarama.ProducerMessage{
		Topic:   dlqTopic,
		Value:   sarama.ByteEncoder(originalMessage.Value),
		Headers: headers,
		Key:     sarama.ByteEncoder(originalMessage.Key),
	}

	// SendMessage 是阻塞调用，放进 goroutine 配合 ctx 实现超时控制，
	// 避免 Broker 无响应时卡死整个消费循环。
	sendResultChan := make(chan struct {
		partition int32
		offset    int64
		err       error
	}, 1)

	go func() {
		partition, offset, err := producer.SendMessage(dlqMessage)
		sendResultChan <- struct {
			partition int32
			offset    int64
			err       error
		}{partition, offset, err}
	}()

	select {
	case res := <-sendResultChan:
		if res.err != nil {
			logger.Error("发送消息到 DLQ 失败",
				zap.String("dlq_topic", dlqTopic),
				zap.String("original_topic", originalMessage.Topic),
				zap.Int64("original_offset", originalMessage.Offset),
				zap.Error(res.err),
			)
			return fmt.Errorf("发送消息到 DLQ 失败 (原始消息偏移量 %d，主题 '%s'): %w", originalMessage.Offset, originalMessage.Topic, res.err)
		}
		logger.Info("消息成功发送到 DLQ",
			zap.String("dlq_topic", dlqTopic),
			zap.Int32("dlq_partition", res.partition),
			zap.Int64("dlq_offset", res.offset),
			zap.String("original_topic", originalMessage.Topic),
			zap.Int64("original_offset", originalMessage.Offset),
		)
		return nil
	case <-ctx.Done():
		logger.Warn("发送消息到 DLQ 操作因上下文取消或超时而中止",
			zap.String("dlq_topic", dlqTopic),
			zap.String("original_topic", originalMessage.Topic),
			zap.Int64("original_offset", originalMessage.Offset),
			zap.Error(ctx.Err()),
		)
		return fmt.Errorf("发送消息到 DLQ 操作因上下文取消或超时而中止 (原始消息偏移量 %d，主题 '%s'): %w", originalMessage.Offset, originalMessage.Topic, ctx.Err())
	}
}

// AnalyticsProducer 把搜索分析事件发布到 Kafka 分析主题。
// 底层是异步生产者：发布只是把消息投入发送队列，搜索请求不等待 Broker 确认，
// 发送失败由后台 goroutine 记录日志后丢弃。
type AnalyticsProducer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *core.ZapLogger
}

// NewAnalyticsProducer 初始化搜索分析事件的异步生产者。
// AnalyticsTopic 未配置时返回 nil 生产者且不报错，调用方按未启用处理。
func NewAnalyticsProducer(cfg config.KafkaConfig, clientConfig *sarama.Config, logger *core.ZapLogger) (*AnalyticsProducer, error) {
	if logger == nil {
		return nil, errors.New("创建搜索分析事件生产者失败：logger 实例不能为空")
	}
	if cfg.AnalyticsTopic == "" {
		logger.Info("未配置搜索分析事件主题 (AnalyticsTopic)，分析事件将不会发布到 Kafka")
		return nil, nil
	}
	if clientConfig == nil {
		logger.Error("创建搜索分析事件生产者失败：Sarama 客户端配置 (clientConfig) 不能为空")
		return nil, errors.New("创建搜索分析事件生产者失败：Sarama 客户端配置 (clientConfig) 不能为空")
	}
	if len(cfg.Brokers) == 0 {
		logger.Error("创建搜索分析事件生产者失败：Broker 地址列表不能为空")
		return nil, errors.New("创建搜索分析事件生产者失败：Broker 地址列表不能为空")
	}

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, clientConfig)
	if err != nil {
		logger.Error("创建 Kafka 异步生产者失败",
			zap.Strings("brokers", cfg.Brokers),
			zap.Error(err),
		)
		return nil, fmt.Errorf("创建 Kafka 异步生产者失败，目标 Broker: %v, 错误: %w", cfg.Brokers, err)
	}

	ap := &AnalyticsProducer{
		producer: producer,
		topic:    cfg.AnalyticsTopic,
		logger:   logger,
	}

	// 异步生产者要求持续消费 Successes/Errors 通道，否则内部缓冲会被写满。
	go func() {
		for range producer.Successes() {
		}
	}()
	go func() {
		for pErr := range producer.Errors() {
			logger.Warn("搜索分析事件发送失败，事件已丢弃",
				zap.String("topic", cfg.AnalyticsTopic),
				zap.Error(pErr.Err),
			)
		}
	}()

	logger.Info("搜索分析事件生产者初始化成功",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.AnalyticsTopic),
	)
	return ap, nil
}

// PublishSearchEvent 把一个搜索分析事件投入发送队列。
// 序列化失败或队列投递失败只记日志，不向调用方返回错误。
func (p *AnalyticsProducer) PublishSearchEvent(event *models.SearchAnalyticsEvent) {
	if p == nil || event == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("序列化搜索分析事件失败，事件已丢弃", zap.Error(err))
		return
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(payload),
	}
}

// Close 关闭异步生产者，等待发送队列中剩余的消息发送完毕。
func (p *AnalyticsProducer) Close() error {
	if p == nil {
		return nil
	}
	p.logger.Info("正在关闭搜索分析事件生产者...", zap.String("topic", p.topic))
	if err := p.producer.Close(); err != nil {
		p.logger.Error("关闭搜索分析事件生产者失败", zap.Error(err))
		return fmt.Errorf("关闭搜索分析事件生产者失败: %w", err)
	}
	p.logger.Info("搜索分析事件生产者已关闭")
	return nil
}
