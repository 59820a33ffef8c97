package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"

	"go.uber.org/zap"
)

// ConfigureSarama 根据应用程序的 Kafka 配置，创建一个同时适用于消费者和生产者的 Sarama 配置对象。
// 消费者侧禁用偏移量自动提交，由 Handler 在消息处理完成后手动标记，保证至少一次语义；
// 生产者侧的设置同时服务于 DLQ 同步生产者和分析事件异步生产者。
func ConfigureSarama(cfg config.KafkaConfig, logger *core.ZapLogger) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()

	// --- Kafka 版本 ---
	if cfg.KafkaVersion != "" {
		version, err := sarama.ParseKafkaVersion(cfg.KafkaVersion)
		if err != nil {
			logger.Error("无效的 Kafka 版本配置",
				zap.String("configured_version", cfg.KafkaVersion),
				zap.Error(err))
			return nil, fmt.Errorf("无效的 Kafka 版本配置 '%s': %w", cfg.KafkaVersion, err)
		}
		saramaCfg.Version = version
		logger.Info("使用 Kafka 版本", zap.String("version", version.String()))
	} else {
		logger.Warn("未在配置中指定 Kafka 版本，将使用 Sarama 的默认版本。建议显式配置以确保兼容性。")
	}

	// --- 消费者设置 ---
	saramaCfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()

	if cfg.ConsumerGroup.AutoOffsetReset == "earliest" {
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
		logger.Info("消费者初始偏移量设置为 'earliest' (OffsetOldest)")
	} else {
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
		logger.Info("消费者初始偏移量设置为 'latest' (OffsetNewest)")
	}

	if cfg.ConsumerGroup.SessionTimeoutMs > 0 {
		saramaCfg.Consumer.Group.Session.Timeout = time.Duration(cfg.ConsumerGroup.SessionTimeoutMs) * time.Millisecond
		logger.Info("消费者会话超时设置为", zap.Duration("timeout", saramaCfg.Consumer.Group.Session.Timeout))
	} else {
		saramaCfg.Consumer.Group.Session.Timeout = 30 * time.Second
		logger.Info("消费者会话超时使用默认值", zap.Duration("timeout", saramaCfg.Consumer.Group.Session.Timeout))
	}

	// 手动管理偏移量：只有处理成功（或已转入 DLQ）的消息才会被标记提交。
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = false
	logger.Info("消费者偏移量自动提交已禁用，将由应用程序手动管理。")

	// --- 生产者设置 (DLQ 同步生产者 / 分析事件异步生产者) ---

	// SyncProducer 要求 Return.Successes 与 Return.Errors 同时开启。
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	logger.Info("生产者配置：将返回成功和失败的发送结果 (适用于 SyncProducer)。")

	if cfg.Producer.RequestTimeout > 0 {
		saramaCfg.Producer.Timeout = cfg.Producer.RequestTimeout
		logger.Info("生产者请求超时设置为", zap.Duration("timeout", saramaCfg.Producer.Timeout))
	} else {
		saramaCfg.Producer.Timeout = 10 * time.Second
		logger.Info("生产者请求超时使用默认值", zap.Duration("timeout", saramaCfg.Producer.Timeout))
	}

	originalAcks := cfg.Producer.Acks
	var acksModeStr string
	switch originalAcks {
	case "all", "-1":
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
		acksModeStr = "WaitForAll (-1)"
	case "1", "leader":
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
		acksModeStr = "WaitForLocal (1)"
	case "0", "none":
		saramaCfg.Producer.RequiredAcks = sarama.NoResponse
		acksModeStr = "NoResponse (0)"
	default:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
		acksModeStr = "WaitForAll (-1) [默认]"
		logger.Warn("无效的生产者 ACKS 配置，将使用 'all' (WaitForAll)",
			zap.String("configured_acks", originalAcks),
			zap.String("used_acks_description", acksModeStr),
		)
	}
	logger.Info("生产者确认级别 (ACKS) 设置为",
		zap.String("acks_mode_description", acksModeStr),
		zap.String("configured_value", originalAcks),
		zap.Int16("acks_value_internal", int16(saramaCfg.Producer.RequiredAcks)),
	)

	return saramaCfg, nil
}
