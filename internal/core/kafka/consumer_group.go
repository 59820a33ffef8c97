package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"

	"go.uber.org/zap"
)

// ConsumerGroup 代表一个 Sarama 消费者组及其关联的消息处理程序 (handler)。
// 它封装了消费者组的生命周期管理、消费循环以及优雅关闭的逻辑。
type ConsumerGroup struct {
	cg      sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
	topics  []string
	wg      *sync.WaitGroup // 用于在关闭时等待消费 goroutine 退出
	logger  *core.ZapLogger
	groupID string
}

// NewConsumerGroup 初始化并设置活动事件消费者组实例。
// 订阅的主题来自 cfg.SubscribedTopics，列表为空或含空主题名视为配置错误。
func NewConsumerGroup(
	cfg config.KafkaConfig,
	clientConfig *sarama.Config,
	handler sarama.ConsumerGroupHandler,
	logger *core.ZapLogger,
) (*ConsumerGroup, error) {
	if logger == nil {
		return nil, errors.New("初始化消费者组失败：logger 实例不能为空")
	}
	if handler == nil {
		logger.Error("初始化消费者组失败：消息处理器 (handler) 不能为空")
		return nil, errors.New("初始化消费者组失败：消息处理器 (handler) 不能为空")
	}
	if cfg.GroupID == "" {
		logger.Error("初始化消费者组失败：消费者组 ID (GroupID) 不能为空")
		return nil, errors.New("初始化消费者组失败：消费者组 ID (GroupID) 不能为空")
	}
	if clientConfig == nil {
		logger.Error("初始化消费者组失败：Sarama 客户端配置 (clientConfig) 不能为空")
		return nil, errors.New("初始化消费者组失败：Sarama 客户端配置 (clientConfig) 不能为空")
	}

	if len(cfg.SubscribedTopics) == 0 {
		logger.Error("初始化消费者组失败：订阅的主题列表 (SubscribedTopics) 不能为空")
		return nil, errors.New("初始化消费者组失败：订阅的主题列表 (SubscribedTopics) 不能为空")
	}
	validTopics := make([]string, 0, len(cfg.SubscribedTopics))
	for _, topic := range cfg.SubscribedTopics {
		if topic == "" {
			logger.Error("初始化消费者组失败：订阅的主题列表中包含空主题名称", zap.Strings("configured_topics", cfg.SubscribedTopics))
			return nil, errors.New("初始化消费者组失败：订阅的主题列表中包含空主题名称")
		}
		validTopics = append(validTopics, topic)
	}
	logger.Info("消费者将订阅以下主题", zap.Strings("topics", validTopics), zap.String("group_id", cfg.GroupID))

	cg, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, clientConfig)
	if err != nil {
		logger.Error("创建 Kafka 消费者组客户端失败",
			zap.String("group_id", cfg.GroupID),
			zap.Strings("brokers", cfg.Brokers),
			zap.Error(err),
		)
		return nil, fmt.Errorf("创建 Kafka 消费者组 '%s' 失败: %w", cfg.GroupID, err)
	}
	logger.Info("Kafka 消费者组客户端初始化成功", zap.String("group_id", cfg.GroupID))

	return &ConsumerGroup{
		cg:      cg,
		handler: handler,
		topics:  validTopics,
		wg:      new(sync.WaitGroup),
		logger:  logger,
		groupID: cfg.GroupID,
	}, nil
}

// Start 在后台 goroutine 中启动消费循环，方法本身非阻塞。
// Consume 在重平衡时会正常返回，循环负责重新加入；上下文取消后循环退出。
// 如果 handler 提供了 Ready() 通道，Start 会等待其就绪信号。
func (c *ConsumerGroup) Start(ctx context.Context) {
	c.logger.Info("准备启动消费者组",
		zap.String("group_id", c.groupID),
		zap.Strings("topics", c.topics),
	)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		c.logger.Info("消费者组的消费 goroutine 已启动", zap.String("group_id", c.groupID))

		for {
			if err := c.cg.Consume(ctx, c.topics, c.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					c.logger.Info("消费者组的消费循环已优雅停止",
						zap.String("group_id", c.groupID),
						zap.Error(err),
					)
					return
				}
				c.logger.Error("消费者组 Consume 操作出错，将在短暂延迟后重试",
					zap.String("group_id", c.groupID),
					zap.Error(err),
				)

				// 延迟重试，避免持续性故障下的紧密循环
				select {
				case <-time.After(5 * time.Second):
					c.logger.Info("延迟结束，尝试重新执行 Consume 操作", zap.String("group_id", c.groupID))
				case <-ctx.Done():
					c.logger.Info("消费者组在重试延迟期间，上下文被取消，将退出",
						zap.String("group_id", c.groupID),
						zap.Error(ctx.Err()),
					)
					return
				}
			}

			if ctx.Err() != nil {
				c.logger.Info("上下文已取消，退出消费者组的消费循环",
					zap.String("group_id", c.groupID),
					zap.Error(ctx.Err()),
				)
				return
			}
			c.logger.Info("Consume 调用正常结束 (可能发生重平衡)，将重新尝试加入消费", zap.String("group_id", c.groupID))
		}
	}()

	if chProvider, ok := c.handler.(interface{ Ready() <-chan bool }); ok {
		c.logger.Info("正在等待消费者消息处理器 (handler) 准备就绪...", zap.String("group_id", c.groupID))
		select {
		case <-chProvider.Ready():
			c.logger.Info("消费者消息处理器 (handler) 已准备就绪", zap.String("group_id", c.groupID))
		case <-ctx.Done():
			c.logger.Warn("在等待消息处理器 (handler) 就绪时，上下文被取消",
				zap.String("group_id", c.groupID),
				zap.Error(ctx.Err()),
			)
		}
	} else {
		c.logger.Info("消费者消息处理器 (handler) 未提供 Ready() 通道，跳过就绪状态确认", zap.String("group_id", c.groupID))
	}

	c.logger.Info("消费者组已启动，消费 goroutine 正在运行",
		zap.String("group_id", c.groupID),
		zap.Strings("subscribed_topics", c.topics),
	)
}

// Close 优雅地关闭消费者组：先关闭 Sarama 客户端使 Consume 返回，
// 再带超时等待消费 goroutine 退出。
func (c *ConsumerGroup) Close() error {
	c.logger.Info("开始关闭消费者组...", zap.String("group_id", c.groupID))

	closeErr := c.cg.Close()
	if closeErr != nil {
		c.logger.Error("关闭 Sarama 消费者组客户端时发生错误",
			zap.String("group_id", c.groupID),
			zap.Error(closeErr),
		)
	} else {
		c.logger.Info("Sarama 消费者组客户端已成功请求关闭", zap.String("group_id", c.groupID))
	}

	c.logger.Info("正在等待消费者组的消费 goroutine 退出...", zap.String("group_id", c.groupID))
	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()

	waitTimeout := 15 * time.Second
	select {
	case <-finished:
		c.logger.Info("消费者组的消费 goroutine 已成功退出", zap.String("group_id", c.groupID))
	case <-time.After(waitTimeout):
		c.logger.Warn("等待消费者组的消费 goroutine 退出超时",
			zap.String("group_id", c.groupID),
			zap.Duration("timeout_duration", waitTimeout),
		)
		if closeErr == nil {
			return fmt.Errorf("关闭消费者组 '%s' 时，等待内部 goroutine 退出超时 (%v)", c.groupID, waitTimeout)
		}
	}

	if closeErr != nil {
		return fmt.Errorf("关闭消费者组 '%s' 失败 (Sarama 客户端关闭错误): %w", c.groupID, closeErr)
	}

	c.logger.Info("消费者组已成功关闭", zap.String("group_id", c.groupID))
	return nil
}
