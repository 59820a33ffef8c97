package main

import (
	"encoding/json"
	"flag"
	"log" // 标准日志库，用于早期错误输出
	"path/filepath"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"
	internalKafka "github.com/Xushengqwer/activity_search/internal/core/kafka"
	"github.com/Xushengqwer/activity_search/internal/models"

	"go.uber.org/zap"
)

func ptrFloat64(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

func main() {
	// --- 0. 配置和基础设置 ---
	var configFile string
	defaultConfigPath := filepath.Join("..", "..", "config", "config.development.yaml")

	flag.StringVar(&configFile, "config", defaultConfigPath, "指定配置文件的路径 (相对于当前工作目录或绝对路径)")
	flag.Parse()

	if !filepath.IsAbs(configFile) {
		absPath, err := filepath.Abs(configFile)
		if err != nil {
			log.Fatalf("无法将配置文件路径 '%s' 转换为绝对路径: %v", configFile, err)
		}
		configFile = absPath
	}
	log.Printf("使用的配置文件: %s", configFile)

	// --- 1. 加载配置 ---
	var cfg config.ActivitySearchConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("致命错误: 加载配置文件 '%s' 失败: %v", configFile, err)
	}
	log.Println("配置文件加载成功。")

	// --- 2. 初始化 Logger ---
	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("致命错误: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		logger.Info("正在同步所有日志条目...")
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("警告: ZapLogger Sync 操作失败: %v\n", err)
		}
	}()
	logger.Info("Kafka Seeder 的 Zap Logger 初始化成功。")

	// --- 3. 准备 Kafka 生产者 ---
	kafkaCfg := cfg.KafkaConfig
	if len(kafkaCfg.SubscribedTopics) < 2 {
		logger.Fatal("Kafka 配置错误：subscribedTopics 至少需要包含两个主题 (一个用于活动写入，一个用于删除)。")
	}

	upsertTopic := kafkaCfg.SubscribedTopics[0] // 第一个主题用于活动创建/更新事件
	deleteTopic := kafkaCfg.SubscribedTopics[1] // 第二个主题用于活动删除事件

	logger.Info("Kafka Seeder 将使用以下主题",
		zap.String("写入事件主题 (ActivityUpsert)", upsertTopic),
		zap.String("删除事件主题 (ActivityDelete)", deleteTopic),
	)

	saramaConfig, err := internalKafka.ConfigureSarama(kafkaCfg, logger)
	if err != nil {
		logger.Fatal("配置 Sarama (Kafka 客户端库) 失败", zap.Error(err))
	}

	producer, err := sarama.NewSyncProducer(kafkaCfg.Brokers, saramaConfig)
	if err != nil {
		logger.Fatal("创建 Kafka 同步生产者 (SyncProducer) 失败", zap.Error(err))
	}
	defer func() {
		logger.Info("正在关闭 Kafka 同步生产者...")
		if err := producer.Close(); err != nil {
			logger.Error("关闭 Kafka 同步生产者时发生错误", zap.Error(err))
		} else {
			logger.Info("Kafka 同步生产者已成功关闭。")
		}
	}()
	logger.Info("Kafka 同步生产者 (SyncProducer) 初始化成功并已连接。", zap.Strings("Brokers地址", kafkaCfg.Brokers))

	now := time.Now().UTC()

	// --- 4. 定义活动创建/更新的测试数据 (ActivityUpsertEvents) ---
	testUpsertEvents := []models.ActivityUpsertEvent{
		{
			ID:              "act-1001",
			Name:            "平溪天灯节",
			Description:     "新北市平溪一年一度的天灯施放活动，上千盏天灯同时升空。",
			Summary:         "元宵节传统天灯施放",
			Status:          string(models.StatusActive),
			QualityScore:    92,
			PopularityScore: 88.5,
			Price:           0,
			PriceType:       "free",
			ViewCount:       15400,
			FavoriteCount:   2300,
			ClickCount:      5100,
			Address:         "新北市平溪区静安路二段",
			District:        "平溪区",
			City:            "新北市",
			Region:          "north",
			Venue:           "平溪国中",
			Latitude:        ptrFloat64(25.0257),
			Longitude:       ptrFloat64(121.7391),
			CategoryNames:   []string{"节庆活动"},
			CategorySlugs:   []string{"festival"},
			TagSlugs:        []string{"lantern", "family-friendly"},
			StartDate:       "2026-02-26",
			EndDate:         ptrString("2026-03-03"),
			StartTime:       ptrString("18:00"),
			EndTime:         ptrString("21:30"),
			Timezone:        "Asia/Taipei",
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              "act-1002",
			Name:            "日月潭环湖自行车一日游",
			Description:     "沿着日月潭环湖自行车道骑行，途经向山游客中心与水社坝。",
			Summary:         "环湖骑行体验",
			Status:          string(models.StatusActive),
			QualityScore:    85,
			PopularityScore: 73.2,
			Price:           1200,
			PriceType:       "paid",
			Currency:        "TWD",
			ViewCount:       8900,
			FavoriteCount:   940,
			ClickCount:      2100,
			Address:         "南投县鱼池乡中山路",
			District:        "鱼池乡",
			City:            "南投县",
			Region:          "central",
			Venue:           "向山游客中心",
			Latitude:        ptrFloat64(23.8516),
			Longitude:       ptrFloat64(120.9123),
			CategoryNames:   []string{"户外活动"},
			CategorySlugs:   []string{"outdoor"},
			TagSlugs:        []string{"cycling", "lake"},
			StartDate:       "2026-01-01",
			// EndDate 缺省：长期有效的常设活动
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:              "act-1003",
			Name:            "台南孔庙文化导览",
			Description:     "由在地导览员带领参观全台首学台南孔庙，了解三百年的儒学传承。",
			Summary:         "古迹深度导览",
			Status:          string(models.StatusActive),
			QualityScore:    78,
			PopularityScore: 55.0,
			Price:           300,
			PriceType:       "paid",
			ViewCount:       3200,
			FavoriteCount:   410,
			Address:         "台南市中西区南门路2号",
			District:        "中西区",
			City:            "台南市",
			Region:          "south",
			Venue:           "台南孔庙",
			Latitude:        ptrFloat64(22.9903),
			Longitude:       ptrFloat64(120.2043),
			CategoryNames:   []string{"文化体验"},
			CategorySlugs:   []string{"culture"},
			TagSlugs:        []string{"heritage", "guided-tour"},
			StartDate:       "2026-09-01",
			EndDate:         ptrString("2026-12-31"),
			StartTime:       ptrString("10:00"),
			EndTime:         ptrString("11:30"),
			Timezone:        "Asia/Taipei",
			IsRecurring:     true, // 每周固定场次的导览
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              "act-1004",
			Name:            "太鲁阁峡谷健行",
			Description:     "砂卡礑步道与白杨步道组合行程，欣赏大理石峡谷与溪谷景观。",
			Summary:         "峡谷步道健行",
			Status:          "draft", // 草稿状态，不应出现在检索结果中
			QualityScore:    70,
			PopularityScore: 40.0,
			Price:           800,
			PriceType:       "paid",
			ViewCount:       120,
			FavoriteCount:   18,
			Address:         "花莲县秀林乡富世村",
			District:        "秀林乡",
			City:            "花莲县",
			Region:          "east",
			CategoryNames:   []string{"户外活动"},
			CategorySlugs:   []string{"outdoor"},
			TagSlugs:        []string{"hiking"},
			StartDate:       "2026-10-01",
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              "act-1005",
			Name:            "台北当代艺术展",
			Description:     "汇集本地与国际艺术家的当代艺术联展，展出装置、影像与绘画作品。",
			Summary:         "当代艺术联展",
			Status:          string(models.StatusActive),
			QualityScore:    88,
			PopularityScore: 66.4,
			Price:           450,
			PriceType:       "paid",
			ViewCount:       5600,
			FavoriteCount:   720,
			Address:         "台北市大同区长安西路39号",
			District:        "大同区",
			City:            "台北市",
			Region:          "north",
			Venue:           "台北当代艺术馆",
			// 坐标缺省：不参与空间检索的活动
			CategoryNames: []string{"展览"},
			CategorySlugs: []string{"exhibition"},
			TagSlugs:      []string{"art", "indoor"},
			StartDate:     "2026-08-15",
			EndDate:       ptrString("2026-11-15"),
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}

	// --- 5. 发送活动创建/更新事件到 Kafka ---
	logger.Info("开始发送活动创建/更新 (ActivityUpsert) 事件到 Kafka...", zap.Int("消息数量", len(testUpsertEvents)))
	for _, upsertEvent := range testUpsertEvents {
		payloadBytes, err := json.Marshal(upsertEvent)
		if err != nil {
			logger.Error("序列化 ActivityUpsertEvent 为 JSON 时发生错误",
				zap.String("活动ID", upsertEvent.ID),
				zap.Error(err))
			continue
		}
		msg := &sarama.ProducerMessage{
			Topic: upsertTopic,
			Key:   sarama.StringEncoder(upsertEvent.ID),
			Value: sarama.ByteEncoder(payloadBytes),
		}
		logger.Debug("准备发送的消息详情 (ActivityUpsert)",
			zap.String("消息键(Key)", upsertEvent.ID),
			zap.ByteString("消息体片段(Value snippet)", payloadBytes[:min(100, len(payloadBytes))]))
		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			logger.Error("发送 ActivityUpsert 事件到 Kafka 失败",
				zap.String("目标主题", upsertTopic),
				zap.String("活动ID", upsertEvent.ID),
				zap.Error(err),
			)
		} else {
			logger.Info("ActivityUpsert 事件成功发送到 Kafka",
				zap.String("目标主题", upsertTopic),
				zap.String("活动ID", upsertEvent.ID),
				zap.Int32("分区(Partition)", partition),
				zap.Int64("偏移量(Offset)", offset),
				zap.Time("发送时间戳", time.Now()),
			)
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("所有 ActivityUpsert 事件已发送（或已尝试发送）到 Kafka。")

	// --- 6. 定义活动删除的测试数据 (ActivityDeleteEvents) ---
	testDeleteEvents := []models.ActivityDeleteEvent{
		{
			Operation:  "delete",
			ActivityID: "act-1004", // 删除上面的草稿活动
		},
		{
			Operation:  "delete",
			ActivityID: "act-0009", // 尝试删除一个可能不存在的活动ID，用于测试删除不存在文档的情况
		},
	}

	// --- 7. 发送活动删除事件到 Kafka ---
	logger.Info("开始发送活动删除 (ActivityDelete) 事件到 Kafka...", zap.Int("消息数量", len(testDeleteEvents)))
	for _, deleteEvent := range testDeleteEvents {
		payloadBytes, err := json.Marshal(deleteEvent)
		if err != nil {
			logger.Error("序列化 ActivityDeleteEvent 为 JSON 时发生错误",
				zap.String("活动ID", deleteEvent.ActivityID),
				zap.Error(err))
			continue
		}
		msg := &sarama.ProducerMessage{
			Topic: deleteTopic,
			Key:   sarama.StringEncoder(deleteEvent.ActivityID),
			Value: sarama.ByteEncoder(payloadBytes),
		}
		logger.Debug("准备发送的消息详情 (ActivityDelete)",
			zap.String("消息键(Key)", deleteEvent.ActivityID),
			zap.ByteString("消息体片段(Value snippet)", payloadBytes[:min(100, len(payloadBytes))]))
		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			logger.Error("发送 ActivityDelete 事件到 Kafka 失败",
				zap.String("目标主题", deleteTopic),
				zap.String("活动ID", deleteEvent.ActivityID),
				zap.Error(err),
			)
		} else {
			logger.Info("ActivityDelete 事件成功发送到 Kafka",
				zap.String("目标主题", deleteTopic),
				zap.String("活动ID", deleteEvent.ActivityID),
				zap.Int32("分区(Partition)", partition),
				zap.Int64("偏移量(Offset)", offset),
				zap.Time("发送时间戳", time.Now()),
			)
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("所有 ActivityDelete 事件已发送（或已尝试发送）到 Kafka。")

	logger.Info("所有测试数据均已处理完毕。")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
