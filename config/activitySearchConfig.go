package config

import "github.com/Xushengqwer/go-common/config"

// ActivitySearchConfig 是本服务的顶层配置，通过 core.LoadConfig 从 YAML + 环境变量加载。
type ActivitySearchConfig struct {
	Server              config.ServerConfig `mapstructure:"server" json:"server" yaml:"server"`
	ZapConfig           config.ZapConfig    `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	TracerConfig        config.TracerConfig `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	KafkaConfig         KafkaConfig         `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	ElasticsearchConfig ESConfig            `mapstructure:"elasticsearchConfig" json:"elasticsearchConfig" yaml:"elasticsearchConfig"`
	PostgresConfig      PostgresConfig      `mapstructure:"postgresConfig" json:"postgresConfig" yaml:"postgresConfig"`
	SearchConfig        SearchConfig        `mapstructure:"searchConfig" json:"searchConfig" yaml:"searchConfig"`
}
