package config

import "time"

// PostgresConfig 定义了扫描检索路径所依赖的 PostgreSQL 连接配置。
// ES 不可用时，搜索会静默降级到这条关系库路径，所以连接池参数要给足余量。
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns" default:"20"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns" default:"10"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime" default:"5m"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime" default:"2m"`
}
