package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/activity_search/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres 驱动注册
	"go.uber.org/zap"
)

// NewPostgresDB 初始化 PostgreSQL 连接池并执行 Ping 检查。
// 扫描检索路径和搜索日志都依赖该连接，启动期连接失败直接返回错误。
func NewPostgresDB(cfg config.PostgresConfig, logger *core.ZapLogger) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		logger.Error("未配置 PostgreSQL DSN")
		return nil, fmt.Errorf("postgreSQL DSN 未在配置中指定")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		logger.Error("打开 PostgreSQL 连接失败", zap.Error(err))
		return nil, fmt.Errorf("打开 PostgreSQL 连接失败: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		logger.Error("Ping PostgreSQL 失败", zap.Error(err))
		return nil, fmt.Errorf("ping PostgreSQL 失败: %w", err)
	}

	logger.Info("PostgreSQL 连接池初始化成功",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return db, nil
}
