/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-10 19:54:47
 * @FilePath: \adops-engine\backend\internal\app\app.go
 * @LastEditTime: 2026-09-14 11:20:36
 */
package app

import (
	"context"
	"errors"
	"fmt"

	"adops-engine/backend/internal/config"
	domain "adops-engine/backend/internal/domain/creative"
	platformdomain "adops-engine/backend/internal/domain/platform"
	"adops-engine/backend/internal/infra/client"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resources 进程级共享的外部连接。
type Resources struct {
	Runtime config.RuntimeFlags
	DBGorm  *gorm.DB
	Redis   *redis.Client
}

// Bootstrap 按运行模式打开数据库（local 为 SQLite，online 为 MySQL），Redis 可选，最后迁移表结构。
func Bootstrap(ctx context.Context, logger *zap.SugaredLogger) (*Resources, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	flags := config.LoadRuntimeFlags()

	var (
		db  *gorm.DB
		err error
	)
	if flags.IsLocal() {
		db, err = client.NewGORMSQLite(flags.Local.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open local sqlite: %w", err)
		}
		logger.Infow("using local sqlite", "path", flags.Local.DBPath)
	} else {
		mysqlCfg, err := client.LoadMySQLConfig()
		if err != nil {
			return nil, fmt.Errorf("load mysql config: %w", err)
		}
		db, err = client.NewGORMMySQL(mysqlCfg)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		logger.Infow("mysql connected", "host", mysqlCfg.Host, "database", mysqlCfg.Database)
	}

	resources := &Resources{Runtime: flags, DBGorm: db}

	redisOpts, err := client.LoadRedisOptions()
	switch {
	case errors.Is(err, client.ErrRedisNotConfigured):
		logger.Infow("redis not configured; rate limiting falls back to in-process counters")
	case err != nil:
		_ = resources.Close()
		return nil, fmt.Errorf("load redis options: %w", err)
	default:
		rdb, err := client.NewRedisClient(ctx, redisOpts)
		if err != nil {
			_ = resources.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		resources.Redis = rdb
		logger.Infow("redis connected", "addr", redisOpts.Addr(), "db", redisOpts.DB)
	}

	if err := Migrate(db); err != nil {
		_ = resources.Close()
		return nil, err
	}
	return resources, nil
}

// Migrate 创建或更新四张业务表。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.PerformanceRecord{},
		&domain.AdCreative{},
		&domain.ABTest{},
		&platformdomain.Credential{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close 释放数据库与 Redis 连接。
func (r *Resources) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.DBGorm != nil {
		if sqlDB, err := r.DBGorm.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
