/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-03 10:16:56
 * @FilePath: \adops-engine\backend\internal\infra\client\mysql_client.go
 * @LastEditTime: 2026-09-11 19:49:45
 */
package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"adops-engine/backend/internal/config"

	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	envMySQLHost     = "MYSQL_HOST"
	envMySQLPort     = "MYSQL_PORT"
	envMySQLUsername = "MYSQL_USERNAME"
	envMySQLPassword = "MYSQL_PASSWORD"
	envMySQLDatabase = "MYSQL_DATABASE"
	envMySQLParams   = "MYSQL_PARAMS"
)

const (
	defaultMySQLPort     = 3306
	defaultMySQLDatabase = "adops"
	defaultMySQLParams   = "charset=utf8mb4&parseTime=true&loc=UTC"
)

// MySQLConfig 描述数据库连接配置项。
type MySQLConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Params   string
}

// LoadMySQLConfig 从环境变量读取 MySQL 配置并填充默认值。
func LoadMySQLConfig() (MySQLConfig, error) {
	config.LoadEnvFiles()

	cfg := MySQLConfig{
		Host:     strings.TrimSpace(os.Getenv(envMySQLHost)),
		Port:     defaultMySQLPort,
		Username: strings.TrimSpace(os.Getenv(envMySQLUsername)),
		Password: os.Getenv(envMySQLPassword),
		Database: strings.TrimSpace(os.Getenv(envMySQLDatabase)),
		Params:   strings.TrimSpace(os.Getenv(envMySQLParams)),
	}
	if raw := strings.TrimSpace(os.Getenv(envMySQLPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return MySQLConfig{}, fmt.Errorf("invalid %s: %w", envMySQLPort, err)
		}
		cfg.Port = port
	}
	if cfg.Database == "" {
		cfg.Database = defaultMySQLDatabase
	}
	if cfg.Params == "" {
		cfg.Params = defaultMySQLParams
	}
	return cfg, nil
}

// NewGORMMySQL 创建 GORM 连接，连接池参数固定为 10 idle / 25 open / 60 分钟。
func NewGORMMySQL(cfg MySQLConfig) (*gorm.DB, error) {
	dsn, err := BuildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(mysqlDriver.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open gorm mysql: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetConnMaxLifetime(60 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return gormDB, nil
}

// NewGORMSQLite 本地模式使用的单文件数据库，目录不存在时自动创建。
func NewGORMSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	gormDB, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// sqlite 只允许单写者
	sqlDB.SetMaxOpenConns(1)
	return gormDB, nil
}

func validateMySQLConfig(cfg MySQLConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("mysql host is required")
	}
	if cfg.Username == "" {
		return fmt.Errorf("mysql username is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("mysql password is required")
	}
	if cfg.Database == "" {
		return fmt.Errorf("mysql database is required")
	}
	return nil
}

// BuildMySQLDSN 在通过校验后拼接 MySQL DSN 字符串。
func BuildMySQLDSN(cfg MySQLConfig) (string, error) {
	if err := validateMySQLConfig(cfg); err != nil {
		return "", err
	}

	port := cfg.Port
	if port == 0 {
		port = defaultMySQLPort
	}
	params := cfg.Params
	if params == "" {
		params = defaultMySQLParams
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		port,
		cfg.Database,
		params,
	), nil
}
