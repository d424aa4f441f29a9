/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-03 16:34:40
 * @FilePath: \adops-engine\backend\internal\infra\client\redis_client.go
 * @LastEditTime: 2026-09-10 09:12:05
 */
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"adops-engine/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	envRedisEndpoint = "REDIS_ENDPOINT"
	envRedisPassword = "REDIS_PASSWORD"
	envRedisDB       = "REDIS_DB"
)

const (
	defaultRedisPort    = 6379
	defaultRedisTimeout = 5 * time.Second
)

// ErrRedisNotConfigured 未设置 REDIS_ENDPOINT，Redis 在本服务中是可选依赖。
var ErrRedisNotConfigured = errors.New(envRedisEndpoint + " not set")

// RedisOptions 描述连接 Redis 所需的配置。
type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
	Timeout  time.Duration
}

// Addr 返回 host:port。
func (o RedisOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// LoadRedisOptions 从环境变量读取 Redis 连接信息。
func LoadRedisOptions() (RedisOptions, error) {
	config.LoadEnvFiles()

	endpoint := strings.TrimSpace(os.Getenv(envRedisEndpoint))
	if endpoint == "" {
		return RedisOptions{}, ErrRedisNotConfigured
	}

	host, port, err := parseEndpoint(endpoint, defaultRedisPort)
	if err != nil {
		return RedisOptions{}, fmt.Errorf("invalid redis endpoint: %w", err)
	}

	opts := RedisOptions{
		Host:     host,
		Port:     port,
		Password: os.Getenv(envRedisPassword),
		Timeout:  defaultRedisTimeout,
	}
	if raw := strings.TrimSpace(os.Getenv(envRedisDB)); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return RedisOptions{}, fmt.Errorf("invalid redis db: %w", err)
		}
		opts.DB = db
	}
	return opts, nil
}

// NewRedisClient 创建 redis.Client 并 PING 一次，失败时关闭连接。
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("redis host is required")
	}
	if opts.Port == 0 {
		opts.Port = defaultRedisPort
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRedisTimeout
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func parseEndpoint(endpoint string, defaultPort int) (string, int, error) {
	endpoint = strings.TrimPrefix(strings.TrimSpace(endpoint), "redis://")
	if endpoint == "" {
		return "", 0, fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(endpoint, ":") {
		return endpoint, defaultPort, nil
	}

	host, rawPort, err := net.SplitHostPort(endpoint)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
