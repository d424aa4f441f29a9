/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-06 09:31:52
 * @FilePath: \adops-engine\backend\internal\infra\ratelimit\limiter.go
 * @LastEditTime: 2026-09-06 10:18:37
 */
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision 描述一次限流判定。
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// Limiter 固定窗口限流器；limit <= 0 表示不限流。
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// New 有 Redis 时使用 Redis 计数，否则退化为进程内计数。
func New(client *redis.Client, prefix string) Limiter {
	if client == nil {
		return NewMemoryLimiter()
	}
	return NewRedisLimiter(client, prefix)
}

// RedisLimiter 多实例部署时共享计数。
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter 构造 Redis 限流器，prefix 为空时使用 "adops:ratelimit"。
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "adops:ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow 对 key 自增，只在窗口开始时设置过期时间，窗口内不续期。
func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || r == nil || r.client == nil {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	if window <= 0 {
		window = time.Minute
	}

	namespaced := r.prefix + ":" + key
	pipe := r.client.TxPipeline()
	counter := pipe.Incr(ctx, namespaced)
	ttlCmd := pipe.PTTL(ctx, namespaced)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		// 新窗口（或过期时间丢失）才设置 TTL
		if err := r.client.PExpire(ctx, namespaced, window).Err(); err != nil {
			return Decision{}, err
		}
		ttl = window
	}

	count := int(counter.Val())
	if count > limit {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: limit - count}, nil
}

// MemoryLimiter 单进程计数，本地模式与测试使用。
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	expires time.Time
}

// NewMemoryLimiter 构建内存版限流器。
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

// Allow 与 RedisLimiter 语义一致。
func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) (Decision, error) {
	if limit <= 0 || m == nil {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	if win <= 0 {
		win = time.Minute
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(win)}
		m.windows[key] = w
		m.evictExpired(now)
	}
	w.count++

	if w.count > limit {
		return Decision{Allowed: false, RetryAfter: w.expires.Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: limit - w.count}, nil
}

func (m *MemoryLimiter) evictExpired(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, key)
		}
	}
}
