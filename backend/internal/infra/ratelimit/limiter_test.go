package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisLimiter(client, "test")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "generate:1.2.3.4", 2, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	res, err := limiter.Allow(ctx, "generate:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("third request should be limited")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry after %v", res.RetryAfter)
	}

	mr.FastForward(time.Minute + time.Second)
	res, err = limiter.Allow(ctx, "generate:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !res.Allowed || res.Remaining != 1 {
		t.Fatalf("expected fresh window, got %+v", res)
	}
}

func TestRedisLimiterSeparatesKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := New(client, "")
	ctx := context.Background()
	if res, _ := limiter.Allow(ctx, "a", 1, time.Minute); !res.Allowed {
		t.Fatalf("first a should pass")
	}
	if res, _ := limiter.Allow(ctx, "b", 1, time.Minute); !res.Allowed {
		t.Fatalf("first b should pass")
	}
	if !mr.Exists("adops:ratelimit:a") {
		t.Fatalf("expected default prefix to be applied")
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	if res, _ := limiter.Allow(ctx, "k", 1, 10*time.Second); !res.Allowed {
		t.Fatalf("first request should pass")
	}
	res, _ := limiter.Allow(ctx, "k", 1, 10*time.Second)
	if res.Allowed || res.RetryAfter != 10*time.Second {
		t.Fatalf("expected limit with 10s retry, got %+v", res)
	}

	now = now.Add(10 * time.Second)
	if res, _ := limiter.Allow(ctx, "k", 1, 10*time.Second); !res.Allowed {
		t.Fatalf("window should have reset")
	}
}

func TestLimiterDisabledWhenLimitNotPositive(t *testing.T) {
	res, err := NewMemoryLimiter().Allow(context.Background(), "k", 0, time.Minute)
	if err != nil || !res.Allowed || res.Remaining != -1 {
		t.Fatalf("expected unlimited decision, got %+v err=%v", res, err)
	}
	if _, ok := New(nil, "").(*MemoryLimiter); !ok {
		t.Fatalf("expected memory limiter without redis")
	}
}
