package middleware

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenside-ai/greensidedb/core"
)

func setupRedisCache(t *testing.T) *RedisCacheMiddleware {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}

	m := NewRedisCache(&redis.Options{Addr: addr})
	if err := m.Init(nil); err != nil {
		t.Fatalf("failed to reach redis: %v", err)
	}
	t.Cleanup(func() { m.Shutdown() })
	return m
}

func TestRedisCacheHit(t *testing.T) {
	m := setupRedisCache(t)

	calls := 0
	next := newCountingNext(t, &calls)
	stmt := &core.Statement{
		Query: "SELECT id, name FROM crews WHERE id = $1",
		Args:  []any{time.Now().UnixNano()}, // unique key per run
	}
	ctx := core.WithCacheTTL(context.Background(), time.Minute)

	if _, err := m.Process(ctx, stmt, next); err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	rs, err := m.Process(ctx, stmt, next)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("backend hit %d times, want 1", calls)
	}
	if rs.Len() != 1 {
		t.Errorf("cached row set has %d rows, want 1", rs.Len())
	}
}
