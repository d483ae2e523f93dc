package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenside-ai/greensidedb/core"
)

// RedisCacheMiddleware caches read results in Redis, for networked
// deployments where several processes share one backend. To use it, add
// a duration to the context with core.WithCacheTTL.
type RedisCacheMiddleware struct {
	Client *redis.Client
}

func NewRedisCache(opt *redis.Options) *RedisCacheMiddleware {
	return &RedisCacheMiddleware{
		Client: redis.NewClient(opt),
	}
}

func (m *RedisCacheMiddleware) Name() string {
	return "RedisCache"
}

func (m *RedisCacheMiddleware) Init(db *core.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Ping(ctx).Err()
}

func (m *RedisCacheMiddleware) Shutdown() error {
	return m.Client.Close()
}

func (m *RedisCacheMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.ExecFunc) (*core.RowSet, error) {
	ttl, ok := cacheTTL(ctx)
	if !ok || !cacheable(stmt) {
		return next(ctx, stmt)
	}

	key := cacheKey(stmt)

	if val, err := m.Client.Get(ctx, key).Result(); err == nil {
		rs := &core.RowSet{}
		if err := json.Unmarshal([]byte(val), rs); err == nil {
			return rs, nil
		}
		// Corrupt entry, fall through to the backend
	}

	rs, err := next(ctx, stmt)
	if err != nil {
		return rs, err
	}

	if data, err := json.Marshal(rs); err == nil {
		m.Client.Set(ctx, key, data, ttl)
	}

	return rs, nil
}
