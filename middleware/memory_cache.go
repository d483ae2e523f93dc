package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/greenside-ai/greensidedb/core"
)

// MemoryCacheMiddleware caches read results in process memory. It is the
// cache of choice in embedded mode, where no shared cache server exists.
// To use it, add a duration to the context with core.WithCacheTTL.
type MemoryCacheMiddleware struct {
	items     map[string]memoryCacheEntry
	mu        sync.RWMutex
	stopClean chan struct{}
}

type memoryCacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
}

func NewMemoryCache() *MemoryCacheMiddleware {
	return &MemoryCacheMiddleware{
		items:     make(map[string]memoryCacheEntry),
		stopClean: make(chan struct{}),
	}
}

func (m *MemoryCacheMiddleware) Name() string {
	return "MemoryCache"
}

func (m *MemoryCacheMiddleware) Init(db *core.DB) error {
	go m.cleanupLoop()
	return nil
}

func (m *MemoryCacheMiddleware) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopClean:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *MemoryCacheMiddleware) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, v := range m.items {
		if now.After(v.ExpiresAt) {
			delete(m.items, k)
		}
	}
}

func (m *MemoryCacheMiddleware) Shutdown() error {
	close(m.stopClean)
	return nil
}

func (m *MemoryCacheMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.ExecFunc) (*core.RowSet, error) {
	ttl, ok := cacheTTL(ctx)
	if !ok || !cacheable(stmt) {
		return next(ctx, stmt)
	}

	key := cacheKey(stmt)

	m.mu.RLock()
	entry, found := m.items[key]
	m.mu.RUnlock()

	if found {
		if time.Now().Before(entry.ExpiresAt) {
			rs := &core.RowSet{}
			if err := json.Unmarshal(entry.Data, rs); err == nil {
				return rs, nil
			}
			// Corrupt entry, fall through to the backend
		} else {
			// Expired, delete (lazy delete)
			m.mu.Lock()
			delete(m.items, key)
			m.mu.Unlock()
		}
	}

	rs, err := next(ctx, stmt)
	if err != nil {
		return rs, err
	}

	if data, err := json.Marshal(rs); err == nil {
		m.mu.Lock()
		m.items[key] = memoryCacheEntry{
			Data:      data,
			ExpiresAt: time.Now().Add(ttl),
		}
		m.mu.Unlock()
	}

	return rs, nil
}
