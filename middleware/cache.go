package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greenside-ai/greensidedb/core"
)

// cacheTTL extracts the TTL a caller attached to the context via
// core.WithCacheTTL. A zero or negative TTL disables caching for the
// statement.
func cacheTTL(ctx context.Context) (time.Duration, bool) {
	ttl, ok := core.CacheTTL(ctx)
	if !ok || ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

// cacheable reports whether the statement is a read worth caching.
// Writes must always reach the backend.
func cacheable(stmt *core.Statement) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt.Query)), "SELECT")
}

// cacheKey derives the cache key from the translated statement text and
// its bound values.
func cacheKey(stmt *core.Statement) string {
	return fmt.Sprintf("greenside:cache:%s:%v", stmt.Query, stmt.Args)
}
