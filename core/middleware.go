package core

import (
	"context"
	"time"
)

// Component is the base interface for pluggable pieces of the core.
type Component interface {
	Name() string
	Init(db *DB) error
	Shutdown() error
}

// Statement is one translated statement about to hit the backend.
type Statement struct {
	Query string
	Args  []any
}

// ExecFunc is the function type for the next step in the middleware chain.
type ExecFunc func(ctx context.Context, stmt *Statement) (*RowSet, error)

// Middleware is the interface for statement interceptors. Process runs
// inside the issuing transaction scope, between translation and the
// backend.
type Middleware interface {
	Component
	Process(ctx context.Context, stmt *Statement, next ExecFunc) (*RowSet, error)
}

type cacheTTLKey struct{}

// WithCacheTTL marks ctx so cache middlewares hold read results for ttl.
func WithCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, cacheTTLKey{}, ttl)
}

// CacheTTL reads the duration set by WithCacheTTL.
func CacheTTL(ctx context.Context) (time.Duration, bool) {
	ttl, ok := ctx.Value(cacheTTLKey{}).(time.Duration)
	return ttl, ok
}
