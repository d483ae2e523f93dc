package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Checkout bounds for the networked backend. Acquire waits at most
// AcquireTimeout for a free connection before failing with ErrExhausted,
// so a starved caller fails loudly instead of hanging.
const (
	MinIdleConns   = 2
	MaxOpenConns   = 20
	AcquireTimeout = 5 * time.Second
)

// ErrExhausted is returned when every pooled connection stayed checked
// out for the full acquire timeout. It means the system is overloaded,
// not that the caller's data was rejected.
var ErrExhausted = errors.New("connection pool exhausted")

// Pool hands out dedicated connections to transaction scopes. Each
// acquired connection is owned by exactly one scope until it is closed,
// which returns it to the pool.
type Pool interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
	Ping(ctx context.Context) error
	Stats() sql.DBStats
	Close() error
}

// StdPool is an implementation of Pool using the standard library's
// *sql.DB, bounded by min idle and max open connections.
type StdPool struct {
	db      *sql.DB
	timeout time.Duration
}

// NewStdPool wraps db with the given checkout bounds.
func NewStdPool(db *sql.DB, minIdle, maxOpen int, timeout time.Duration) *StdPool {
	db.SetMaxIdleConns(minIdle)
	db.SetMaxOpenConns(maxOpen)
	return &StdPool{db: db, timeout: timeout}
}

// Acquire checks out one connection, blocking while the pool is at its
// maximum and every connection is held by another scope.
func (p *StdPool) Acquire(parent context.Context) (*sql.Conn, error) {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			return nil, fmt.Errorf("%w after %v", ErrExhausted, p.timeout)
		}
		return nil, err
	}
	return conn, nil
}

func (p *StdPool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Stats exposes the underlying pool counters, used to confirm that
// released connections actually come back.
func (p *StdPool) Stats() sql.DBStats {
	return p.db.Stats()
}

func (p *StdPool) Close() error {
	return p.db.Close()
}
