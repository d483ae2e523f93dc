package core

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/greenside-ai/greensidedb/dialect"
	"github.com/greenside-ai/greensidedb/logger"
	"github.com/greenside-ai/greensidedb/pool"
)

// DB is the entry point for the persistence core. One DB is created per
// process; the backend mode is fixed at Open and never re-evaluated.
type DB struct {
	cfg     Config
	dialect dialect.Dialect
	logger  logger.Logger

	// The networked pool is built lazily, exactly once, on first use.
	poolOnce sync.Once
	pool     pool.Pool
	poolErr  error

	middlewares []Middleware
}

// Open selects the backend from cfg and prepares the DB. It does not
// dial: in networked mode the pool comes up on the first transaction
// scope, and Ping is the fail-fast hook for process startup.
func Open(cfg Config) (*DB, error) {
	d, ok := dialect.Get(cfg.Mode().String())
	if !ok {
		return nil, fmt.Errorf("%w: no dialect registered for %q", ErrConfig, cfg.Mode())
	}
	if cfg.Mode() == ModeEmbedded && cfg.Path == "" {
		return nil, fmt.Errorf("%w: embedded mode needs a database file path", ErrConfig)
	}
	return &DB{
		cfg:     cfg,
		dialect: d,
		logger:  logger.NewStdLogger(),
	}, nil
}

// Mode reports the active backend mode.
func (db *DB) Mode() Mode {
	return db.cfg.Mode()
}

// SetLogger sets a custom logger for the DB.
func (db *DB) SetLogger(l logger.Logger) {
	db.logger = l
}

// Use registers and initializes a statement middleware. Middlewares run
// in registration order around every Exec inside a scope.
func (db *DB) Use(m Middleware) error {
	if err := m.Init(db); err != nil {
		return fmt.Errorf("init middleware %s: %w", m.Name(), err)
	}
	db.middlewares = append(db.middlewares, m)
	return nil
}

// Ping verifies the configured backend is reachable. A process that
// cannot reach its backend should treat the error as fatal.
func (db *DB) Ping(ctx context.Context) error {
	conn, release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return conn.PingContext(ctx)
}

// PoolStats exposes the networked pool's counters. The second return is
// false in embedded mode or before the pool exists.
func (db *DB) PoolStats() (sql.DBStats, bool) {
	if db.pool == nil {
		return sql.DBStats{}, false
	}
	return db.pool.Stats(), true
}

// Close shuts down registered middlewares and, when present, the pool.
func (db *DB) Close() error {
	var first error
	for _, m := range db.middlewares {
		if err := m.Shutdown(); err != nil && first == nil {
			first = err
		}
	}
	if db.pool != nil {
		if err := db.pool.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// networkedPool lazily builds the shared pool. Construction is safe
// under concurrent first use, and the first failure is sticky: a process
// that cannot reach its configured backend fails visibly on every call
// rather than retrying behind the caller's back.
func (db *DB) networkedPool() (pool.Pool, error) {
	db.poolOnce.Do(func() {
		sqlDB, err := sql.Open("postgres", db.cfg.URL)
		if err != nil {
			db.poolErr = fmt.Errorf("%w: %v", ErrConfig, err)
			return
		}
		db.pool = pool.NewStdPool(sqlDB, pool.MinIdleConns, pool.MaxOpenConns, pool.AcquireTimeout)
		db.logger.Info("postgres pool initialized (%d-%d connections)", pool.MinIdleConns, pool.MaxOpenConns)
	})
	return db.pool, db.poolErr
}

// acquire hands out a connection per the active mode: a fresh WAL-mode
// embedded handle, or a checkout from the shared pool. The release func
// must be called exactly once; releasing closes the embedded handle and
// returns the pooled connection to its pool.
func (db *DB) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	if db.cfg.Mode() == ModeNetworked {
		p, err := db.networkedPool()
		if err != nil {
			return nil, nil, err
		}
		conn, err := p.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conn, func() { _ = conn.Close() }, nil
	}

	sqlDB, err := sql.Open("sqlite3", embeddedDSN(db.cfg.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return conn, func() {
		_ = conn.Close()
		_ = sqlDB.Close()
	}, nil
}

// embeddedDSN enables write-ahead logging and a busy timeout on every
// fresh embedded handle.
func embeddedDSN(path string) string {
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// logSQL logs the SQL execution if a logger is set.
func (db *DB) logSQL(sql string, duration time.Duration, args ...any) {
	if db.logger != nil {
		db.logger.SQL(sql, duration, args...)
	}
}
