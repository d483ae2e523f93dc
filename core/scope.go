package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Scope is a transaction scope: one connection and one transaction bound
// to a single unit of work. Scopes are created by DB.WithinScope, are
// never shared between goroutines, and are dead once it returns.
type Scope struct {
	db       *DB
	tx       *sql.Tx
	ctx      context.Context
	lastID   int64
	released bool
}

// WithinScope runs fn inside a transaction scope. On a nil return the
// transaction commits; on an error or panic it rolls back. The
// connection is released on every path, even when rollback itself fails,
// so it can never stay checked out indefinitely.
func (db *DB) WithinScope(ctx context.Context, fn func(s *Scope) error) (err error) {
	conn, release, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	db.logSQL("BEGIN", 0)

	s := &Scope{db: db, tx: tx, ctx: ctx}

	defer func() {
		s.released = true
		if p := recover(); p != nil {
			start := time.Now()
			_ = tx.Rollback()
			db.logSQL("ROLLBACK", time.Since(start))
			panic(p)
		}
		if err != nil {
			start := time.Now()
			_ = tx.Rollback()
			db.logSQL("ROLLBACK", time.Since(start))
			return
		}
		start := time.Now()
		err = tx.Commit()
		db.logSQL("COMMIT", time.Since(start))
	}()

	err = fn(s)
	return err
}

// Exec runs one source-dialect statement within the scope and returns
// its rows. Write statements and reads that match nothing both return an
// empty RowSet, never nil and never an error for the empty case.
func (s *Scope) Exec(query string, args ...any) (*RowSet, error) {
	if s.released {
		return nil, ErrScopeClosed
	}

	d := s.db.dialect
	if d.Discards(query) {
		// Embedded-only administrative statement; answer with an empty
		// result so callers never branch on backend.
		return &RowSet{}, nil
	}

	stmt := &Statement{Query: d.Translate(query), Args: args}
	return s.db.runChain(s.ctx, stmt, s.execute)
}

// ExecMany executes one statement repeatedly with each parameter tuple
// in batches (bulk inserts). It never injects an id-returning clause and
// exposes no last-inserted identifier.
func (s *Scope) ExecMany(query string, batches [][]any) error {
	if s.released {
		return ErrScopeClosed
	}

	d := s.db.dialect
	if d.Discards(query) {
		return nil
	}

	translated := d.TranslateBatch(query)
	start := time.Now()
	for i, args := range batches {
		if _, err := s.tx.ExecContext(s.ctx, translated, args...); err != nil {
			s.db.logSQL(translated, time.Since(start), args...)
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	s.db.logSQL(translated, time.Since(start))
	return nil
}

// LastInsertID returns the primary key assigned by the most recent
// insert in this scope. The value reads the same in both modes even
// though the backends recover it through different mechanisms.
func (s *Scope) LastInsertID() int64 {
	return s.lastID
}

// runChain threads stmt through the registered middlewares, ending at
// final.
func (db *DB) runChain(ctx context.Context, stmt *Statement, final ExecFunc) (*RowSet, error) {
	next := final
	for i := len(db.middlewares) - 1; i >= 0; i-- {
		m := db.middlewares[i]
		downstream := next
		next = func(ctx context.Context, stmt *Statement) (*RowSet, error) {
			return m.Process(ctx, stmt, downstream)
		}
	}
	return next(ctx, stmt)
}

// execute is the terminal ExecFunc: the translated statement hits the
// backend and the result is adapted into a RowSet.
func (s *Scope) execute(ctx context.Context, stmt *Statement) (*RowSet, error) {
	d := s.db.dialect
	start := time.Now()

	if returnsRows(stmt.Query) {
		rows, err := s.tx.QueryContext(ctx, stmt.Query, stmt.Args...)
		s.db.logSQL(stmt.Query, time.Since(start), stmt.Args...)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		rs, err := newRowSet(rows)
		if err != nil {
			return nil, err
		}
		if d.ReturnsInsertID(stmt.Query) {
			// The injected RETURNING row carries the new id; consumers
			// read it through LastInsertID, not the row set.
			if row, ok := rs.First(); ok {
				s.lastID = toInt64(row.Index(0))
			}
			return &RowSet{}, nil
		}
		return rs, nil
	}

	res, err := s.tx.ExecContext(ctx, stmt.Query, stmt.Args...)
	s.db.logSQL(stmt.Query, time.Since(start), stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	if isInsert(stmt.Query) {
		if id, err := res.LastInsertId(); err == nil {
			s.lastID = id
		}
	}
	return &RowSet{}, nil
}

// returnsRows reports whether the statement produces a result set and
// must be issued as a query rather than an exec.
func returnsRows(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return strings.Contains(upper, "RETURNING")
}

func isInsert(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT")
}
