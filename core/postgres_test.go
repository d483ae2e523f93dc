package core

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func setupPostgresTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping Postgres tests")
	}

	db, err := Open(Config{URL: dsn})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mustExec(t, db, "DROP TABLE IF EXISTS pg_crews")
	mustExec(t, db, "CREATE TABLE pg_crews (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, hired DATE)")
	return db
}

func TestPostgresIntegration(t *testing.T) {
	db := setupPostgresTestDB(t)

	t.Run("InsertAndLastInsertID", func(t *testing.T) {
		var id int64
		err := db.WithinScope(context.Background(), func(s *Scope) error {
			if _, err := s.Exec("INSERT INTO pg_crews (name) VALUES (?)", "Alice"); err != nil {
				return err
			}
			id = s.LastInsertID()
			return nil
		})
		if err != nil {
			t.Fatalf("scope failed: %v", err)
		}
		if id <= 0 {
			t.Fatalf("expected positive last-insert id, got %d", id)
		}
	})

	t.Run("EmptySelect", func(t *testing.T) {
		err := db.WithinScope(context.Background(), func(s *Scope) error {
			rs, err := s.Exec("SELECT * FROM pg_crews WHERE id = ?", 99999)
			if err != nil {
				return err
			}
			if rs.Len() != 0 {
				t.Errorf("expected empty row set, got %d rows", rs.Len())
			}
			return nil
		})
		if err != nil {
			t.Fatalf("scope failed: %v", err)
		}
	})

	t.Run("PragmaIsNoop", func(t *testing.T) {
		err := db.WithinScope(context.Background(), func(s *Scope) error {
			rs, err := s.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				return err
			}
			if rs == nil || rs.Len() != 0 {
				t.Error("pragma should answer with an empty result in networked mode")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("scope failed: %v", err)
		}
	})

	t.Run("DateArithmetic", func(t *testing.T) {
		err := db.WithinScope(context.Background(), func(s *Scope) error {
			if _, err := s.Exec("INSERT INTO pg_crews (name, hired) VALUES (?, DATE('now', '-3 days'))", "Bob"); err != nil {
				return err
			}
			literal, err := s.Exec("SELECT name FROM pg_crews WHERE hired >= DATE('now', '-7 days')")
			if err != nil {
				return err
			}
			bound, err := s.Exec("SELECT name FROM pg_crews WHERE hired >= DATE('now', ? || ' days')", -7)
			if err != nil {
				return err
			}
			if literal.Len() != bound.Len() {
				t.Errorf("literal and bound offsets disagree: %d vs %d rows", literal.Len(), bound.Len())
			}
			return nil
		})
		if err != nil {
			t.Fatalf("scope failed: %v", err)
		}
	})

	t.Run("RollbackReturnsConnection", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithinScope(context.Background(), func(s *Scope) error {
			if _, err := s.Exec("INSERT INTO pg_crews (name) VALUES (?)", "never lands"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected the caller's error back, got %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for {
			stats, ok := db.PoolStats()
			if ok && stats.InUse == 0 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("connection still checked out after rollback: %+v", stats)
			}
			time.Sleep(10 * time.Millisecond)
		}
	})
}
