package middleware

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/greenside-ai/greensidedb/core"
)

func sampleRowSet(t *testing.T) *core.RowSet {
	t.Helper()

	rs := &core.RowSet{}
	if err := json.Unmarshal([]byte(`{"columns":["id","name"],"rows":[[1,"Alice"]]}`), rs); err != nil {
		t.Fatalf("failed to build sample row set: %v", err)
	}
	return rs
}

func newCountingNext(t *testing.T, calls *int) core.ExecFunc {
	rs := sampleRowSet(t)
	return func(ctx context.Context, stmt *core.Statement) (*core.RowSet, error) {
		*calls++
		return rs, nil
	}
}

func TestMemoryCacheHit(t *testing.T) {
	m := NewMemoryCache()
	if err := m.Init(nil); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer m.Shutdown()

	calls := 0
	next := newCountingNext(t, &calls)
	stmt := &core.Statement{Query: "SELECT id, name FROM crews", Args: []any{}}
	ctx := core.WithCacheTTL(context.Background(), time.Minute)

	if _, err := m.Process(ctx, stmt, next); err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	rs, err := m.Process(ctx, stmt, next)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("backend hit %d times, want 1 (second read should be cached)", calls)
	}
	if rs.Len() != 1 {
		t.Errorf("cached row set has %d rows, want 1", rs.Len())
	}
	row, _ := rs.First()
	if got := row.Value("name"); got != "Alice" {
		t.Errorf("cached value = %v", got)
	}
}

func TestMemoryCacheBypassedWithoutTTL(t *testing.T) {
	m := NewMemoryCache()
	defer close(m.stopClean)

	calls := 0
	next := newCountingNext(t, &calls)
	stmt := &core.Statement{Query: "SELECT id FROM crews"}

	for i := 0; i < 2; i++ {
		if _, err := m.Process(context.Background(), stmt, next); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("statements without a cache TTL must always hit the backend, got %d calls", calls)
	}
}

func TestMemoryCacheNeverCachesWrites(t *testing.T) {
	m := NewMemoryCache()
	defer close(m.stopClean)

	calls := 0
	next := newCountingNext(t, &calls)
	stmt := &core.Statement{Query: "INSERT INTO crews (name) VALUES ($1)", Args: []any{"Bob"}}
	ctx := core.WithCacheTTL(context.Background(), time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := m.Process(ctx, stmt, next); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("write statements must always reach the backend, got %d calls", calls)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	m := NewMemoryCache()
	defer close(m.stopClean)

	calls := 0
	next := newCountingNext(t, &calls)
	stmt := &core.Statement{Query: "SELECT id FROM crews"}
	ctx := core.WithCacheTTL(context.Background(), 10*time.Millisecond)

	if _, err := m.Process(ctx, stmt, next); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := m.Process(ctx, stmt, next); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("expired entry was served from cache, got %d calls", calls)
	}
}
