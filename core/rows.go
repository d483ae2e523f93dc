package core

import (
	"database/sql"
	"encoding/json"
	"strconv"
)

// Row is one result row: an ordered mapping from column name to value,
// addressable by name or by position. Rows are detached from the
// connection that produced them and stay readable after their
// transaction scope has closed.
type Row struct {
	columns []string
	values  []any
	byName  map[string]int
}

func newRow(columns []string, values []any) Row {
	byName := make(map[string]int, len(columns))
	for i, c := range columns {
		// Joined queries can repeat a column name; the last occurrence
		// wins for name lookup, matching ordered-map overwrite semantics.
		byName[c] = i
	}
	return Row{columns: columns, values: values, byName: byName}
}

// Get returns the value for the named column.
func (r Row) Get(name string) (any, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Value returns the value for the named column, or nil when absent.
func (r Row) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// Index returns the value at position i in result order.
func (r Row) Index(i int) any {
	return r.values[i]
}

// Columns returns the column names in result order.
func (r Row) Columns() []string {
	return r.columns
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.values)
}

// RowSet is the uniform result shape for both backends. Statements that
// produce no rows return an empty, non-nil RowSet.
type RowSet struct {
	rows []Row
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	return len(rs.rows)
}

// Rows returns all rows in result order.
func (rs *RowSet) Rows() []Row {
	return rs.rows
}

// First returns the first row, if any.
func (rs *RowSet) First() (Row, bool) {
	if len(rs.rows) == 0 {
		return Row{}, false
	}
	return rs.rows[0], true
}

// newRowSet drains native rows into detached Rows, zipping column
// metadata with positional values. Driver []byte text is converted to
// string so values outlive the connection.
func newRowSet(rows *sql.Rows) (*RowSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &RowSet{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.rows = append(rs.rows, newRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

type rowSetJSON struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// MarshalJSON encodes the set as one column header plus value rows, the
// shape cache middlewares store.
func (rs *RowSet) MarshalJSON() ([]byte, error) {
	doc := rowSetJSON{Rows: make([][]any, 0, len(rs.rows))}
	if len(rs.rows) > 0 {
		doc.Columns = rs.rows[0].columns
	}
	for _, r := range rs.rows {
		doc.Rows = append(doc.Rows, r.values)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds a set written by MarshalJSON. Numeric values
// come back as float64, the usual JSON round-trip caveat.
func (rs *RowSet) UnmarshalJSON(data []byte) error {
	var doc rowSetJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	rs.rows = rs.rows[:0]
	for _, vals := range doc.Rows {
		rs.rows = append(rs.rows, newRow(doc.Columns, vals))
	}
	return nil
}

// toInt64 coerces the backend's notion of an integer id to int64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}
