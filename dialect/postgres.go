package dialect

import (
	"regexp"
	"strconv"
	"strings"
)

// PostgreSQL dialect implementation.
//
// Statements arrive in the embedded engine's dialect and are rewritten
// through an ordered pipeline of pure text rules:
//
//  1. autoincrement     INTEGER PRIMARY KEY AUTOINCREMENT -> SERIAL PRIMARY KEY
//  2. date-literal      DATE('now', '-7 days')            -> (CURRENT_DATE + INTERVAL '-7 days')
//  3. date-bound        DATE('now', ? || ' days')         -> (CURRENT_DATE + (CAST(? AS INTEGER) * INTERVAL '1 day'))
//  4. current-date      DATE('now')                       -> CURRENT_DATE
//  5. string-agg        GROUP_CONCAT(col)                 -> STRING_AGG(CAST(col AS TEXT), ',')
//  6. placeholders      each ? outside quotes             -> $1..$N, left to right
//  7. insert-returning  single-row INSERT ... VALUES      -> append RETURNING id
//
// The order is load-bearing: rules 2 and 3 emit text containing `?` and
// must run before rule 6 numbers the markers, and rule 4 must run after
// the two-argument date forms so it cannot match inside them. Later
// rules never reintroduce text matched by earlier ones, so running the
// pipeline twice yields the same output. Unrecognized syntax passes
// through untouched.
type postgres struct{}

func init() {
	Register("postgres", &postgres{})
}

// rule is one named, pure rewrite step.
type rule struct {
	name  string
	apply func(string) string
}

var (
	autoincrementRe = regexp.MustCompile(`(?i)INTEGER PRIMARY KEY AUTOINCREMENT`)
	dateLiteralRe   = regexp.MustCompile(`(?i)DATE\(\s*'now'\s*,\s*'(-?\d+)\s+days?'\s*\)`)
	dateBoundRe     = regexp.MustCompile(`(?i)DATE\(\s*'now'\s*,\s*\?\s*\|\|\s*'\s*days?'\s*\)`)
	currentDateRe   = regexp.MustCompile(`(?i)DATE\(\s*'now'\s*\)`)
	groupConcatRe   = regexp.MustCompile(`(?i)GROUP_CONCAT\((\w+)\)`)
)

var rules = []rule{
	{"autoincrement", func(q string) string {
		return autoincrementRe.ReplaceAllString(q, "SERIAL PRIMARY KEY")
	}},
	{"date-literal", func(q string) string {
		return dateLiteralRe.ReplaceAllString(q, "(CURRENT_DATE + INTERVAL '${1} days')")
	}},
	{"date-bound", func(q string) string {
		// The bound offset needs an explicit numeric cast; the marker it
		// emits is numbered by the placeholders rule below.
		return dateBoundRe.ReplaceAllString(q, "(CURRENT_DATE + (CAST(? AS INTEGER) * INTERVAL '1 day'))")
	}},
	{"current-date", func(q string) string {
		return currentDateRe.ReplaceAllString(q, "CURRENT_DATE")
	}},
	{"string-agg", func(q string) string {
		return groupConcatRe.ReplaceAllString(q, "STRING_AGG(CAST(${1} AS TEXT), ',')")
	}},
	{"placeholders", numberPlaceholders},
	{"insert-returning", appendReturning},
}

func (d *postgres) Name() string { return "postgres" }

func (d *postgres) Translate(query string) string {
	for _, r := range rules {
		query = r.apply(query)
	}
	return query
}

// TranslateBatch applies every rule except insert-returning: a RETURNING
// clause on a repeated-execution statement is unsupported or means
// something else entirely.
func (d *postgres) TranslateBatch(query string) string {
	for _, r := range rules {
		if r.name == "insert-returning" {
			continue
		}
		query = r.apply(query)
	}
	return query
}

// Discards treats embedded-engine pragmas as no-ops rather than sending
// them to a backend that would reject them.
func (d *postgres) Discards(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "PRAGMA")
}

func (d *postgres) ReturnsInsertID(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(upper, "INSERT") && strings.Contains(upper, "RETURNING")
}

// numberPlaceholders rewrites each positional `?` outside of a quoted
// string to $1..$N. Marker order and count must match the source text
// exactly; an off-by-one here shifts every subsequent bound value.
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// appendReturning adds a RETURNING clause to plain single-row inserts so
// the assigned primary key can be read back uniformly. Inserts that
// already return something, and INSERT ... SELECT forms, are left alone.
func appendReturning(query string) string {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "INSERT") {
		return query
	}
	values := strings.Index(upper, "VALUES")
	if values < 0 {
		return query
	}
	if strings.Contains(upper, "RETURNING") {
		return query
	}
	if strings.Contains(upper[:values], "SELECT") {
		return query
	}
	return strings.TrimRight(trimmed, "; \t\n") + " RETURNING id"
}
