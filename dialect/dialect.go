package dialect

// Dialect adapts statements written in the embedded engine's SQL dialect
// to whatever the active backend understands. Application modules always
// write the embedded dialect; the networked dialect rewrites on the fly.
type Dialect interface {
	// Name returns the database/sql driver name this dialect targets
	Name() string
	// Translate rewrites a single statement into the target dialect
	Translate(query string) string
	// TranslateBatch rewrites a statement for repeated execution with many
	// parameter tuples. It must never inject an id-returning clause.
	TranslateBatch(query string) string
	// Discards reports whether the statement is an administrative no-op
	// for this backend and should not be sent at all
	Discards(query string) bool
	// ReturnsInsertID reports whether the translated statement yields the
	// inserted row's id as a result row rather than through the driver's
	// LastInsertId accessor
	ReturnsInsertID(query string) bool
}

var dialects = make(map[string]Dialect)

// Register registers a dialect for a given driver name
func Register(name string, d Dialect) {
	dialects[name] = d
}

// Get retrieves a registered dialect by driver name
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}
