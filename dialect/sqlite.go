package dialect

// SQLite dialect implementation.
//
// Application statements are already written in the embedded dialect, so
// translation is the identity and the driver's own LastInsertId works.
type sqlite3 struct{}

func init() {
	Register("sqlite3", &sqlite3{})
}

func (d *sqlite3) Name() string { return "sqlite3" }

func (d *sqlite3) Translate(query string) string { return query }

func (d *sqlite3) TranslateBatch(query string) string { return query }

// Discards always reports false: pragmas are meaningful to the embedded
// engine and must reach it.
func (d *sqlite3) Discards(query string) bool { return false }

func (d *sqlite3) ReturnsInsertID(query string) bool { return false }
