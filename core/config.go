package core

import (
	"os"
	"path/filepath"
)

// Environment variables consulted by FromEnv.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvDataDir     = "DATA_DIR"
)

const defaultDBFile = "greenside.db"

// Mode identifies which backend the process runs against. It is decided
// once at startup and never re-evaluated; there is no hot switch.
type Mode int

const (
	// ModeEmbedded runs against an in-process SQLite file.
	ModeEmbedded Mode = iota
	// ModeNetworked runs against PostgreSQL over a pooled connection.
	ModeNetworked
)

// String returns the driver name the mode maps to.
func (m Mode) String() string {
	if m == ModeNetworked {
		return "postgres"
	}
	return "sqlite3"
}

// Config selects the backend for the lifetime of the process.
type Config struct {
	// URL is the networked backend's connection string. When non-empty
	// the process runs in ModeNetworked and Path is ignored.
	URL string
	// Path is the embedded database file, used only in ModeEmbedded.
	Path string
}

// FromEnv builds a Config from the process environment. DATABASE_URL
// selects the networked backend; otherwise the embedded file lives under
// DATA_DIR, defaulting to a `data` directory if one exists and the
// current directory if not.
func FromEnv() Config {
	cfg := Config{URL: os.Getenv(EnvDatabaseURL)}
	if cfg.URL != "" {
		return cfg
	}

	dir := os.Getenv(EnvDataDir)
	if dir == "" {
		dir = "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			dir = "data"
		}
	}
	cfg.Path = filepath.Join(dir, defaultDBFile)
	return cfg
}

// Mode reports the backend selected by this configuration.
func (c Config) Mode() Mode {
	if c.URL != "" {
		return ModeNetworked
	}
	return ModeEmbedded
}
