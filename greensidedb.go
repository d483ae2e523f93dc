// Package greensidedb is the data-access core for the Greenside
// golf-course operations backend. It lets domain modules write their
// statements once, in the embedded engine's SQL dialect, and run them
// unchanged against either an on-disk SQLite file or a pooled PostgreSQL
// server, selected by DATABASE_URL at process start.
package greensidedb

import (
	"github.com/greenside-ai/greensidedb/core"
	"github.com/greenside-ai/greensidedb/pool"
)

// Re-export core types and functions
type DB = core.DB
type Scope = core.Scope
type Row = core.Row
type RowSet = core.RowSet
type Config = core.Config
type Mode = core.Mode
type Statement = core.Statement
type Middleware = core.Middleware

const (
	ModeEmbedded  = core.ModeEmbedded
	ModeNetworked = core.ModeNetworked
)

var (
	Open         = core.Open
	FromEnv      = core.FromEnv
	WithCacheTTL = core.WithCacheTTL

	IsDuplicateKey = core.IsDuplicateKey

	ErrConfig        = core.ErrConfig
	ErrScopeClosed   = core.ErrScopeClosed
	ErrPoolExhausted = pool.ErrExhausted
)
