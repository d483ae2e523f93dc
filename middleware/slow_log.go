package middleware

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/greenside-ai/greensidedb/core"
)

// SlowLogMiddleware logs statements that take longer than the specified
// threshold.
type SlowLogMiddleware struct {
	Threshold time.Duration
	LogPath   string
	logger    *log.Logger
	file      *os.File
}

// NewSlowLog creates a new SlowLogMiddleware.
// threshold: statements taking longer than this will be logged.
// logPath: path to the log file. If empty, logs to standard output.
func NewSlowLog(threshold time.Duration, logPath string) *SlowLogMiddleware {
	return &SlowLogMiddleware{
		Threshold: threshold,
		LogPath:   logPath,
	}
}

// SetOutput sets the output destination for the logger.
// This is useful for testing or custom logging.
func (m *SlowLogMiddleware) SetOutput(w io.Writer) {
	m.logger = log.New(w, "[SLOW SQL] ", log.LstdFlags)
}

func (m *SlowLogMiddleware) Name() string {
	return "SlowLog"
}

func (m *SlowLogMiddleware) Init(db *core.DB) error {
	// If logger is already set (e.g. by SetOutput), don't overwrite it
	if m.logger != nil {
		return nil
	}

	if m.LogPath != "" {
		f, err := os.OpenFile(m.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open slow log file: %w", err)
		}
		m.file = f
		m.logger = log.New(f, "[SLOW SQL] ", log.LstdFlags)
	} else {
		m.logger = log.New(os.Stdout, "[SLOW SQL] ", log.LstdFlags)
	}
	return nil
}

func (m *SlowLogMiddleware) Shutdown() error {
	if m.file != nil {
		return m.file.Close()
	}
	return nil
}

func (m *SlowLogMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.ExecFunc) (*core.RowSet, error) {
	start := time.Now()
	rs, err := next(ctx, stmt)
	duration := time.Since(start)

	if duration > m.Threshold {
		rows := 0
		if rs != nil {
			rows = rs.Len()
		}
		m.logger.Printf("duration=%v | sql=%s | args=%v | rows=%d | err=%v", duration, stmt.Query, stmt.Args, rows, err)
	}

	return rs, err
}
