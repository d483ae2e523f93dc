package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// LogFormat defines the output format of the log
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is the interface for logging SQL and internal messages
type Logger interface {
	SetLevel(level LogLevel)
	SetFormat(format LogFormat)
	SetOutput(w io.Writer)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SQL(sql string, duration time.Duration, args ...any)
}

// stdLogger is the default implementation of Logger
type stdLogger struct {
	level  LogLevel
	format LogFormat
	writer io.Writer
}

// NewStdLogger creates a new standard logger writing text to stdout
func NewStdLogger() Logger {
	return &stdLogger{
		level:  LogLevelInfo,
		format: LogFormatText,
		writer: os.Stdout,
	}
}

func (l *stdLogger) SetLevel(level LogLevel) { l.level = level }
func (l *stdLogger) SetFormat(f LogFormat)   { l.format = f }
func (l *stdLogger) SetOutput(w io.Writer)   { l.writer = w }

func (l *stdLogger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("INFO", fmt.Sprintf(format, args...))
	}
}

func (l *stdLogger) Warn(format string, args ...any) {
	if l.level >= LogLevelWarn {
		l.log("WARN", fmt.Sprintf(format, args...))
	}
}

func (l *stdLogger) Error(format string, args ...any) {
	if l.level >= LogLevelError {
		l.log("ERROR", fmt.Sprintf(format, args...))
	}
}

func (l *stdLogger) SQL(sql string, duration time.Duration, args ...any) {
	if l.level < LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		l.logJSON(map[string]any{
			"level":    "SQL",
			"sql":      sql,
			"duration": duration.String(),
			"args":     args,
		})
		return
	}
	msg := fmt.Sprintf("[%v] %s | args: %v", duration, sql, args)
	l.log("SQL", sqlColor(sql)+msg+ansiReset)
}

func (l *stdLogger) log(level, msg string) {
	now := time.Now()
	if l.format == LogFormatJSON {
		l.logJSON(map[string]any{"level": level, "msg": msg})
		return
	}
	fmt.Fprintf(l.writer, "[GREENSIDE] %s %s: %s\n", now.Format("2006-01-02 15:04:05"), level, msg)
}

func (l *stdLogger) logJSON(data map[string]any) {
	data["time"] = time.Now().Format(time.RFC3339)
	json.NewEncoder(l.writer).Encode(data)
}

func sqlColor(sqlStr string) string {
	s := strings.TrimSpace(strings.ToUpper(sqlStr))
	switch {
	case strings.HasPrefix(s, "SELECT"):
		return ansiYellow
	case strings.HasPrefix(s, "INSERT"), strings.HasPrefix(s, "UPDATE"):
		return ansiGreen
	case strings.HasPrefix(s, "DELETE"):
		return ansiRed
	default:
		return ansiCyan
	}
}
