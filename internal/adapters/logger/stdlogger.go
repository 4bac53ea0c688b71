package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// StdLogger writes one human-readable line per entry:
//
//	2025/01/02 15:04:05.000000 [WARN] Rejected alert payload | error: ... | requestID=...
type StdLogger struct {
	out   *log.Logger
	level LogLevel
}

func NewStdLogger(level LogLevel) *StdLogger {
	return NewStdLoggerTo(os.Stderr, level)
}

func NewStdLoggerTo(w io.Writer, level LogLevel) *StdLogger {
	return &StdLogger{
		out:   log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		level: level,
	}
}

func (l *StdLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.emit(LevelDebug, msg, nil, fields)
}

func (l *StdLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.emit(LevelInfo, msg, nil, fields)
}

func (l *StdLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.emit(LevelWarn, msg, nil, fields)
}

func (l *StdLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.emit(LevelError, msg, err, fields)
}

func (l *StdLogger) emit(level LogLevel, msg string, err error, fields []map[string]interface{}) {
	if level < l.level {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if err != nil {
		fmt.Fprintf(&b, " | error: %v", err)
	}
	if values, keys := sortedFields(fields); len(keys) > 0 {
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, values[k])
		}
	}
	l.out.Println(b.String())
}
