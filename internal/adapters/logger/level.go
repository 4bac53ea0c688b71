package logger

import (
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogLevel is the threshold shared by the text and JSON loggers.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel reads LOG_LEVEL. Unrecognised values fall back to INFO.
func ParseLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LevelInfo
}

func (l LogLevel) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// sortedFields returns the keys of the first field map in lexical order,
// so both encoders emit entries in a stable layout.
func sortedFields(fields []map[string]interface{}) (map[string]interface{}, []string) {
	if len(fields) == 0 || len(fields[0]) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(fields[0]))
	for k := range fields[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fields[0], keys
}
