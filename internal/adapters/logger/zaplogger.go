package logger

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapLogger implements ports.Logger with structured JSON output.
type ZapLogger struct {
	z *zap.Logger
}

// ZapConfig configures NewZapLogger.
type ZapConfig struct {
	Level   LogLevel
	File    string // when set, logs also go to a rotated file
	Service string
}

// NewZapLogger builds a JSON logger writing to stderr and, optionally, a
// lumberjack-rotated file.
func NewZapLogger(cfg ZapConfig) *ZapLogger {
	var sinks []zapcore.WriteSyncer
	sinks = append(sinks, zapcore.Lock(os.Stderr))
	if cfg.File != "" {
		sinks = append(sinks, zapcore.AddSync(RotatingFile(cfg.File)))
	}
	return newZapLogger(zapcore.NewMultiWriteSyncer(sinks...), cfg)
}

// RotatingFile returns a size-rotated log file writer.
func RotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

// NewZapLoggerTo builds a JSON logger writing only to w.
func NewZapLoggerTo(w io.Writer, cfg ZapConfig) *ZapLogger {
	return newZapLogger(zapcore.AddSync(w), cfg)
}

func newZapLogger(ws zapcore.WriteSyncer, cfg ZapConfig) *ZapLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, cfg.Level.zap())
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
	if cfg.Service != "" {
		z = z.With(zap.String("service", cfg.Service))
	}
	return &ZapLogger{z: z}
}

func toZapFields(fields []map[string]interface{}) []zap.Field {
	values, keys := sortedFields(fields)
	out := make([]zap.Field, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, zap.Any(k, values[k]))
	}
	return out
}

func (l *ZapLogger) write(level zapcore.Level, msg string, err error, fields []map[string]interface{}) {
	zf := toZapFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(zf...)
	}
}

// Debug logs a message at Debug level.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(zapcore.DebugLevel, msg, nil, fields)
}

// Info logs a message at Info level.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(zapcore.InfoLevel, msg, nil, fields)
}

// Warn logs a message at Warning level.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(zapcore.WarnLevel, msg, nil, fields)
}

// Error logs an error message at Error level.
func (l *ZapLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.write(zapcore.ErrorLevel, msg, err, fields)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}
