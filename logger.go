package redis

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging severity, matching the four levels packetd/logger
// exposes.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Logger is the observability interface the run supervisor (C9) and
// handshaker (C6) log through: resolve/connect/TLS/read/write outcomes
// and hello/setup failures with the server's error text (spec §6).
type Logger interface {
	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}

// NopLogger discards everything. The zero value is ready to use.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// ZapLogger wraps a zap.SugaredLogger, built the same way
// packetd/logger.New does: a production encoder with a configurable
// level.
type ZapLogger struct {
	sugared *zap.SugaredLogger
}

// NewZapLogger builds a ZapLogger writing to stdout at level, one of
// "debug", "info", "warn", "error".
func NewZapLogger(level Level) *ZapLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(os.Stdout),
		toZapLevel(level),
	)
	l := zap.New(core)
	return &ZapLogger{sugared: l.Sugar()}
}

func (l *ZapLogger) Debugf(template string, args ...any) { l.sugared.Debugf(template, args...) }
func (l *ZapLogger) Infof(template string, args ...any)  { l.sugared.Infof(template, args...) }
func (l *ZapLogger) Warnf(template string, args ...any)  { l.sugared.Warnf(template, args...) }
func (l *ZapLogger) Errorf(template string, args ...any) { l.sugared.Errorf(template, args...) }

// Sync flushes buffered log entries, mirroring zap.Logger.Sync.
func (l *ZapLogger) Sync() error { return l.sugared.Sync() }

func toZapLevel(l Level) zapcore.Level {
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
