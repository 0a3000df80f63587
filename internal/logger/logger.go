// Package logger provides the structured logging interface used across newswatch.
package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface handed to every component.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that carries fields on every entry.
	With(fields ...Field) Logger
	Sync() error
}

// Field is a type alias for zap.Field.
type Field = zap.Field

type zapLogger struct {
	zapLogger *zap.Logger
}

var (
	// logLevels maps config levels to zapcore levels.
	logLevels = map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}

	// Field keys shared by the crawl pipeline.
	fieldKeys = struct {
		Component string
		CycleID   string
		Source    string
		URL       string
	}{
		Component: "component",
		CycleID:   "cycle_id",
		Source:    "source",
		URL:       "url",
	}
)

// New builds a logger from cfg. Zero values fall back to defaults.
func New(cfg Config) (Logger, error) {
	cfg.SetDefaults()

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.ConsoleSeparator = " | "
	}

	var encoder zapcore.Encoder
	if cfg.Encoding == EncodingConsole {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	sink, _, err := zap.Open(cfg.OutputPaths...)
	if err != nil {
		return nil, fmt.Errorf("open log outputs: %w", err)
	}

	core := zapcore.NewCore(encoder, sink, getLogLevel(cfg.Level))

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &zapLogger{zapLogger: zap.New(core, opts...)}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) Logger {
	return &zapLogger{zapLogger: z}
}

func getLogLevel(level string) zapcore.Level {
	lvl, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return zapcore.InfoLevel
	}
	return lvl
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.zapLogger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field) { l.zapLogger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field) { l.zapLogger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.zapLogger.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{zapLogger: l.zapLogger.With(fields...)}
}

func (l *zapLogger) Sync() error {
	return l.zapLogger.Sync()
}

// WithComponent tags every entry of the returned logger with a component name.
func WithComponent(l Logger, component string) Logger {
	return l.With(zap.String(fieldKeys.Component, component))
}

// CycleID identifies the crawl cycle an entry belongs to.
func CycleID(id string) Field { return zap.String(fieldKeys.CycleID, id) }

// Source names the news source an entry refers to.
func Source(name string) Field { return zap.String(fieldKeys.Source, name) }

// URL carries the page or article URL an entry refers to.
func URL(u string) Field { return zap.String(fieldKeys.URL, u) }

// Field constructors.
func String(key, val string) Field { return zap.String(key, val) }
func Int(key string, val int) Field { return zap.Int(key, val) }
func Int64(key string, val int64) Field { return zap.Int64(key, val) }
func Bool(key string, val bool) Field { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Time(key string, val time.Time) Field { return zap.Time(key, val) }
func Any(key string, val any) Field { return zap.Any(key, val) }
func Strings(key string, val []string) Field { return zap.Strings(key, val) }

// Error creates an error field with the key "error".
func Error(err error) Field { return zap.Error(err) }
