// Package logx provides structured logging functionality
package logx

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger to provide a consistent interface
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
	scope string
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
	// scopes keeps handed-out scoped loggers so Init can rebuild them in place.
	scopes = map[string]*Logger{}
)

func init() {
	lvl := zapcore.InfoLevel
	if IsLocalDev(os.Getenv("APP_ENV")) {
		lvl = zapcore.DebugLevel
	}
	zl, err := build(lvl, "text")
	if err != nil {
		panic(err)
	}
	globalLogger = wrap(zl, "")
}

// IsLocalDev checks if the environment is local development
func IsLocalDev(appEnv string) bool {
	return appEnv == "local" || appEnv == "dev" || appEnv == "development"
}

func wrap(zl *zap.Logger, scope string) *Logger {
	if scope != "" {
		zl = zl.Named(scope)
	}
	return &Logger{zap: zl, sugar: zl.Sugar(), scope: scope}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func build(lvl zapcore.Level, format string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Development = false
	config.Sampling = nil
	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch strings.ToLower(format) {
	case "json":
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	default:
		config.Encoding = "console"
	}

	// skip the wrapper frame so callers show up in "caller"
	return config.Build(zap.AddCallerSkip(1))
}

// Init (re)configures the global logger and every scope handed out so far.
// Safe to call again when logging settings change at runtime.
func Init(level, format string) {
	zl, err := build(parseLevel(level), format)
	if err != nil {
		panic(err)
	}

	mu.Lock()
	defer mu.Unlock()
	globalLogger = wrap(zl, "")
	for name, l := range scopes {
		fresh := wrap(zl, name)
		l.zap, l.sugar = fresh.zap, fresh.sugar
	}
}

// GetScope returns the logger for a named component, e.g. "account" or "httpx".
// The same *Logger is returned for repeated calls with the same name.
func GetScope(name string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := scopes[name]; ok {
		return l
	}
	l := wrap(globalLogger.zap, name)
	scopes[name] = l
	return l
}

// L returns the global sugar logger instance that supports slog-style key-value logging
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger.sugar
}

// Global returns the global logger instance
func Global() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Scope returns the name the logger was created with ("" for the global logger).
func (l *Logger) Scope() string { return l.scope }

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns the sugar logger for key-value style logging
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// Zap returns the underlying zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Debug logs a debug message with structured fields
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Info logs an info message with structured fields
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs a warning message with structured fields
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs an error message with structured fields
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, fields...)
}
