// Package log provides context-aware structured logging for the whole
// application. All packages log through the package-level functions; hooks
// enrich every entry with fields carried in the context, such as the trace id
// of the job run that triggered the call.
package log

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap logger with a context hook chain.
type Logger struct {
	zap   *zap.Logger
	level zap.AtomicLevel
	hooks []Hook
}

var global atomic.Pointer[Logger]

//nolint:gochecknoinits // install a usable logger before configuration is loaded.
func init() {
	logger, err := build(Config{Level: "info", Format: FormatConsole, Output: OutputStderr})
	if err != nil {
		panic(err)
	}

	global.Store(logger)
}

// New builds a logger from the config and installs it as the global logger.
// It is used as an fx provider at the composition root.
func New(cfg Config) (*Logger, error) {
	logger, err := build(cfg)
	if err != nil {
		return nil, err
	}

	SetGlobal(logger)

	return logger, nil
}

func build(cfg Config) (*Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}

		level.SetLevel(parsed)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder

	switch cfg.Format {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case FormatConsole, "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	var sink zapcore.WriteSyncer

	switch cfg.Output {
	case OutputStdout:
		sink = zapcore.AddSync(os.Stdout)
	case OutputStderr, "":
		sink = zapcore.AddSync(os.Stderr)
	case OutputFile:
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("log output is file but file.path is empty")
		}

		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		})
	default:
		return nil, fmt.Errorf("invalid log output %q", cfg.Output)
	}

	core := zapcore.NewCore(encoder, sink, level)

	return &Logger{
		zap:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
		level: level,
		hooks: []Hook{HookFunc(traceFields)},
	}, nil
}

// SetGlobal replaces the global logger.
func SetGlobal(logger *Logger) {
	global.Store(logger)
}

// Default returns the global logger.
func Default() *Logger {
	return global.Load()
}

// AddHook appends a hook to the logger's hook chain.
func (l *Logger) AddHook(hook Hook) {
	l.hooks = append(l.hooks, hook)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	if !l.level.Enabled(level) {
		return
	}

	for _, hook := range l.hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	switch level {
	case zapcore.DebugLevel:
		l.zap.Debug(msg, fields...)
	case zapcore.InfoLevel:
		l.zap.Info(msg, fields...)
	case zapcore.WarnLevel:
		l.zap.Warn(msg, fields...)
	case zapcore.ErrorLevel:
		l.zap.Error(msg, fields...)
	default:
		l.zap.Info(msg, fields...)
	}
}

// Debug logs a message at debug level with fields from the context hooks.
func Debug(ctx context.Context, msg string, fields ...Field) {
	Default().log(ctx, zapcore.DebugLevel, msg, fields)
}

// Info logs a message at info level with fields from the context hooks.
func Info(ctx context.Context, msg string, fields ...Field) {
	Default().log(ctx, zapcore.InfoLevel, msg, fields)
}

// Warn logs a message at warn level with fields from the context hooks.
func Warn(ctx context.Context, msg string, fields ...Field) {
	Default().log(ctx, zapcore.WarnLevel, msg, fields)
}

// Error logs a message at error level with fields from the context hooks.
func Error(ctx context.Context, msg string, fields ...Field) {
	Default().log(ctx, zapcore.ErrorLevel, msg, fields)
}

// DebugEnabled reports whether debug logging is enabled, so callers can skip
// building expensive debug payloads.
func DebugEnabled(_ context.Context) bool {
	return Default().level.Enabled(zapcore.DebugLevel)
}
