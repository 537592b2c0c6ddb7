package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// thin wrapper around zap so the rest of the code does not depend on the
// concrete logging library

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

type Field = zap.Field

type Option = zap.Option

var (
	WithCaller    = zap.WithCaller
	AddCallerSkip = zap.AddCallerSkip
)

type Logger struct {
	l     *zap.Logger
	level zap.AtomicLevel
}

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) SetLevel(level Level) { l.level.SetLevel(level) }

func (l *Logger) Sync() error { return l.l.Sync() }

// New creates a json logger writing to w. The level is kept so it can be
// changed at runtime via SetLevel.
func New(w io.Writer, level Level, opts ...Option) *Logger {
	atomic := zap.NewAtomicLevelAt(level)
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.AddSync(w),
		atomic)
	return &Logger{l: zap.New(core, opts...), level: atomic}
}

// DevLogger creates a colored console logger writing to w.
func DevLogger(w io.Writer, level Level, opts ...Option) *Logger {
	return devLogger(w, level, "", opts...)
}

// FilteredDevLogger creates a console logger whose output is restricted by
// zapfilter rules (e.g. "debug:playback*,track*").
func FilteredDevLogger(w io.Writer, level Level, rules string, opts ...Option) *Logger {
	return devLogger(w, level, rules, opts...)
}

func devLogger(w io.Writer, level Level, filterRules string, opts ...Option) *Logger {
	atomic := zap.NewAtomicLevelAt(level)
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(w),
		atomic)
	if filterRules != "" {
		core = zapfilter.NewFilteringCore(core, zapfilter.MustParseRules(filterRules))
	}
	return &Logger{l: zap.New(core, opts...), level: atomic}
}

var std = New(os.Stderr, InfoLevel, AddCallerSkip(1))

func Default() *Logger { return std }

// ResetDefault replaces the default logger and returns the previous one.
func ResetDefault(l *Logger) *Logger {
	prev := std
	std = l
	return prev
}

func Debug(msg string, fields ...Field) { std.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { std.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { std.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { std.Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { std.Fatal(msg, fields...) }

func Fatalf(format string, v ...any) { std.Fatal(fmt.Sprintf(format, v...)) }

func GetLogger(name string) *Logger { return std.Named(name) }

func ParseLevel(text string) (Level, error) { return zapcore.ParseLevel(text) }

// field helpers

func String(key, val string) Field { return zap.String(key, val) }
func Int(key string, val int) Field { return zap.Int(key, val) }
func Uint(key string, val uint) Field { return zap.Uint(key, val) }
func Float(key string, val float64) Field { return zap.Float64(key, val) }
func Bool(key string, val bool) Field { return zap.Bool(key, val) }
func Any(key string, val any) Field { return zap.Any(key, val) }
func Time(key string, val time.Time) Field { return zap.Time(key, val) }
func Duration(key string, d time.Duration) Field { return zap.Duration(key, d) }
func ErrorField(err error) Field { return zap.Error(err) }
