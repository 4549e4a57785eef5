package logger

import (
	"regexp"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel string

const (
	InfoLevel  LogLevel = "INFO"
	ErrorLevel LogLevel = "ERROR"
	DebugLevel LogLevel = "DEBUG"
	WarnLevel  LogLevel = "WARN"
)

var (
	emailRegex  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	tokenRegex  = regexp.MustCompile(`eyJ[^\s]+`)
	userIDRegex = regexp.MustCompile(`\buser_id\s*=\s*\S+`)

	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	baseOnce sync.Once
	base     *zap.Logger
)

// Logger is a centralized structured logger shared by every package.
type Logger struct {
	out *zap.Logger
}

// New creates a new Logger writing JSON lines to stdout.
func New() *Logger {
	return &Logger{out: root()}
}

// NewWithZap wraps an existing zap logger, used by tests to capture output.
func NewWithZap(z *zap.Logger) *Logger {
	return &Logger{out: z}
}

func root() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		base = l
	})
	return base
}

// SetLevel changes the level of every logger created by New.
// Unknown levels fall back to info.
func SetLevel(name string) {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)
}

// Sync flushes buffered entries.
func Sync() {
	_ = root().Sync()
}

// Anonymize replaces sensitive information in logs (emails, tokens, IDs)
func Anonymize(s string) string {
	s = emailRegex.ReplaceAllString(s, "[REDACTED_EMAIL]")
	s = tokenRegex.ReplaceAllString(s, "[REDACTED_TOKEN]")
	s = userIDRegex.ReplaceAllString(s, "user_id=[USER_ID]")
	return s
}

func (l *Logger) log(module string, lvl LogLevel, msg string, err error) {
	fields := make([]zap.Field, 0, 2)
	if module != "" {
		fields = append(fields, zap.String("module", module))
	}
	if err != nil {
		fields = append(fields, zap.String("error", Anonymize(err.Error())))
	}
	msg = Anonymize(msg)

	switch lvl {
	case DebugLevel:
		l.out.Debug(msg, fields...)
	case WarnLevel:
		l.out.Warn(msg, fields...)
	case ErrorLevel:
		l.out.Error(msg, fields...)
	default:
		l.out.Info(msg, fields...)
	}
}

// --- Convenient methods ---
func (l *Logger) Info(module, msg string) {
	l.log(module, InfoLevel, msg, nil)
}

func (l *Logger) Debug(module, msg string) {
	l.log(module, DebugLevel, msg, nil)
}

func (l *Logger) Warn(module, msg string, err error) {
	l.log(module, WarnLevel, msg, err)
}

func (l *Logger) Error(module, msg string, err error) {
	l.log(module, ErrorLevel, msg, err)
}
