package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zap.Field

// Logger is the logging surface shared by every package. Structured
// methods take fields, the f-suffixed ones take a printf template.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)

	// With returns a child logger that always carries the given fields.
	With(fields ...Field) Logger

	Sync() error
}

type zapLogger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// New builds a logger writing to stderr. pretty selects colored console
// output; otherwise lines are JSON. Unknown levels fall back to info.
func New(level string, pretty bool) Logger {
	atom := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level != "" {
		if err := atom.UnmarshalText([]byte(level)); err != nil {
			atom.SetLevel(zapcore.InfoLevel)
		}
	}

	var enc zapcore.Encoder
	if pretty {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		enc = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "ts"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), atom)
	return wrap(zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.DPanicLevel),
	))
}

// Nop discards everything.
func Nop() Logger {
	return wrap(zap.NewNop())
}

func wrap(base *zap.Logger) *zapLogger {
	return &zapLogger{Logger: base, sugar: base.Sugar()}
}

func (l *zapLogger) Debugf(t string, args ...any) { l.sugar.Debugf(t, args...) }
func (l *zapLogger) Infof(t string, args ...any)  { l.sugar.Infof(t, args...) }
func (l *zapLogger) Warnf(t string, args ...any)  { l.sugar.Warnf(t, args...) }
func (l *zapLogger) Errorf(t string, args ...any) { l.sugar.Errorf(t, args...) }

func (l *zapLogger) With(fields ...Field) Logger { return wrap(l.Logger.With(fields...)) }

// Field constructors, so callers never import zap.
func String(key, val string) Field                 { return zap.String(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Error(err error) Field                        { return zap.Error(err) }
