package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Interface -.
type Interface interface {
	Debug(message interface{}, args ...interface{})
	Info(message interface{}, args ...interface{})
	Warn(message interface{}, args ...interface{})
	Error(message interface{}, args ...interface{})
	Fatal(message interface{}, args ...interface{})
}

// Logger -.
type Logger struct {
	logger *zerolog.Logger
}

var _ Interface = (*Logger)(nil)

type options struct {
	out    io.Writer
	pretty bool
}

// Option -.
type Option func(*options)

// WithOutput - писать логи в произвольный writer
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithJSON - отключить ConsoleWriter (для сбора логов агентом)
func WithJSON() Option {
	return func(o *options) {
		o.pretty = false
	}
}

// New -.
func New(level string, opts ...Option) *Logger {
	o := &options{
		out:    os.Stdout,
		pretty: true,
	}
	for _, opt := range opts {
		opt(o)
	}

	l := parseLevel(level)

	out := o.out
	if o.pretty {
		out = zerolog.ConsoleWriter{
			Out:        o.out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).
		Level(l).
		With().
		Timestamp().
		Logger()

	return &Logger{
		logger: &logger,
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "debug":
		return zerolog.DebugLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Debug -.
func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.write(l.logger.Debug(), message, args...)
}

// Info -.
func (l *Logger) Info(message interface{}, args ...interface{}) {
	l.write(l.logger.Info(), message, args...)
}

// Warn -.
func (l *Logger) Warn(message interface{}, args ...interface{}) {
	l.write(l.logger.Warn(), message, args...)
}

// Error -.
func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.write(l.logger.Error(), message, args...)
}

// Fatal -.
func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.write(l.logger.WithLevel(zerolog.FatalLevel), message, args...)

	os.Exit(1)
}

func (l *Logger) write(event *zerolog.Event, message interface{}, args ...interface{}) {
	if event == nil {
		return
	}

	// key-value пары, нечётный хвост игнорируется
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		switch v := args[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case time.Duration:
			event = event.Str(key, v.String())
		case fmt.Stringer:
			event = event.Stringer(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	switch msg := message.(type) {
	case error:
		event.Msg(msg.Error())
	case string:
		event.Msg(msg)
	default:
		event.Msg(fmt.Sprintf("%v", message))
	}
}

// With - логгер с постоянными полями (job, game и т.п.)
func (l *Logger) With(args ...interface{}) *Logger {
	ctx := l.logger.With()
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			ctx = ctx.Interface(key, args[i+1])
		}
	}
	newLogger := ctx.Logger()
	return &Logger{logger: &newLogger}
}

// GetZerolog - получить нативный zerolog.Logger для продвинутого использования
func (l *Logger) GetZerolog() *zerolog.Logger {
	return l.logger
}
