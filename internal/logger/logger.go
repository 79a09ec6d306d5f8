// Package logger provides structured logging for the crawler.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level aliases zerolog's level type.
type Level = zerolog.Level

// Log levels.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	zl zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level     Level
	Pretty    bool // console writer with colors
	Output    io.Writer
	Component string // e.g. "crawler", "renderer", "politeness"
}

// New creates a logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: "15:04:05",
		}
	}

	zl := zerolog.New(output).
		With().
		Timestamp().
		Logger().
		Level(cfg.Level)

	if cfg.Component != "" {
		zl = zl.With().Str("component", cfg.Component).Logger()
	}

	return &Logger{zl: zl}
}

// NewDefault creates a pretty console logger at info level.
func NewDefault() *Logger {
	return New(Config{Level: InfoLevel, Pretty: true})
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithComponent returns a logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// WithURL returns a logger with a url field.
func (l *Logger) WithURL(url string) *Logger {
	return &Logger{zl: l.zl.With().Str("url", url).Logger()}
}

// WithHost returns a logger with a host field.
func (l *Logger) WithHost(host string) *Logger {
	return &Logger{zl: l.zl.With().Str("host", host).Logger()}
}

// WithDepth returns a logger with a depth field.
func (l *Logger) WithDepth(depth int) *Logger {
	return &Logger{zl: l.zl.With().Int("depth", depth).Logger()}
}

// WithSlot returns a logger with a renderer slot field.
func (l *Logger) WithSlot(slot int) *Logger {
	return &Logger{zl: l.zl.With().Int("slot", slot).Logger()}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }

// Info logs an info message.
func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) { l.zl.Info().Msgf(format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) { l.zl.Warn().Msgf(format, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// PageEvent logs one processed page with its standard fields.
func (l *Logger) PageEvent(url string, depth, processed, maxPages int, took time.Duration) {
	l.zl.Info().
		Str("url", url).
		Int("depth", depth).
		Int("processed", processed).
		Int("max_pages", maxPages).
		Dur("took", took).
		Msg("Page processed")
}

// ParseLevel parses a level string such as "debug" or "warn".
func ParseLevel(levelStr string) (Level, error) {
	return zerolog.ParseLevel(levelStr)
}
