package types

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog so every component logs the same way.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with the given name and level.
// The level defaults to info when it cannot be parsed.
// The level can be overridden by setting $NAME_DEBUG or $NAME_TRACE to any value.
// If quiet is true, the logger will not log to the console.
func NewLogger(name, level string, quiet bool) Logger {
	var writers []io.Writer

	if journaldAvailable() {
		writers = append(writers, journaldWriter())
	}
	if !quiet {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = time.RFC3339
			w.Out = os.Stderr
		}))
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}
	if os.Getenv(fmt.Sprintf("%s_DEBUG", envName(name))) != "" {
		l = zerolog.DebugLevel
	}
	if os.Getenv(fmt.Sprintf("%s_TRACE", envName(name))) != "" {
		l = zerolog.TraceLevel
	}

	return Logger{
		zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Str("logger", name).Logger().Level(l),
	}
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// NewBufferLogger logs everything into b, useful in tests.
func NewBufferLogger(b *bytes.Buffer) Logger {
	return Logger{zerolog.New(b).With().Timestamp().Logger().Level(zerolog.TraceLevel)}
}

func NewNullLogger() Logger {
	return Logger{zerolog.New(io.Discard)}
}

// OrNull returns l or a null logger when l is nil.
func OrNull(l *Logger) *Logger {
	if l == nil {
		n := NewNullLogger()
		return &n
	}
	return l
}

func (m *Logger) SetLevel(level string) {
	l, _ := zerolog.ParseLevel(level)
	m.Logger = m.Logger.Level(l)
}

func (m Logger) IsDebug() bool {
	return m.Logger.GetLevel() <= zerolog.DebugLevel
}
