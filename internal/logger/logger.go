package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
	// RunID tags every entry of one invocation. A fresh id is generated when empty.
	RunID string
}

// Logger wraps zerolog to provide a simplified API for the application.
type Logger struct {
	base  zerolog.Logger
	runID string
}

// New creates a configured Logger instance based on Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.HumanReadable {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		output = console
	}

	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("run_id", runID).Logger()
	return &Logger{base: logger, runID: runID}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// NewRunID returns a random identifier correlating all API calls of one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// RunID returns the invocation identifier attached to every entry.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Redacted replaces the value of secret fields.
const Redacted = "[redacted]"

var secretKeys = map[string]struct{}{
	"application_secret": {},
	"consumer_key":       {},
	"password":           {},
	"user_data":          {},
}

// WithFields returns a derived logger that always writes the supplied fields.
// Values of secret keys, such as password or consumer_key, are replaced by
// Redacted.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}

	builder := l.base.With()
	for key, value := range fields {
		if _, secret := secretKeys[strings.ToLower(key)]; secret {
			value = Redacted
		}
		builder = builder.Interface(key, value)
	}

	return &Logger{base: builder.Logger(), runID: l.runID}
}

// With returns a derived logger carrying a single extra field.
func (l *Logger) With(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
