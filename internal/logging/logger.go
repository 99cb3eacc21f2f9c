// Package logging wraps logrus so the rest of the server never touches the
// logger configuration directly. Every entry is written to stderr by default,
// since stdout belongs to the stdio transport.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger, Entry and Fields expose the underlying logrus types.
type Logger = logrus.Logger
type Entry = logrus.Entry
type Fields = logrus.Fields

var rootLogger = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure sets the level, format ("json" or "text") and output of the root logger.
// A nil writer keeps the current output.
func Configure(level, format string, out io.Writer) error {
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		rootLogger.SetLevel(lvl)
	}

	switch format {
	case "", "json":
		rootLogger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text":
		rootLogger.SetFormatter(PlainFormatter{})
	default:
		return fmt.Errorf("invalid log format %q: must be 'json' or 'text'", format)
	}

	if out != nil {
		rootLogger.SetOutput(out)
	}
	return nil
}

// OpenFile opens (or creates) a log file in append mode, creating parent
// directories as needed.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Named returns an entry tagged with a component field.
func Named(component string) *Entry {
	entry := logrus.NewEntry(rootLogger)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry
}

// StructuredLogger logs a message together with a map of context values.
type StructuredLogger struct {
	entry *Entry
}

// NewStructuredLogger creates a structured logger for the given component.
func NewStructuredLogger(component string) *StructuredLogger {
	return &StructuredLogger{entry: Named(component)}
}

// LogInfo logs an informational message with context.
func (l *StructuredLogger) LogInfo(message string, context map[string]interface{}) {
	l.entry.WithFields(Fields(context)).Info(message)
}

// LogWarn logs a warning with context.
func (l *StructuredLogger) LogWarn(message string, err error, context map[string]interface{}) {
	l.with(err, context).Warn(message)
}

// LogError logs an error message with context.
func (l *StructuredLogger) LogError(message string, err error, context map[string]interface{}) {
	l.with(err, context).Error(message)
}

// LogDebug logs a debug message with context.
func (l *StructuredLogger) LogDebug(message string, context map[string]interface{}) {
	l.entry.WithFields(Fields(context)).Debug(message)
}

func (l *StructuredLogger) with(err error, context map[string]interface{}) *Entry {
	entry := l.entry.WithFields(Fields(context))
	if err != nil {
		entry = entry.WithError(err)
	}
	return entry
}

// PlainFormatter renders "[timestamp] [LEVEL] [component] message k=v".
type PlainFormatter struct{}

// Format implements logrus.Formatter.
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}

	parts := []string{
		fmt.Sprintf("[%s]", entry.Time.UTC().Format(time.RFC3339)),
		fmt.Sprintf("[%s]", strings.ToUpper(entry.Level.String())),
	}
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	parts = append(parts, entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		parts = append(parts, fields)
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "component" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}
