package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Fields is a set of structured log fields.
type Fields map[string]any

// Logger is a leveled, structured logger.
type Logger struct {
	mu       sync.Mutex
	level    Level
	format   Format
	writer   io.Writer
	exitFunc func(int)
}

// NewLogger creates a logger writing to stdout.
func NewLogger(level Level, format Format) *Logger {
	return &Logger{
		level:    level,
		format:   format,
		writer:   os.Stdout,
		exitFunc: os.Exit,
	}
}

// SetLevel sets the minimum level emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.level.Enabled(level) {
		return
	}

	now := time.Now()

	var line string
	if l.format == FormatJSON {
		entry := map[string]any{
			"time":    now.Format(time.RFC3339Nano),
			"level":   level.String(),
			"message": msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		b, err := json.Marshal(entry)
		if err != nil {
			b = []byte(fmt.Sprintf(`{"level":"ERROR","message":"logx: marshal failed: %v"}`, err))
		}
		line = string(b)
	} else {
		var sb strings.Builder
		sb.WriteString(now.Format("2006-01-02 15:04:05"))
		sb.WriteString(" | ")
		sb.WriteString(fmt.Sprintf("%-5s", level.String()))
		sb.WriteString(" | ")
		sb.WriteString(msg)
		if len(fields) > 0 {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				sb.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
			}
		}
		line = sb.String()
	}

	fmt.Fprintln(l.writer, line)
}

// Entry carries accumulated fields toward a final log call.
type Entry struct {
	logger *Logger
	fields Fields
}

// WithField adds a single field to the entry.
func (e *Entry) WithField(key string, value any) *Entry {
	e.fields[key] = value
	return e
}

// WithError adds an error field to the entry.
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

func (e *Entry) Debug(msg string)                  { e.logger.log(LevelDebug, msg, e.fields) }
func (e *Entry) Info(msg string)                   { e.logger.log(LevelInfo, msg, e.fields) }
func (e *Entry) Warn(msg string)                   { e.logger.log(LevelWarn, msg, e.fields) }
func (e *Entry) Error(msg string)                  { e.logger.log(LevelError, msg, e.fields) }
func (e *Entry) Debugf(format string, args ...any) { e.Debug(fmt.Sprintf(format, args...)) }
func (e *Entry) Infof(format string, args ...any)  { e.Info(fmt.Sprintf(format, args...)) }
func (e *Entry) Warnf(format string, args ...any)  { e.Warn(fmt.Sprintf(format, args...)) }
func (e *Entry) Errorf(format string, args ...any) { e.Error(fmt.Sprintf(format, args...)) }

// WithFields creates an entry with the given fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	copied := make(Fields, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Entry{logger: l, fields: copied}
}

// WithField creates an entry with a single field.
func (l *Logger) WithField(key string, value any) *Entry {
	return l.WithFields(Fields{key: value})
}

// WithError creates an entry with an error field.
func (l *Logger) WithError(err error) *Entry {
	e := l.WithFields(Fields{})
	return e.WithError(err)
}
