package logx

import (
	"fmt"
	"os"
)

// defaultLogger is the global logger instance.
var defaultLogger *Logger

func init() {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	format := FormatConsole
	if os.Getenv("LOG_FORMAT") == "json" {
		format = FormatJSON
	}
	defaultLogger = NewLogger(level, format)
}

// SetDefaultLogger replaces the global logger.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global logger.
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// SetLevel sets the level of the global logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// ============================================================================
// Simple Logging Functions
// ============================================================================

func Debug(msg string) { defaultLogger.log(LevelDebug, msg, nil) }
func Info(msg string)  { defaultLogger.log(LevelInfo, msg, nil) }
func Warn(msg string)  { defaultLogger.log(LevelWarn, msg, nil) }
func Error(msg string) { defaultLogger.log(LevelError, msg, nil) }

// Fatal logs a fatal message and exits.
func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil)
	defaultLogger.exitFunc(1)
}

// ============================================================================
// Formatted Logging Functions
// ============================================================================

func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }

// Fatalf logs a formatted fatal message and exits.
func Fatalf(format string, args ...any) {
	Fatal(fmt.Sprintf(format, args...))
}

// ============================================================================
// Structured Logging
// ============================================================================

// WithFields creates an entry on the global logger.
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithField creates an entry with a single field.
func WithField(key string, value any) *Entry {
	return defaultLogger.WithField(key, value)
}

// WithError creates an entry with an error field.
func WithError(err error) *Entry {
	return defaultLogger.WithError(err)
}
