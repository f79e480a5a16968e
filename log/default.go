package log

import "os"

var defaultLogger *Logger = NewText(os.Stderr)

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// Trace level message.
func Trace(t any, msg string, v ...any) {
	defaultLogger.Trace(t, msg, v...)
}

// Debug level message.
func Debug(t any, msg string, v ...any) {
	defaultLogger.Debug(t, msg, v...)
}

// Info level message.
func Info(t any, msg string, v ...any) {
	defaultLogger.Info(t, msg, v...)
}

// Warn level message.
func Warn(t any, msg string, v ...any) {
	defaultLogger.Warn(t, msg, v...)
}

// Error level message.
func Error(t any, msg string, v ...any) {
	defaultLogger.Error(t, msg, v...)
}

// Fatal level message, followed by an exit.
func Fatal(t any, msg string, v ...any) {
	defaultLogger.Fatal(t, msg, v...)
}
