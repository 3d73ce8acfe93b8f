package logging

import "log"

// Logger is a leveled logger carrying a fixed component prefix.
// Each pipeline component receives its own Logger at construction
// instead of reaching for package-level logging, which keeps log
// output attributable and makes components testable in isolation.
type Logger struct {
	prefix string
}

// New returns a Logger whose output is prefixed with the given
// component name, e.g. New("cache") logs "[INFO] [cache] ...".
func New(component string) *Logger {
	return &Logger{prefix: "[" + component + "] "}
}

// Debug logs a debug message with the component prefix
func (l *Logger) Debug(format string, args ...interface{}) {
	if GetLevel() <= LevelDebug {
		log.Printf("[DEBUG] "+l.prefix+format, args...)
	}
}

// Info logs an info message with the component prefix
func (l *Logger) Info(format string, args ...interface{}) {
	if GetLevel() <= LevelInfo {
		log.Printf("[INFO] "+l.prefix+format, args...)
	}
}

// Warn logs a warning message with the component prefix
func (l *Logger) Warn(format string, args ...interface{}) {
	if GetLevel() <= LevelWarn {
		log.Printf("[WARN] "+l.prefix+format, args...)
	}
}

// Error logs an error message with the component prefix
func (l *Logger) Error(format string, args ...interface{}) {
	if GetLevel() <= LevelError {
		log.Printf("[ERROR] "+l.prefix+format, args...)
	}
}
