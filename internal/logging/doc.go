// Package logging provides a simple leveled logging interface for the
// photoframe daemon.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Pipeline components log through a prefix-carrying Logger obtained
// from New, injected at construction time.
package logging
