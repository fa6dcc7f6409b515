// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and helpers that carry a request-scoped logger
// through a context.Context.
package logger
