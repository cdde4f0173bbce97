// Package sandbox provides the disposable SQL engines used to test whether
// a candidate string executes.
//
// This package contains the contract every sandbox engine implements.
// Concrete engines are in pkg/sandboxes/ subdirectories and register
// themselves on import.
package sandbox

import (
	"context"
	"errors"
)

// ErrNullCharacter is returned by Attempt for text containing a NUL byte.
// Such text is never sent to an engine.
var ErrNullCharacter = errors.New("sql contains a null character")

// Config holds the engine selection and its connection settings.
type Config struct {
	// Engine is the registered engine name (sqlite, duckdb, postgres).
	Engine string
	// DSN is the connection string. Empty means an in-memory database for
	// embedded engines; postgres requires it.
	DSN string
}

// Sandbox is one isolated SQL engine instance. A Sandbox is owned by a
// single goroutine; callers needing parallelism open one per worker.
type Sandbox interface {
	// Connect opens the engine.
	Connect(ctx context.Context, cfg Config) error

	// Attempt executes sql, which may hold several statements, and discards
	// every effect it had. The returned error is the engine's own error, or
	// a *FailureError when the sandbox itself misbehaved.
	Attempt(ctx context.Context, sql string) error

	// Reset discards all engine state, reconnecting if needed.
	Reset(ctx context.Context) error

	// Close releases the engine.
	Close() error

	// Name returns the registered engine name.
	Name() string
}

// FailureError reports a sandbox malfunction, as opposed to an engine
// error caused by the attempted text.
type FailureError struct {
	Op  string
	Err error
}

func (e *FailureError) Error() string {
	return "sandbox " + e.Op + ": " + e.Err.Error()
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// IsFailure reports whether err is a *FailureError.
func IsFailure(err error) bool {
	var fe *FailureError
	return errors.As(err, &fe)
}
