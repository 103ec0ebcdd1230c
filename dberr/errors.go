// Package dberr defines the error kinds shared across the connection,
// execution and worker layers.
package dberr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownProvider is returned when a db type has no registered provider.
	ErrUnknownProvider = errors.New("unknown database provider")

	// ErrUnknownScheme is returned when a connection URL uses a scheme no
	// provider declares.
	ErrUnknownScheme = errors.New("unknown connection URL scheme")

	// ErrConnectionRefused is returned when the backend cannot be reached.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrAuthFailed is returned when the backend rejects the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrTunnelFailed is returned when the SSH tunnel cannot be established.
	ErrTunnelFailed = errors.New("ssh tunnel failed")

	// ErrQueryCancelled is returned when a query was cancelled by the user.
	// Cancellation always wins over driver errors observed during teardown.
	ErrQueryCancelled = errors.New("query cancelled")

	// ErrWorkerBusy is returned when the process worker already has a query
	// in flight.
	ErrWorkerBusy = errors.New("Worker is busy.")

	// ErrMultiStatementInWorker is returned when a multi-statement script is
	// submitted to the process worker, which only runs single statements.
	ErrMultiStatementInWorker = errors.New("multi-statement queries are not supported in the process worker")

	// ErrNoActiveConnection is returned when an operation requires a live
	// connection and none is established.
	ErrNoActiveConnection = errors.New("no active connection")
)

// MissingDriverError reports that the driver for a database type is not
// compiled into this binary. The install hint is surfaced verbatim to the UI.
type MissingDriverError struct {
	Driver  string // display name, e.g. "DuckDB"
	Extra   string // short feature name, e.g. "duckdb"
	Package string // Go module that would provide the driver
	Cause   error
}

func (e *MissingDriverError) Error() string {
	return fmt.Sprintf("driver for %s is not available", e.Driver)
}

func (e *MissingDriverError) Unwrap() error { return e.Cause }

// InstallHint describes how to obtain a build with the driver included.
func (e *MissingDriverError) InstallHint() string {
	if e.Package == "" {
		return fmt.Sprintf("This build of dbterm was compiled without %s support.", e.Driver)
	}
	return fmt.Sprintf("This build of dbterm was compiled without %s support (%s). Rebuild with the %q driver to enable it.",
		e.Driver, e.Extra, e.Package)
}

// QueryError wraps a driver error raised during statement execution.
type QueryError struct {
	Message string
	Cause   error
}

func (e *QueryError) Error() string { return e.Message }

func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError builds a QueryError from a driver error.
func NewQueryError(cause error) *QueryError {
	return &QueryError{Message: cause.Error(), Cause: cause}
}

// WorkerUnavailableError reports that the process worker could not be
// spawned or its pipe was lost. Callers fall back to in-process execution.
type WorkerUnavailableError struct {
	Reason string
}

func (e *WorkerUnavailableError) Error() string {
	return fmt.Sprintf("process worker unavailable: %s", e.Reason)
}

// IsMissingDriver reports whether err is a MissingDriverError.
func IsMissingDriver(err error) bool {
	var mde *MissingDriverError
	return errors.As(err, &mde)
}

// IsCancelled reports whether err represents user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrQueryCancelled)
}
