// Package errors defines the sentinel errors shared across vaultsearch and
// an AppError wrapper that carries a process exit code for the CLI.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrVaultLocked       = errors.New("vault locked")
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInternal          = errors.New("internal error")
)

// Exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitLocked      = 3
	ExitUnavailable = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps sentinel with a message; the exit code is derived from the
// sentinel.
func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// ExitCode maps err to the CLI exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	case errors.Is(err, ErrVaultLocked):
		return ExitLocked
	case errors.Is(err, ErrCorpusUnavailable), errors.Is(err, ErrEntryNotFound):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}
