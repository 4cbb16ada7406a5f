package handlers

import (
	"errors"
	"fmt"
)

// UsageError marks bad command arguments. It maps to exit code 3.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Usage wraps err as a usage error. A nil err stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Err: err}
}

// Usagef builds a usage error from a format string.
func Usagef(format string, v ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, v...)}
}

// IsUsageError reports whether err is, or wraps, a usage error.
func IsUsageError(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}

// UnreachableError marks failures where the node was never reached.
// It maps to exit code 2, the same code as an experiment that could
// not be started.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string { return e.Err.Error() }
func (e *UnreachableError) Unwrap() error { return e.Err }

// Unreachable wraps err as an unreachable-node error. A nil err stays nil.
func Unreachable(err error) error {
	if err == nil {
		return nil
	}
	return &UnreachableError{Err: err}
}

// IsUnreachableError reports whether err is, or wraps, an
// unreachable-node error.
func IsUnreachableError(err error) bool {
	var unreachable *UnreachableError
	return errors.As(err, &unreachable)
}
