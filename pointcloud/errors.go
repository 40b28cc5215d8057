package pointcloud

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError reports input that could not be understood, such as a PLY
// file with an unreadable header or without the required vertex fields.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed input: %v", e.Err)
	}
	return fmt.Sprintf("%s: malformed input: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError reports a failure opening, reading or writing a file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ValueError reports a numeric configuration value that can not be used.
type ValueError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{Err: errors.Errorf(format, args...)}
}

// WithPath attaches a file path to err if it is one of this package's error
// types that doesn't carry one yet. Other errors are wrapped as an IOError
// for the given operation.
func WithPath(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		if formatErr.Path == "" {
			formatErr.Path = path
		}
		return err
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		if ioErr.Path == "" {
			ioErr.Path = path
		}
		return err
	}

	var valueErr *ValueError
	if errors.As(err, &valueErr) {
		return err
	}

	return &IOError{Op: op, Path: path, Err: err}
}
