// Package app wires the keytap daemon together: settings, logging, the
// rule store and its reloader, the directory watcher and the event
// pipeline.
package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/dshills/keytap/internal/config"
	"github.com/dshills/keytap/internal/config/loader"
	"github.com/dshills/keytap/internal/input/keymap"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrTapFailure indicates the external event source could not be
	// started or failed while running.
	ErrTapFailure = errors.New("event tap failed")
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitInvalidConfig = 2
	ExitTapFailure    = 3
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op      string // Operation name (e.g., "reload", "watch", "serve")
	Target  string // Target of the operation (e.g., rules directory)
	Context string // Additional context
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsConfigError reports whether err stems from bad settings or rule files.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var (
		ruleErr  *keymap.RuleError
		parseErr *loader.ParseError
	)
	switch {
	case errors.Is(err, keymap.ErrMalformed),
		errors.Is(err, keymap.ErrUnsupportedFormat),
		errors.As(err, &ruleErr),
		errors.As(err, &parseErr),
		errors.Is(err, config.ErrValidationFailed),
		errors.Is(err, config.ErrTypeMismatch),
		errors.Is(err, config.ErrSettingNotFound),
		errors.Is(err, os.ErrNotExist):
		return true
	}
	return false
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrTapFailure):
		return ExitTapFailure
	case IsConfigError(err):
		return ExitInvalidConfig
	default:
		return ExitFailure
	}
}
