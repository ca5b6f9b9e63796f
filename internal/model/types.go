// Package model defines the domain types for the airflow-dev CLI.
package model

import (
	"errors"
	"fmt"
)

// Options holds the two process-scoped flags that steer a bootstrap run.
type Options struct {
	// Reset forces recreation of the virtual environment and passes
	// --force-recreate to docker compose.
	Reset bool `json:"reset"`

	// ResetDB removes the database container and its persisted volume
	// before the stack is brought up.
	ResetDB bool `json:"resetDb"`
}

// String returns a compact representation used in debug logs.
func (o Options) String() string {
	return fmt.Sprintf("reset=%t reset-db=%t", o.Reset, o.ResetDB)
}

// ExitCode defines the CLI exit codes. Codes of failed child processes
// are passed through unchanged, so the named values below only cover
// failures that originate in this program.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred. Flag parse
	// errors and failed container/volume removals use this code.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration could not be loaded or
	// failed validation.
	ExitConfigError ExitCode = 2

	// ExitDockerNotRunning indicates the container runtime could not be
	// queried (daemon down, docker binary missing).
	ExitDockerNotRunning ExitCode = 3
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
//
// A CLIError with neither Message nor Err is a bare exit status: the
// child process that produced it has already reported the failure on
// the terminal, so nothing more is printed.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return fmt.Sprintf("exit status %d", e.Code)
	case e.Err != nil && e.Message == "":
		return e.Err.Error()
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// Silent reports whether the error is a bare exit status that should not
// be printed.
func (e *CLIError) Silent() bool {
	return e.Message == "" && e.Err == nil
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// NewExitStatus creates a bare exit status error for a child process that
// exited with a non-zero code.
func NewExitStatus(code int) *CLIError {
	return &CLIError{Code: ExitCode(code)}
}

// ExitCodeOf maps an error to the process exit code. nil maps to
// ExitSuccess, a CLIError anywhere in the chain to its Code, and any
// other error to ExitGeneralError.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}
