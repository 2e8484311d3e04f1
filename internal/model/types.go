package model

import (
	"fmt"
	"time"
)

// ExitCode is the process exit code returned to the OS.
type ExitCode int

const (
	// ExitOK indicates successful completion.
	ExitOK ExitCode = 0

	// ExitGeneralError is the catch-all for unexpected failures.
	ExitGeneralError ExitCode = 1

	// ExitInvalidFolder indicates the positional argument is not an
	// existing directory.
	ExitInvalidFolder ExitCode = 2

	// ExitNoInputFiles indicates the folder contains no EXR files,
	// so there is nothing to build a catalog from.
	ExitNoInputFiles ExitCode = 3

	// ExitBadHeader indicates the first file's header could not be read
	// or produced no usable channel catalog entry point (for example an
	// unsupported EXR feature, or a label with an undefined sort suffix).
	ExitBadHeader ExitCode = 4

	// ExitInvalidConfig indicates the settings file or flag values
	// failed validation.
	ExitInvalidConfig ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// RunSummary aggregates the outcome of one separation pass. It is built
// by the pipeline collector goroutine and rendered by the CLI layer as
// text or JSON.
type RunSummary struct {
	// Files is the number of EXR files enumerated in the folder.
	Files int `json:"files"`

	// Channels lists the logical channel names parsed from the first
	// file's header, in the order the pipeline processes them.
	Channels []string `json:"channels"`

	// Written is the number of output files produced.
	Written int `json:"written"`

	// Skipped counts work units that completed without writing a file
	// (unknown channel name, or an existing output with skipExisting).
	Skipped int `json:"skipped"`

	// Failed counts work units that errored. Failures never abort
	// sibling units; they only appear here and in the error log.
	Failed int `json:"failed"`

	// Interrupted is true when the run was cancelled before all work
	// units finished.
	Interrupted bool `json:"interrupted,omitempty"`

	// Elapsed is the wall-clock duration of the whole pass.
	Elapsed time.Duration `json:"-"`

	// ElapsedSeconds mirrors Elapsed for JSON output.
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// Finish stamps the elapsed duration measured from start.
func (s *RunSummary) Finish(start time.Time) {
	s.Elapsed = time.Since(start)
	s.ElapsedSeconds = s.Elapsed.Seconds()
}
