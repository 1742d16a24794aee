// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tidy

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tidy package.
var (
	// ErrToolNotFound indicates the clang-tidy binary was not found or
	// could not be started.
	ErrToolNotFound = errors.New("clang-tidy not found")

	// ErrToolFailed indicates clang-tidy crashed: it exited without
	// producing any diagnostics output.
	ErrToolFailed = errors.New("clang-tidy failed to run")

	// ErrNoOutput indicates the whole run produced no usable stdout even
	// though at least one process started. Matches ErrToolFailed under
	// errors.Is.
	ErrNoOutput = fmt.Errorf("no output from clang-tidy: %w", ErrToolFailed)

	// ErrNoInputFiles indicates the file list was empty after extension
	// filtering.
	ErrNoInputFiles = errors.New("no matching source files")

	// ErrNoCompileCommands indicates compile_commands.json could not be
	// resolved. Surfaced as a warning by the runner, an error by doctor.
	ErrNoCompileCommands = errors.New("compile commands database not found")

	// ErrProbeFailed indicates the availability probe did not see the
	// expected identifying output.
	ErrProbeFailed = errors.New("version probe failed")

	// ErrToolTimeout indicates a task exceeded its configured timeout.
	ErrToolTimeout = errors.New("clang-tidy timed out")

	// ErrInvalidInput indicates invalid input to a tidy function.
	ErrInvalidInput = errors.New("invalid input")
)

// ToolError wraps a failure from one invocation with its captured stderr.
//
// Thread Safety: Immutable after creation.
type ToolError struct {
	// Executable is the binary that failed.
	Executable string

	// Err is the underlying error.
	Err error

	// Stderr is any captured standard error from the invocation.
	Stderr string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Executable, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Executable, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError creates a ToolError for the given executable.
func NewToolError(executable string, err error) *ToolError {
	return &ToolError{Executable: executable, Err: err}
}

// WithStderr returns a copy of the error with captured stderr attached.
func (e *ToolError) WithStderr(stderr string) *ToolError {
	return &ToolError{
		Executable: e.Executable,
		Err:        e.Err,
		Stderr:     stderr,
	}
}
