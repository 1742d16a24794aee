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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// =============================================================================
// PROCESS INVOKER
// =============================================================================

// TaskInvoker runs one task to completion. Implemented by Invoker;
// substituted by tests to fake process execution.
type TaskInvoker interface {
	Invoke(ctx context.Context, task *Task) (*TaskResult, error)
}

// Invoker runs one external process per call and captures its output.
//
// Description:
//
//	Starts the task's executable, accumulates stdout and stderr to
//	completion, and yields a TaskResult with exit code and wall-clock
//	duration. A non-zero exit is a normal outcome (clang-tidy signals
//	findings that way); only a start failure or timeout is an error.
//	No retry happens at this layer.
//
// Thread Safety: Safe for concurrent use. Each call spawns its own
// process.
type Invoker struct {
	logger *slog.Logger
}

// Ensure Invoker implements TaskInvoker.
var _ TaskInvoker = (*Invoker)(nil)

// NewInvoker creates an invoker.
func NewInvoker(logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{logger: logger}
}

// Invoke runs the task's process to completion.
//
// Description:
//
//	Applies the task's timeout as a per-process deadline (the process is
//	killed on expiry), captures both output streams, and measures
//	duration. The returned error is non-nil only for failed-to-start,
//	timeout, or cancellation; callers translate those into synthetic
//	TaskResults to keep sibling tasks running.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	task - The invocation request.
//
// Outputs:
//
//	*TaskResult - Captured output. Non-nil even on error, carrying
//	whatever was captured plus the outcome classification.
//	error - Non-nil if the process never ran to completion.
//
// Thread Safety: Safe for concurrent use.
func (iv *Invoker) Invoke(ctx context.Context, task *Task) (*TaskResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	if task == nil || task.Executable == "" {
		return nil, fmt.Errorf("%w: task must name an executable", ErrInvalidInput)
	}

	cmdCtx := ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, task.Executable, task.Args...)
	if task.WorkingDir != "" {
		cmd.Dir = task.WorkingDir
	}
	if len(task.Env) > 0 {
		cmd.Env = append(os.Environ(), task.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &TaskResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
		Outcome:  OutcomeCompleted,
	}

	// Timeout and cancellation checks come first: a killed process also
	// reports a generic exit error from Run.
	if task.Timeout > 0 && errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		result.Outcome = OutcomeTimedOut
		result.ExitCode = -1
		iv.logger.Warn("Invocation timed out",
			slog.String("executable", task.Executable),
			slog.Duration("timeout", task.Timeout),
		)
		return result, NewToolError(task.Executable, ErrToolTimeout).WithStderr(result.Stderr)
	}
	if ctx.Err() != nil {
		result.Outcome = OutcomeCanceled
		result.ExitCode = -1
		return result, ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Normal completion with findings or tool-level errors.
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// exec.ErrNotFound, permission errors, fork failures.
		result.Outcome = OutcomeFailedToStart
		result.ExitCode = -1
		iv.logger.Error("Failed to start process",
			slog.String("executable", task.Executable),
			slog.String("error", err.Error()),
		)
		return result, NewToolError(task.Executable, fmt.Errorf("%w: %v", ErrToolNotFound, err))
	}

	result.ExitCode = 0
	return result, nil
}
