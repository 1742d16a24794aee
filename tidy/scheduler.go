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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool sizing constants.
const (
	// maxPoolWorkers caps concurrent clang-tidy processes regardless of
	// the requested width. Each process is CPU and memory hungry;
	// spawning one per core on large hosts exhausts the machine.
	maxPoolWorkers = 8
)

// ProgressFunc receives completion updates from the scheduler. The
// completed count is monotonically increasing and fires exactly once per
// task, success or failure.
type ProgressFunc func(completed, total int)

// =============================================================================
// WORKER-POOL SCHEDULER
// =============================================================================

// Scheduler drains an ordered task list with bounded concurrency.
//
// Description:
//
//	Maintains a single shared FIFO queue over the input slice. Exactly
//	min(W, len(tasks)) workers pop tasks until the queue is empty. Each
//	result lands at the index of its originating task, so the caller
//	always receives an array aligned with the input order even though
//	completion order across workers is non-deterministic.
//
// Thread Safety: Safe for concurrent use; each Schedule call owns its
// own queue state.
type Scheduler struct {
	invoker TaskInvoker
	logger  *slog.Logger
}

// NewScheduler creates a scheduler backed by the given invoker.
func NewScheduler(invoker TaskInvoker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if invoker == nil {
		invoker = NewInvoker(logger)
	}
	return &Scheduler{invoker: invoker, logger: logger}
}

// Schedule runs every task and returns results index-aligned with tasks.
//
// Description:
//
//	A task whose invocation fails to start (or panics) is captured as a
//	synthetic TaskResult with a non-zero code and the error text as
//	stderr; sibling tasks keep running. Context cancellation stops
//	workers from dequeuing further tasks; tasks never dequeued receive
//	synthetic canceled results so the result array stays aligned.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	tasks - Ordered invocation requests.
//	width - Requested concurrency. Clamped to [1, 8].
//	progress - Optional completion callback. May be nil.
//
// Outputs:
//
//	[]*TaskResult - One result per task, positionally aligned.
//	error - Non-nil only for invalid input.
//
// Thread Safety: Safe for concurrent use.
func (s *Scheduler) Schedule(ctx context.Context, tasks []*Task, width int, progress ProgressFunc) ([]*TaskResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	results := make([]*TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	workers := clampWidth(width, len(tasks))
	s.logger.Debug("Starting worker pool",
		slog.Int("tasks", len(tasks)),
		slog.Int("workers", workers),
	)

	var (
		next      atomic.Int64 // shared FIFO cursor
		completed atomic.Int64
		mu        sync.Mutex // serializes progress callbacks
		wg        sync.WaitGroup
	)

	total := len(tasks)
	report := func() {
		done := int(completed.Add(1))
		if progress != nil {
			mu.Lock()
			progress(done, total)
			mu.Unlock()
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(next.Add(1)) - 1
				if idx >= total {
					return
				}
				if ctx.Err() != nil {
					results[idx] = &TaskResult{
						Stderr:   ctx.Err().Error(),
						ExitCode: -1,
						Outcome:  OutcomeCanceled,
					}
					report()
					continue
				}
				results[idx] = s.runOne(ctx, tasks[idx])
				report()
			}
		}()
	}
	wg.Wait()

	return results, nil
}

// runOne executes a single task, converting invocation errors and panics
// into synthetic failed results.
func (s *Scheduler) runOne(ctx context.Context, task *Task) (result *TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Worker recovered from panic",
				slog.String("executable", task.Executable),
				slog.Any("panic", r),
			)
			result = &TaskResult{
				Stderr:   fmt.Sprintf("panic: %v", r),
				ExitCode: -1,
				Outcome:  OutcomeFailedToStart,
			}
		}
	}()

	res, err := s.invoker.Invoke(ctx, task)
	if err != nil {
		if res == nil {
			res = &TaskResult{ExitCode: -1, Outcome: OutcomeFailedToStart}
		}
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
		if res.ExitCode == 0 {
			res.ExitCode = -1
		}
		return res
	}
	return res
}

// clampWidth bounds the worker count to [1, maxPoolWorkers] and never
// more than the number of tasks.
func clampWidth(width, tasks int) int {
	if width < 1 {
		width = 1
	}
	if width > maxPoolWorkers {
		width = maxPoolWorkers
	}
	if width > tasks {
		width = tasks
	}
	return width
}
