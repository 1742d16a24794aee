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
	"strings"
	"time"
)

// DefaultExecutable is the PATH-resolved clang-tidy binary name used when
// the configuration does not pin a path.
const DefaultExecutable = "clang-tidy"

// probeMarker is the identifying text the availability probe requires in
// the tool's --version output.
const probeMarker = "LLVM"

// =============================================================================
// RUNNER
// =============================================================================

// Runner ties the pipeline together: batches → pool → parser → report.
//
// Thread Safety: Safe for concurrent use.
type Runner struct {
	cfg       ToolConfig
	builder   *BatchBuilder
	invoker   TaskInvoker
	scheduler *Scheduler
	parser    *Parser
	enricher  *Enricher
	logger    *slog.Logger
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner and every component it
// constructs.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInvoker substitutes the process invoker. Used by tests to fake
// process execution.
func WithInvoker(invoker TaskInvoker) RunnerOption {
	return func(r *Runner) {
		r.invoker = invoker
	}
}

// NewRunner creates a runner for the given configuration.
//
// Description:
//
//	All collaborators receive the same logger by reference; there is no
//	process-wide mutable state anywhere in the pipeline.
//
// Inputs:
//
//	cfg - Resolved tool configuration.
//	opts - Optional configuration options.
//
// Outputs:
//
//	*Runner - The configured runner.
func NewRunner(cfg ToolConfig, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.invoker == nil {
		r.invoker = NewInvoker(r.logger)
	}
	r.builder = NewBatchBuilder(cfg, r.logger)
	r.scheduler = NewScheduler(r.invoker, r.logger)
	r.parser = NewParser(r.logger)
	r.enricher = NewEnricher(r.logger)
	return r
}

// Executable returns the binary the runner will invoke.
func (r *Runner) Executable() string {
	if r.cfg.ExecutablePath != "" {
		return r.cfg.ExecutablePath
	}
	return DefaultExecutable
}

// Builder exposes the batch builder for callers that need flag or job
// computation without a run (doctor, dry runs).
func (r *Runner) Builder() *BatchBuilder {
	return r.builder
}

// Run analyzes the given files and returns the report.
//
// Description:
//
//	Builds batches, drains them through the worker pool, merges stdout
//	in batch order, parses, enriches, and derives the report. A single
//	failed task never aborts the run; only the total absence of stdout
//	across every batch is escalated. clang-tidy signals findings via
//	non-zero exit codes, so a zero exit with empty stdout means the tool
//	failed to run, not that there were no findings.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	files - Absolute source file paths.
//	opts - Per-run options.
//
// Outputs:
//
//	*ReportData - The report. Nil on run-level failure.
//	error - ErrNoInputFiles, ErrToolNotFound, or ErrToolFailed.
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) Run(ctx context.Context, files []string, opts RunOptions) (*ReportData, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	jobs := r.builder.EffectiveJobs(opts)
	ctx, span := startRunSpan(ctx, len(files), jobs)
	defer span.End()
	start := time.Now()

	batches, err := r.builder.BuildBatches(files, opts)
	if err != nil {
		recordRunMetrics(ctx, time.Since(start), 0, 0, 0, false)
		return nil, err
	}

	tasks := make([]*Task, len(batches))
	totalFiles := 0
	for i, b := range batches {
		totalFiles += len(b.Files)
		tasks[i] = &Task{
			Executable: r.Executable(),
			Args:       b.Args,
			WorkingDir: r.cfg.ProjectRoot,
			Timeout:    r.cfg.Timeout,
		}
	}

	r.logger.Info("Starting analysis",
		slog.Int("files", totalFiles),
		slog.Int("batches", len(batches)),
		slog.Int("jobs", jobs),
	)

	results, err := r.scheduler.Schedule(ctx, tasks, jobs, opts.Progress)
	if err != nil {
		recordRunMetrics(ctx, time.Since(start), 0, 0, 0, false)
		return nil, err
	}

	// Merge stdout in batch order, not completion order.
	var merged strings.Builder
	failed := 0
	allFailedToStart := true
	firstStderr := ""
	for _, res := range results {
		merged.WriteString(res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") && res.Stdout != "" {
			merged.WriteString("\n")
		}
		if res.Failed() {
			failed++
			if firstStderr == "" {
				firstStderr = res.Stderr
			}
		}
		if res.Outcome != OutcomeFailedToStart {
			allFailedToStart = false
		}
	}

	if strings.TrimSpace(merged.String()) == "" {
		recordRunMetrics(ctx, time.Since(start), 0, 0, failed, false)
		if allFailedToStart {
			return nil, NewToolError(r.Executable(), ErrToolNotFound).WithStderr(firstStderr)
		}
		return nil, NewToolError(r.Executable(), ErrNoOutput).WithStderr(firstStderr)
	}

	parsed := r.parser.Parse(merged.String())
	r.enricher.Enrich(parsed.Diagnostics)

	duration := time.Since(start)
	report := BuildReport(parsed.Diagnostics, totalFiles, parsed.Dropped, duration)

	setRunSpanResult(span, len(report.Diagnostics), report.Dropped, failed)
	recordRunMetrics(ctx, duration, len(report.Diagnostics), report.Dropped, failed, true)

	r.logger.Info("Analysis completed",
		slog.Int("diagnostics", len(report.Diagnostics)),
		slog.Int("files_with_findings", report.FilesWithFindings),
		slog.Int("dropped", report.Dropped),
		slog.Int("failed_tasks", failed),
		slog.Duration("duration", duration),
	)

	return report, nil
}

// Probe checks that the configured binary is present and actually
// clang-tidy.
//
// Description:
//
//	One-shot --version invocation. Success requires a zero exit code AND
//	the expected identifying text in stdout; a binary that happens to
//	share the name but prints something else is rejected.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//
// Outputs:
//
//	string - The tool's version output, trimmed.
//	error - ErrToolNotFound or ErrProbeFailed.
//
// Thread Safety: Safe for concurrent use.
func (r *Runner) Probe(ctx context.Context) (string, error) {
	task := &Task{
		Executable: r.Executable(),
		Args:       []string{"--version"},
		Timeout:    r.cfg.Timeout,
	}
	res, err := r.invoker.Invoke(ctx, task)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 || !strings.Contains(res.Stdout, probeMarker) {
		return "", NewToolError(r.Executable(), ErrProbeFailed).WithStderr(res.Stderr)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CompileCommands returns the resolved compile database directory.
//
// Outputs:
//
//	string - The directory passed via -p.
//	error - ErrNoCompileCommands when unresolvable.
func (r *Runner) CompileCommands() (string, error) {
	if db := r.builder.resolveCompileCommands(); db != "" {
		return db, nil
	}
	return "", ErrNoCompileCommands
}
