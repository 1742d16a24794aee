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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for analysis runs.
var (
	tracer = otel.Tracer("clangtide.tidy")
	meter  = otel.Meter("clangtide.tidy")
)

// Metrics for analysis runs.
var (
	runLatency       metric.Float64Histogram
	runsTotal        metric.Int64Counter
	diagnosticsFound metric.Int64Histogram
	linesDropped     metric.Int64Counter
	tasksFailed      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"tidy_run_duration_seconds",
			metric.WithDescription("Duration of analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runsTotal, err = meter.Int64Counter(
			"tidy_runs_total",
			metric.WithDescription("Total number of analysis runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticsFound, err = meter.Int64Histogram(
			"tidy_diagnostics_found",
			metric.WithDescription("Number of diagnostics found per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		linesDropped, err = meter.Int64Counter(
			"tidy_lines_dropped_total",
			metric.WithDescription("Total diagnostic lines dropped for unknown severity"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		tasksFailed, err = meter.Int64Counter(
			"tidy_tasks_failed_total",
			metric.WithDescription("Total task invocations that never completed"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRunSpan creates a span for an analysis run.
func startRunSpan(ctx context.Context, files, jobs int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.Run",
		trace.WithAttributes(
			attribute.Int("tidy.files", files),
			attribute.Int("tidy.jobs", jobs),
		),
	)
}

// setRunSpanResult sets the result attributes on a run span.
func setRunSpanResult(span trace.Span, diagnostics, dropped, failedTasks int) {
	span.SetAttributes(
		attribute.Int("tidy.diagnostics", diagnostics),
		attribute.Int("tidy.dropped", dropped),
		attribute.Int("tidy.failed_tasks", failedTasks),
	)
}

// recordRunMetrics records metrics for one analysis run.
func recordRunMetrics(ctx context.Context, duration time.Duration, diagnostics, dropped, failedTasks int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
	)

	runLatency.Record(ctx, duration.Seconds(), attrs)
	runsTotal.Add(ctx, 1, attrs)

	if success {
		diagnosticsFound.Record(ctx, int64(diagnostics))
		linesDropped.Add(ctx, int64(dropped))
		tasksFailed.Add(ctx, int64(failedTasks))
	}
}
