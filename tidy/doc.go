// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tidy orchestrates clang-tidy across a source tree and turns its
// textual output into structured diagnostics.
//
// The package wraps the clang-tidy CLI with a bounded worker pool and a
// line-oriented parser:
//
//   - Batch construction: the input file list is partitioned into
//     order-preserving batches, one process invocation per batch, with
//     the exact argument vector derived from configuration precedence.
//   - Execution: a fixed pool of workers drains a shared task queue.
//     Results are returned index-aligned with the input regardless of
//     completion order, and one failing invocation never aborts its
//     siblings.
//   - Parsing: merged stdout is fed through a line-classification state
//     machine that reconstructs one Diagnostic per finding, then a
//     single enrichment pass fills in missing source context straight
//     from the referenced files.
//
// # Pipeline
//
//	files → BuildBatches → Scheduler (→ Invoker, many times) → merged text
//	      → Parser → enrichment → ReportData
//
// # Usage
//
//	runner := tidy.NewRunner(cfg, tidy.WithLogger(logger))
//
//	if _, err := runner.Probe(ctx); err != nil {
//	    // clang-tidy missing or not the tool we expect
//	}
//
//	report, err := runner.Run(ctx, files, opts)
//	if err != nil {
//	    // the tool produced no usable output at all
//	}
//	for _, d := range report.Diagnostics {
//	    fmt.Println(d.Location(), d.Message)
//	}
//
// # Exit Code Semantics
//
// clang-tidy uses non-zero exit codes to signal findings, not crashes.
// The pipeline therefore treats a non-zero exit with output as a normal
// outcome; only the total absence of stdout across every batch is
// escalated as a run-level failure.
//
// # Thread Safety
//
// Runner, Scheduler, and Invoker are safe for concurrent use. The parser
// is strictly sequential (classification depends on prior lines) and each
// Parse call owns its own state.
package tidy
