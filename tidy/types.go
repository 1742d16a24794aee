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
	"fmt"
	"time"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the severity level clang-tidy attaches to a diagnostic.
type Severity int

const (
	// SeverityNote marks supplemental context attached to another finding.
	SeverityNote Severity = iota

	// SeverityWarning is the common case: a check fired.
	SeverityWarning

	// SeverityError marks findings promoted to errors (warnings-as-errors
	// or hard clang errors surfaced through clang-tidy).
	SeverityError

	// SeverityFatal marks errors that stopped analysis of the file.
	SeverityFatal
)

// String returns the token clang-tidy prints for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a severity token from clang-tidy output.
//
// Description:
//
//	Only the four tokens clang-tidy actually emits are accepted.
//	Unknown tokens are rejected rather than defaulted so the parser can
//	discard the whole diagnostic and count the drop.
//
// Inputs:
//
//	s - Severity token (e.g., "warning")
//
// Outputs:
//
//	Severity - The parsed severity
//	bool - False if the token is not a known severity
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "note":
		return SeverityNote, true
	case "warning":
		return SeverityWarning, true
	case "error":
		return SeverityError, true
	case "fatal":
		return SeverityFatal, true
	default:
		return 0, false
	}
}

// MarshalJSON emits the severity as its clang-tidy token.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// =============================================================================
// TASK & RESULT
// =============================================================================

// Task is one scheduled process invocation.
//
// Thread Safety: Immutable once enqueued; owned by the scheduler for its
// lifetime.
type Task struct {
	// Executable is the path or name of the binary to run.
	Executable string

	// Args is the ordered argument list, flags first, files last.
	Args []string

	// WorkingDir is the directory to run in. Empty means inherit.
	WorkingDir string

	// Env holds optional environment overrides in KEY=VALUE form,
	// appended to the inherited environment.
	Env []string

	// Timeout bounds the invocation. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration
}

// OutcomeKind classifies how a task invocation ended.
type OutcomeKind int

const (
	// OutcomeCompleted means the process ran to completion. The exit code
	// may still be non-zero; for clang-tidy that signals findings.
	OutcomeCompleted OutcomeKind = iota

	// OutcomeFailedToStart means the executable could not be located or
	// spawned. Distinct from a non-zero exit.
	OutcomeFailedToStart

	// OutcomeTimedOut means the per-task deadline expired and the process
	// was killed.
	OutcomeTimedOut

	// OutcomeCanceled means the run was canceled before the task was
	// dequeued or while it was running.
	OutcomeCanceled
)

// String returns a stable label for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailedToStart:
		return "failed-to-start"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TaskResult captures the observable output of one task.
//
// Thread Safety: Written exactly once by the worker that ran the task,
// then read-only.
type TaskResult struct {
	// Stdout is the captured standard output (diagnostics stream).
	Stdout string

	// Stderr is the captured standard error (tool-level warnings and
	// crash text). For synthetic failure results it carries the error.
	Stderr string

	// ExitCode is the process exit status. Synthetic failure results use
	// a non-zero code.
	ExitCode int

	// Duration is the wall-clock time of the invocation.
	Duration time.Duration

	// Outcome classifies how the invocation ended.
	Outcome OutcomeKind
}

// Failed reports whether the task never produced a real process exit.
func (r *TaskResult) Failed() bool {
	return r.Outcome != OutcomeCompleted
}

// =============================================================================
// BATCH
// =============================================================================

// Batch is an ordered, non-empty slice of the input file list assigned to
// one process invocation. Batches partition the input exactly: no overlap,
// full coverage, relative order preserved.
//
// Thread Safety: Immutable after construction.
type Batch struct {
	// Index is the batch's position in the overall run.
	Index int

	// Files are the absolute paths analyzed by this batch.
	Files []string

	// Args is the complete argument vector for the invocation, including
	// the trailing file paths.
	Args []string
}

// =============================================================================
// DIAGNOSTIC
// =============================================================================

// Diagnostic is one structured clang-tidy finding.
//
// Mutable only during the single enrichment pass; read-only for all
// downstream consumers after parsing completes.
type Diagnostic struct {
	// FilePath is the absolute path to the offending file.
	FilePath string `json:"file_path"`

	// Line is the 1-based line number.
	Line int `json:"line"`

	// Column is the 1-based column number.
	Column int `json:"column"`

	// Severity is the parsed severity token.
	Severity Severity `json:"severity"`

	// Rule is the check identifier (e.g., "bugprone-signed-char-misuse").
	// Empty when clang-tidy printed no bracketed suffix.
	Rule string `json:"rule,omitempty"`

	// Message is the human-readable finding text.
	Message string `json:"message"`

	// SourceLine is the offending source line as echoed by the tool, or
	// read from the file during enrichment.
	SourceLine string `json:"source_line,omitempty"`

	// Indicator is the caret/tilde line pinpointing the column.
	Indicator string `json:"indicator,omitempty"`

	// FixText is the accumulated fix-suggestion text, newline-joined in
	// the order the tool printed it.
	FixText string `json:"fix_text,omitempty"`
}

// Key uniquely identifies a diagnostic across parser passes.
func (d *Diagnostic) Key() string {
	return fmt.Sprintf("%s:%d:%d:%s", d.FilePath, d.Line, d.Column, d.Rule)
}

// Location returns a file:line:column string for display.
func (d *Diagnostic) Location() string {
	return fmt.Sprintf("%s:%d:%d", d.FilePath, d.Line, d.Column)
}

// HasContext reports whether both source line and indicator are present.
func (d *Diagnostic) HasContext() bool {
	return d.SourceLine != "" && d.Indicator != ""
}

// =============================================================================
// OPTIONS & CONFIG
// =============================================================================

// RunOptions are the per-run knobs supplied by the caller.
type RunOptions struct {
	// Checks is the explicit check selection (clang-tidy -checks syntax).
	// Ignored when a rule-configuration file governs the run.
	Checks string

	// HeaderFilter is an explicit -header-filter regex. Empty means derive
	// one from the project root unless a rule-configuration file exists.
	HeaderFilter string

	// ExtraArgs are appended verbatim, in order, after all computed flags.
	ExtraArgs []string

	// Parallel overrides the configured job count for this run. Zero
	// means use the configuration.
	Parallel int

	// Progress, when non-nil, is invoked after every task completion with
	// a monotonically increasing completed count.
	Progress func(completed, total int)
}

// ToolConfig is the resolved configuration handed in by the caller.
//
// Thread Safety: Treat as immutable after creation.
type ToolConfig struct {
	// ExecutablePath locates the clang-tidy binary. Defaults to
	// "clang-tidy" (PATH lookup).
	ExecutablePath string

	// ProjectRoot is the directory searched for the rule-configuration
	// file and used for the default header filter.
	ProjectRoot string

	// CompileCommandsPath points at compile_commands.json or the build
	// directory containing it. Its absence is a warning, not a failure.
	CompileCommandsPath string

	// ParallelJobs is the configured worker count. Zero means derive from
	// the host CPU count, capped at the pool ceiling.
	ParallelJobs int

	// ExtraArgs are configuration-level extra arguments, appended before
	// the per-run extras.
	ExtraArgs []string

	// Timeout bounds each process invocation. Zero disables the deadline.
	Timeout time.Duration
}

// =============================================================================
// REPORT DATA
// =============================================================================

// ReportData is the boundary artifact handed to the reporting layer.
//
// Grouping and counts are always recomputed from the diagnostic list by
// BuildReport, never maintained incrementally.
type ReportData struct {
	// Diagnostics is the full ordered list of findings.
	Diagnostics []*Diagnostic `json:"diagnostics"`

	// CountsByRule maps check identifier to occurrence count.
	CountsByRule map[string]int `json:"counts_by_rule"`

	// ByFile groups diagnostics by absolute file path.
	ByFile map[string][]*Diagnostic `json:"by_file"`

	// TotalFiles is the number of files scanned in the run.
	TotalFiles int `json:"total_files"`

	// FilesWithFindings is the number of scanned files with at least one
	// diagnostic.
	FilesWithFindings int `json:"files_with_findings"`

	// Dropped counts diagnostic header lines discarded for an unknown
	// severity token.
	Dropped int `json:"dropped,omitempty"`

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration `json:"duration"`
}

// HasFindings reports whether any diagnostics were produced.
func (r *ReportData) HasFindings() bool {
	return len(r.Diagnostics) > 0
}
