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
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// RuleConfigFileName is the project-level file that overrides clang-tidy's
// check selection and filters. When present in the project root it governs
// the run: no explicit -checks flag and no default -header-filter.
const RuleConfigFileName = ".clang-tidy"

// sourceExtensions are the file extensions passed to clang-tidy as
// positional arguments. Everything else is filtered out.
var sourceExtensions = map[string]bool{
	".c":   true,
	".cc":  true,
	".cpp": true,
	".cxx": true,
	".c++": true,
	".m":   true,
	".mm":  true,
	".cu":  true,
	".h":   true,
	".hh":  true,
	".hpp": true,
	".hxx": true,
	".h++": true,
}

// IsSourceFile reports whether the path has a recognized source or header
// extension.
func IsSourceFile(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// FilterSourceFiles returns only the paths with recognized extensions,
// preserving order.
func FilterSourceFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if IsSourceFile(f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// BATCH BUILDER
// =============================================================================

// BatchBuilder turns a file list and configuration into invocation batches.
//
// Description:
//
//	Pure transformation apart from two filesystem probes: the rule-
//	configuration file check and the compile-database check, both of
//	which only read existence.
//
// Thread Safety: Safe for concurrent use.
type BatchBuilder struct {
	cfg    ToolConfig
	logger *slog.Logger
}

// NewBatchBuilder creates a builder for the given configuration.
func NewBatchBuilder(cfg ToolConfig, logger *slog.Logger) *BatchBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchBuilder{cfg: cfg, logger: logger}
}

// EffectiveJobs returns the worker count for a run.
//
// Description:
//
//	Per-run override wins, then configured parallelism, then
//	min(NumCPU, pool ceiling). Floor is 1.
func (b *BatchBuilder) EffectiveJobs(opts RunOptions) int {
	jobs := opts.Parallel
	if jobs <= 0 {
		jobs = b.cfg.ParallelJobs
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
		if jobs > maxPoolWorkers {
			jobs = maxPoolWorkers
		}
	}
	if jobs < 1 {
		jobs = 1
	}
	return jobs
}

// BuildBatches partitions the file list and computes per-batch argument
// vectors.
//
// Description:
//
//	Batch size is ceil(N / effectiveJobs). Batches partition the input
//	exactly: no overlap, full coverage, relative order preserved. A
//	single-file input yields one batch so the pool adds no overhead.
//	The file list is filtered to recognized extensions first.
//
// Inputs:
//
//	files - Absolute source file paths.
//	opts - Per-run options.
//
// Outputs:
//
//	[]*Batch - Ordered batches with complete argument vectors.
//	error - ErrNoInputFiles if nothing survives extension filtering.
//
// Thread Safety: Safe for concurrent use.
func (b *BatchBuilder) BuildBatches(files []string, opts RunOptions) ([]*Batch, error) {
	sources := FilterSourceFiles(files)
	if len(sources) == 0 {
		return nil, ErrNoInputFiles
	}

	flags := b.BuildFlags(opts)

	jobs := b.EffectiveJobs(opts)
	size := (len(sources) + jobs - 1) / jobs
	if size < 1 {
		size = 1
	}

	batches := make([]*Batch, 0, (len(sources)+size-1)/size)
	for start := 0; start < len(sources); start += size {
		end := start + size
		if end > len(sources) {
			end = len(sources)
		}
		chunk := sources[start:end]
		args := make([]string, 0, len(flags)+len(chunk))
		args = append(args, flags...)
		args = append(args, chunk...)
		batches = append(batches, &Batch{
			Index: len(batches),
			Files: chunk,
			Args:  args,
		})
	}

	return batches, nil
}

// BuildFlags computes the flag portion of the argument vector, honoring
// configuration precedence.
//
// Description:
//
//	The precedence rules, in order:
//
//	 1. A rule-configuration file in the project root is passed as
//	    --config-file and suppresses any explicit -checks flag: the
//	    file's own check list governs.
//	 2. Otherwise -checks is passed, defaulting to "*" (all checks).
//	 3. -header-filter is passed when the user configured one explicitly,
//	    or when no rule-configuration file exists (defaulting to the
//	    project root path). With a rule-configuration file and no
//	    explicit filter the flag is omitted so the file's filter applies.
//	 4. -p is appended whenever the compile database resolves; its
//	    absence is logged as a warning, not a failure.
//	 5. Configured and per-run extra arguments are appended verbatim, in
//	    order, after all computed flags.
//
// Thread Safety: Safe for concurrent use.
func (b *BatchBuilder) BuildFlags(opts RunOptions) []string {
	var flags []string

	ruleConfig := b.ruleConfigPath()
	if ruleConfig != "" {
		flags = append(flags, "--config-file="+ruleConfig)
	} else {
		checks := opts.Checks
		if checks == "" {
			checks = "*"
		}
		flags = append(flags, "-checks="+checks)
	}

	switch {
	case opts.HeaderFilter != "":
		flags = append(flags, "-header-filter="+opts.HeaderFilter)
	case ruleConfig == "" && b.cfg.ProjectRoot != "":
		flags = append(flags, "-header-filter="+b.cfg.ProjectRoot)
	}

	if db := b.resolveCompileCommands(); db != "" {
		flags = append(flags, "-p="+db)
	} else {
		b.logger.Warn("Compile commands database not found; analysis may be partial",
			slog.String("configured_path", b.cfg.CompileCommandsPath),
		)
	}

	flags = append(flags, b.cfg.ExtraArgs...)
	flags = append(flags, opts.ExtraArgs...)

	return flags
}

// ruleConfigPath returns the project rule-configuration file, or "" when
// absent.
func (b *BatchBuilder) ruleConfigPath() string {
	if b.cfg.ProjectRoot == "" {
		return ""
	}
	path := filepath.Join(b.cfg.ProjectRoot, RuleConfigFileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// resolveCompileCommands returns the -p argument: the directory holding
// compile_commands.json, or "" when it cannot be resolved.
func (b *BatchBuilder) resolveCompileCommands() string {
	path := b.cfg.CompileCommandsPath
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(path, "compile_commands.json")); err != nil {
			return ""
		}
		return path
	}
	// A direct file path: clang-tidy's -p wants the containing directory.
	return filepath.Dir(path)
}
