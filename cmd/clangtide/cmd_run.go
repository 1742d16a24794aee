// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/clangtide/pkg/telemetry"
	"github.com/AleutianAI/clangtide/pkg/ux"
	"github.com/AleutianAI/clangtide/tidy"
)

// runAnalysis implements the "run" command.
//
// Arguments are files or directories. Directories are walked recursively
// and filtered down to recognized source extensions; explicit file
// arguments pass through untouched so the analysis layer reports them.
func runAnalysis(cmd *cobra.Command, args []string) {
	start := time.Now()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, span := telemetry.StartSpan(ctx, tracerName, "run")
	defer span.End()

	files, err := collectInputFiles(args)
	if err != nil {
		telemetry.RecordError(span, err)
		OutputError(flagFormat == "json", "Failed to collect input files", err)
		exitCode = CLIExitError
		return
	}
	telemetry.SetSpanAttributes(span, attribute.Int("files", len(files)))

	log := logger.With("run_id", uuid.NewString(), "command", "run")
	if tid := telemetry.TraceID(ctx); tid != "" {
		log = log.With("trace_id", tid)
	}

	runner := tidy.NewRunner(buildToolConfig(), tidy.WithLogger(log.Slog()))

	opts := runOptions()
	if flagFormat != "json" && ux.IsTerminal() {
		opts.Progress = func(completed, total int) {
			fmt.Fprintf(os.Stderr, "\r%s", ux.ProgressBar(completed, total, 40))
			if completed == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	report, err := runner.Run(ctx, files, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Analysis run failed", "error", err)
		OutputError(flagFormat == "json", "Analysis failed", err)
		exitCode = CLIExitError
		return
	}
	telemetry.SetSpanOK(span)
	telemetry.SetSpanAttributes(span,
		attribute.Int("diagnostics", len(report.Diagnostics)))

	exitCode = OutputReport(report, flagFormat, start)
}

// runOptions merges per-run flags over the config file defaults. A set
// flag wins; an empty flag falls back to the file value.
func runOptions() tidy.RunOptions {
	checks := flagChecks
	if checks == "" {
		checks = config.Checks
	}
	filter := flagFilter
	if filter == "" {
		filter = config.HeaderFilter
	}
	return tidy.RunOptions{
		Checks:       checks,
		HeaderFilter: filter,
		ExtraArgs:    flagExtra,
		Parallel:     flagJobs,
	}
}

// buildToolConfig resolves the tool configuration from file config plus
// command-line overrides.
func buildToolConfig() tidy.ToolConfig {
	db := config.CompileCommands
	if flagDB != "" {
		db = flagDB
	}
	return tidy.ToolConfig{
		ExecutablePath:      config.Executable,
		ProjectRoot:         absProjectRoot(),
		CompileCommandsPath: db,
		ParallelJobs:        config.Jobs,
		ExtraArgs:           config.ExtraArgs,
		Timeout:             config.Timeout.Std(),
	}
}

// collectInputFiles expands directory arguments into their source files.
//
// # Inputs
//
//   - args: File or directory paths from the command line.
//
// # Outputs
//
//   - []string: Files in argument order, walk order within directories.
//   - error: Non-nil if an argument does not exist or a walk fails.
func collectInputFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Dot-directories hide VCS metadata and editor state.
				if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if tidy.IsSourceFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", arg, err)
		}
	}
	return files, nil
}
