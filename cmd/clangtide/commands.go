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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/clangtide/pkg/logging"
	"github.com/AleutianAI/clangtide/pkg/telemetry"
	"github.com/AleutianAI/clangtide/pkg/ux"
)

// Build metadata, injected via -ldflags at release time.
var (
	version = "dev"
	commit  = "unknown"
)

// tracerName identifies spans opened by the CLI layer.
const tracerName = "clangtide.cmd"

// --- Global Command Variables ---
var (
	configPath    string
	logLevel      string
	verbose       bool
	logDir        string
	jsonLogs      bool
	quietLogs     bool
	noColor       bool
	flagTelemetry string
	flagChecks    string
	flagFilter    string
	flagJobs      int
	flagDB        string
	flagFormat    string
	flagExtra     []string
	flagMetrics   string
	flagDebounce  string

	config   Config
	logger   *logging.Logger
	shutdown func(context.Context) error

	// exitCode is what main exits with after cobra unwinds. Run funcs
	// set it instead of calling os.Exit so PersistentPostRun still
	// flushes telemetry and closes the log file.
	exitCode = CLIExitSuccess

	rootCmd = &cobra.Command{
		Use:   "clangtide",
		Short: "Parallel clang-tidy runner with structured diagnostics",
		Long: `clangtide fans clang-tidy out over a bounded worker pool, merges the
output deterministically, and reports structured diagnostics with
source context. It is built for large C/C++ trees where a naive
serial clang-tidy pass takes the better part of an hour.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			config, err = LoadConfig(configPath)
			if err != nil {
				return err
			}

			if logLevel != "" {
				config.Log.Level = logLevel
			}
			if verbose {
				config.Log.Level = "debug"
			}
			if logDir != "" {
				config.Log.Dir = logDir
			}
			if jsonLogs {
				config.Log.JSON = true
			}
			if flagTelemetry != "" {
				config.Telemetry.Traces = flagTelemetry
			}
			if noColor || !ux.IsTerminal() {
				ux.DisableColor()
			}

			logger = logging.New(logging.Config{
				Level:   logging.ParseLevel(config.Log.Level),
				LogDir:  config.Log.Dir,
				Service: "clangtide",
				JSON:    config.Log.JSON,
				Quiet:   quietLogs || flagFormat == "json",
			})

			tcfg := telemetry.DefaultConfig()
			tcfg.ServiceVersion = version
			if config.Telemetry.Traces != "" {
				tcfg.TraceExporter = config.Telemetry.Traces
			}
			if config.Telemetry.Metrics != "" {
				tcfg.MetricExporter = config.Telemetry.Metrics
			}
			if config.Telemetry.OTLPEndpoint != "" {
				tcfg.OTLPEndpoint = config.Telemetry.OTLPEndpoint
			}
			shutdown, err = telemetry.Init(cmd.Context(), tcfg)
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if shutdown != nil {
				_ = shutdown(cmd.Context())
			}
			if logger != nil {
				_ = logger.Close()
			}
		},
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run [files or directories...]",
		Short: "Analyze source files with clang-tidy",
		Long: `Analyzes the given C/C++ files. Directory arguments are walked
recursively; non-source files are skipped. Exit code 1 means the
analysis ran and found diagnostics.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runAnalysis, // Defined in cmd_run.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [directories...]",
		Short: "Re-analyze files as they change",
		Long: `Watches the given directories (default: the project root) and runs
the analysis on changed source files after a debounce window.
Press Ctrl+C to stop.`,
		Run: runWatch, // Defined in cmd_watch.go
	}

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Check that clang-tidy and the project are set up correctly",
		Run:   runDoctor, // Defined in cmd_doctor.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the clangtide version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clangtide %s (%s)\n", version, commit)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default clangtide.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write JSON logs to this directory")
	rootCmd.PersistentFlags().StringVar(&flagTelemetry, "telemetry", "", "Trace exporter: otlp, stdout, none")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quietLogs, "quiet", "q", false, "Suppress log output on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	runCmd.Flags().StringVar(&flagChecks, "checks", "", "clang-tidy -checks selection (ignored when .clang-tidy exists)")
	runCmd.Flags().StringVar(&flagFilter, "header-filter", "", "clang-tidy -header-filter regex")
	runCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "Max concurrent clang-tidy processes (0 = auto)")
	runCmd.Flags().StringVarP(&flagDB, "compile-commands", "p", "", "Path to compile_commands.json or its directory")
	runCmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	runCmd.Flags().StringArrayVar(&flagExtra, "extra-arg", nil, "Extra argument passed to clang-tidy verbatim (repeatable)")

	watchCmd.Flags().StringVar(&flagMetrics, "metrics-addr", "", "Serve /metrics on this address during the session")
	watchCmd.Flags().StringVar(&flagDebounce, "debounce", "", "Debounce window for filesystem events (e.g. 750ms)")
	watchCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "Max concurrent clang-tidy processes (0 = auto)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
