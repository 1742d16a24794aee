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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/clangtide/pkg/telemetry"
	"github.com/AleutianAI/clangtide/pkg/ux"
	"github.com/AleutianAI/clangtide/tidy"
)

// runWatch implements the "watch" command.
//
// Watches the given directories (default: the project root) and re-runs
// analysis on the changed files after each debounce window. Runs until
// interrupted.
func runWatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := args
	if len(roots) == 0 {
		roots = []string{absProjectRoot()}
	}

	log := logger.With("command", "watch")
	runner := tidy.NewRunner(buildToolConfig(), tidy.WithLogger(log.Slog()))

	if addr := metricsAddr(); addr != "" {
		startMetricsServer(ctx, addr)
	}

	debounce := config.Watch.Debounce.Std()
	if flagDebounce != "" {
		parsed, err := time.ParseDuration(flagDebounce)
		if err != nil {
			ux.Error(fmt.Sprintf("Invalid --debounce value %q: %v", flagDebounce, err))
			exitCode = CLIExitError
			return
		}
		debounce = parsed
	}

	onChange := func(ctx context.Context, changed []string) {
		ctx, span := telemetry.StartSpan(ctx, tracerName, "watch.batch")
		defer span.End()

		runLog := log.With("run_id", uuid.NewString())
		if tid := telemetry.TraceID(ctx); tid != "" {
			runLog = runLog.With("trace_id", tid)
		}
		runLog.Info("Re-analyzing changed files", "files", len(changed))

		report, err := runner.Run(ctx, changed, runOptions())
		if err != nil {
			if errors.Is(err, tidy.ErrNoInputFiles) {
				return
			}
			telemetry.RecordError(span, err)
			runLog.Error("Analysis run failed", "error", err)
			ux.Error(fmt.Sprintf("Analysis failed: %v", err))
			return
		}
		telemetry.SetSpanOK(span)
		renderTextReport(report)
	}

	watcher, err := tidy.NewWatcher(roots, debounce, onChange, log.Slog())
	if err != nil {
		log.Error("Failed to create watcher", "error", err)
		ux.Error(fmt.Sprintf("Failed to create watcher: %v", err))
		exitCode = CLIExitError
		return
	}

	ux.Title("clangtide watch")
	ux.Muted(fmt.Sprintf("Watching %d directories, debounce %s. Ctrl-C to stop.",
		len(roots), debounce))

	watcher.Start(ctx)
	log.Info("Watch stopped")
}

// metricsAddr resolves the metrics listen address from flag or config.
func metricsAddr() string {
	if flagMetrics != "" {
		return flagMetrics
	}
	return config.Watch.MetricsAddr
}

// startMetricsServer serves the Prometheus scrape endpoint in the
// background. Only useful when the metrics exporter is "prometheus".
func startMetricsServer(ctx context.Context, addr string) {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		logger.Warn("Metrics address set but prometheus exporter not enabled",
			"addr", addr)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("Metrics server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
