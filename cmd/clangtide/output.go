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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/clangtide/pkg/ux"
	"github.com/AleutianAI/clangtide/tidy"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Analysis completed, no findings
	CLIExitFindings = 1 // Analysis completed with findings
	CLIExitError    = 2 // Analysis could not run
)

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OutputJSON writes structured data as JSON to stdout.
//
// # Inputs
//
//   - data: The data to encode. Must be JSON-serializable.
//
// # Outputs
//
//   - error: Non-nil if encoding fails.
func OutputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
//
// # Inputs
//
//   - jsonMode: If true, output as JSON to stdout.
//   - msg: Human-readable error message.
//   - err: The underlying error.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Timestamp:  time.Now(),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		_ = OutputJSON(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// OutputReport renders the analysis report and returns the exit code.
//
// # Inputs
//
//   - report: The completed analysis report.
//   - format: "text" or "json".
//   - start: Start time for duration metadata.
//
// # Outputs
//
//   - int: CLIExitSuccess or CLIExitFindings.
func OutputReport(report *tidy.ReportData, format string, start time.Time) int {
	if format == "json" {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    "run",
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    true,
			Data:       report,
		}
		if err := OutputJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return CLIExitError
		}
	} else {
		renderTextReport(report)
	}

	if report.HasFindings() {
		return CLIExitFindings
	}
	return CLIExitSuccess
}

// renderTextReport prints the human-readable report to stdout.
//
// Diagnostics are grouped per file in emission order, followed by a
// per-rule count table and a one-line summary.
func renderTextReport(report *tidy.ReportData) {
	if !report.HasFindings() {
		ux.Success(fmt.Sprintf("No findings in %d files (%s)",
			report.TotalFiles, report.Duration.Round(time.Millisecond)))
		return
	}

	// Stable file ordering for readable diffs between runs.
	files := make([]string, 0, len(report.ByFile))
	for f := range report.ByFile {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Println(ux.Styles.Title.Render(file))
		for _, d := range report.ByFile[file] {
			sev := ux.SeverityStyle(d.Severity.String()).Render(d.Severity.String())
			loc := ux.Styles.Location.Render(fmt.Sprintf("%d:%d", d.Line, d.Column))
			line := fmt.Sprintf("  %s %s: %s", loc, sev, d.Message)
			if d.Rule != "" {
				line += " " + ux.Styles.Rule.Render("["+d.Rule+"]")
			}
			fmt.Println(line)
			if d.HasContext() {
				fmt.Println("    " + d.SourceLine)
				fmt.Println("    " + ux.Styles.Success.Render(d.Indicator))
			}
			if d.FixText != "" {
				for _, fix := range strings.Split(d.FixText, "\n") {
					fmt.Println("    " + ux.Styles.Muted.Render(fix))
				}
			}
		}
		fmt.Println()
	}

	renderRuleCounts(report.CountsByRule)

	summary := fmt.Sprintf("%d findings in %d of %d files (%s)",
		len(report.Diagnostics), report.FilesWithFindings,
		report.TotalFiles, report.Duration.Round(time.Millisecond))
	if report.Dropped > 0 {
		summary += fmt.Sprintf(", %d unparseable lines dropped", report.Dropped)
	}
	ux.Warning(summary)
}

// renderRuleCounts prints rules sorted by descending count, ties by name.
func renderRuleCounts(counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	type ruleCount struct {
		rule  string
		count int
	}
	sorted := make([]ruleCount, 0, len(counts))
	for rule, n := range counts {
		sorted = append(sorted, ruleCount{rule, n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].rule < sorted[j].rule
	})

	fmt.Println(ux.Styles.Bold.Render("Findings by rule:"))
	for _, rc := range sorted {
		fmt.Printf("  %4d  %s\n", rc.count, ux.Styles.Rule.Render(rc.rule))
	}
	fmt.Println()
}
