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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/clangtide/pkg/ux"
	"github.com/AleutianAI/clangtide/tidy"
)

// runDoctor implements the "doctor" command.
//
// Checks the environment an analysis run depends on: the clang-tidy
// binary, the compile commands database, and the rule configuration
// file. A missing binary is fatal; the rest are warnings.
func runDoctor(cmd *cobra.Command, args []string) {
	runner := tidy.NewRunner(buildToolConfig(), tidy.WithLogger(logger.Slog()))

	ux.Title("clangtide doctor")
	healthy := true

	version, err := runner.Probe(cmd.Context())
	if err != nil {
		printStatus(statusError, fmt.Sprintf("clang-tidy not usable (%s): %v",
			runner.Executable(), err))
		healthy = false
	} else {
		printStatus(statusOK, fmt.Sprintf("clang-tidy found: %s", firstLine(version)))
	}

	if db, err := runner.CompileCommands(); err != nil {
		printStatus(statusWarn,
			"compile_commands.json not found; analysis will rely on clang-tidy defaults")
	} else {
		printStatus(statusOK, fmt.Sprintf("compile commands database: %s", db))
	}

	ruleConfig := filepath.Join(absProjectRoot(), tidy.RuleConfigFileName)
	if _, err := os.Stat(ruleConfig); err != nil {
		printStatus(statusWarn, fmt.Sprintf(
			"no %s in project root; check selection falls back to flags",
			tidy.RuleConfigFileName))
	} else {
		printStatus(statusOK, fmt.Sprintf("rule configuration: %s", ruleConfig))
	}

	if !healthy {
		exitCode = CLIExitError
	}
}

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

// printStatus prints a single doctor check line.
func printStatus(kind statusKind, text string) {
	switch kind {
	case statusOK:
		fmt.Printf("  %s %s\n", ux.Styles.StatusOK.Render("[ok]"), text)
	case statusWarn:
		fmt.Printf("  %s %s\n", ux.Styles.StatusWarn.Render("[warn]"), text)
	default:
		fmt.Printf("  %s %s\n", ux.Styles.StatusError.Render("[fail]"), text)
	}
}

// firstLine returns text up to the first newline.
func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
	}
	return text
}
