// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command clangtide runs clang-tidy across a C/C++ project with bounded
// parallelism and turns the tool's text output into structured, enriched
// diagnostics.
//
// Usage:
//
//	clangtide run src/main.cpp src/widget.cpp
//	clangtide run --jobs 4 --checks 'modernize-*' src/
//	clangtide run --format json src/ | jq '.data.counts_by_rule'
//	clangtide watch src/
//	clangtide doctor
//
// Exit codes:
//
//	0 - analysis ran, no findings
//	1 - analysis ran, findings reported
//	2 - analysis could not run (tool missing, no inputs, bad config)
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(CLIExitError)
	}
	// Run funcs record their exit code instead of exiting so cobra's
	// PersistentPostRun can flush telemetry and close the log file.
	os.Exit(exitCode)
}
