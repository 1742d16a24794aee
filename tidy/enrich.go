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
	"strings"
)

// =============================================================================
// ENRICHMENT
// =============================================================================

// Enricher fills in source context for diagnostics the tool emitted
// without any.
//
// Description:
//
//	Groups diagnostics by file path, reads each referenced file at most
//	once, and derives the missing source line and a synthesized caret
//	(column−1 spaces followed by one caret) from the file content.
//	Values already captured from the tool's own output are never
//	overwritten, which also makes the pass idempotent.
//
// Thread Safety: Safe for concurrent use; Enrich mutates only the
// diagnostics passed to it.
type Enricher struct {
	logger *slog.Logger

	// readFile loads one source file. Swappable in tests.
	readFile func(path string) ([]byte, error)
}

// NewEnricher creates an enricher.
func NewEnricher(logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{logger: logger, readFile: os.ReadFile}
}

// Enrich runs the single enrichment pass over the diagnostics.
//
// Description:
//
//	A read failure for one file is logged and skipped for that file's
//	diagnostics only; they keep whatever context the tool provided.
//	Partial enrichment is acceptable and never a fatal condition.
//
// Inputs:
//
//	diags - Parsed diagnostics. Mutated in place.
//
// Thread Safety: Safe for concurrent use on disjoint diagnostic sets.
func (e *Enricher) Enrich(diags []*Diagnostic) {
	byFile := make(map[string][]*Diagnostic)
	for _, d := range diags {
		if d.SourceLine == "" {
			byFile[d.FilePath] = append(byFile[d.FilePath], d)
		}
	}

	for path, fileDiags := range byFile {
		data, err := e.readFile(path)
		if err != nil {
			e.logger.Warn("Cannot read source for enrichment",
				slog.String("file", path),
				slog.String("error", err.Error()),
				slog.Int("diagnostics", len(fileDiags)),
			)
			continue
		}
		lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
		for _, d := range fileDiags {
			// Line numbers are 1-based in tool output, 0-based here.
			if d.Line >= 1 && d.Line <= len(lines) {
				d.SourceLine = lines[d.Line-1]
			}
		}
	}

	for _, d := range diags {
		if d.Indicator == "" && d.SourceLine != "" && d.Column >= 1 {
			d.Indicator = strings.Repeat(" ", d.Column-1) + "^"
		}
	}
}
