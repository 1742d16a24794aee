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

import "time"

// BuildReport derives the boundary artifact for the reporting layer.
//
// Description:
//
//	All aggregates are recomputed from the diagnostic list on every
//	call. Nothing is maintained incrementally, so the counts can never
//	diverge from the list.
//
// Inputs:
//
//	diags - The full ordered diagnostic list.
//	totalFiles - Number of files scanned in the run.
//	dropped - Count of discarded unparseable header lines.
//	duration - Wall-clock time of the run.
//
// Outputs:
//
//	*ReportData - Diagnostics plus derived aggregates.
func BuildReport(diags []*Diagnostic, totalFiles, dropped int, duration time.Duration) *ReportData {
	counts := make(map[string]int)
	byFile := make(map[string][]*Diagnostic)

	for _, d := range diags {
		counts[d.Rule]++
		byFile[d.FilePath] = append(byFile[d.FilePath], d)
	}

	return &ReportData{
		Diagnostics:       diags,
		CountsByRule:      counts,
		ByFile:            byFile,
		TotalFiles:        totalFiles,
		FilesWithFindings: len(byFile),
		Dropped:           dropped,
		Duration:          duration,
	}
}
