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

import "testing"

func TestSeverityRoundTrip(t *testing.T) {
	for _, sev := range []Severity{SeverityNote, SeverityWarning, SeverityError, SeverityFatal} {
		got, ok := ParseSeverity(sev.String())
		if !ok || got != sev {
			t.Errorf("ParseSeverity(%q) = (%v, %v)", sev.String(), got, ok)
		}
	}
}

func TestParseSeverityRejectsUnknown(t *testing.T) {
	// Strict matching: near-misses must not map to a known level.
	for _, tok := range []string{"", "Error", "WARNING", "remark", "info", "warn", "error "} {
		if _, ok := ParseSeverity(tok); ok {
			t.Errorf("ParseSeverity(%q) accepted", tok)
		}
	}
}

func TestOutcomeKindStrings(t *testing.T) {
	cases := map[OutcomeKind]string{
		OutcomeCompleted:     "completed",
		OutcomeFailedToStart: "failed-to-start",
		OutcomeTimedOut:      "timed-out",
		OutcomeCanceled:      "canceled",
		OutcomeKind(99):      "unknown",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("OutcomeKind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}

func TestTaskResultFailed(t *testing.T) {
	// A non-zero exit is still a completed run; findings are not failures.
	ok := &TaskResult{ExitCode: 1, Outcome: OutcomeCompleted}
	if ok.Failed() {
		t.Error("Completed result with exit 1 reported as failed")
	}
	for _, o := range []OutcomeKind{OutcomeFailedToStart, OutcomeTimedOut, OutcomeCanceled} {
		if !(&TaskResult{Outcome: o}).Failed() {
			t.Errorf("Outcome %v not reported as failed", o)
		}
	}
}

func TestDiagnosticAccessors(t *testing.T) {
	d := &Diagnostic{
		FilePath: "/src/a.cpp",
		Line:     12,
		Column:   5,
		Rule:     "bugprone-use-after-move",
	}

	if got := d.Location(); got != "/src/a.cpp:12:5" {
		t.Errorf("Location() = %q", got)
	}
	if got := d.Key(); got != "/src/a.cpp:12:5:bugprone-use-after-move" {
		t.Errorf("Key() = %q", got)
	}
	if d.HasContext() {
		t.Error("HasContext() = true without source line")
	}
	d.SourceLine = "x = std::move(y);"
	if d.HasContext() {
		t.Error("HasContext() = true without indicator")
	}
	d.Indicator = "^"
	if !d.HasContext() {
		t.Error("HasContext() = false with both fields set")
	}
}
