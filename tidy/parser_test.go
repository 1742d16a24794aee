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
	"testing"
)

func TestParseHeader(t *testing.T) {
	p := NewParser(nil)

	t.Run("all fields present", func(t *testing.T) {
		res := p.Parse("/src/widget.cpp:42:7: warning: avoid C-style casts [google-readability-casting]")
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		d := res.Diagnostics[0]
		if d.FilePath != "/src/widget.cpp" {
			t.Errorf("FilePath = %q, want /src/widget.cpp", d.FilePath)
		}
		if d.Line != 42 || d.Column != 7 {
			t.Errorf("Position = %d:%d, want 42:7", d.Line, d.Column)
		}
		if d.Severity != SeverityWarning {
			t.Errorf("Severity = %v, want warning", d.Severity)
		}
		if d.Rule != "google-readability-casting" {
			t.Errorf("Rule = %q, want google-readability-casting", d.Rule)
		}
		if d.Message != "avoid C-style casts" {
			t.Errorf("Message = %q", d.Message)
		}
	})

	t.Run("missing rule suffix", func(t *testing.T) {
		res := p.Parse("/src/widget.cpp:10:1: error: expected ';' after expression")
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		d := res.Diagnostics[0]
		if d.Rule != "" {
			t.Errorf("Rule = %q, want empty", d.Rule)
		}
		if d.Message != "expected ';' after expression" {
			t.Errorf("Message = %q", d.Message)
		}
		if d.Severity != SeverityError {
			t.Errorf("Severity = %v, want error", d.Severity)
		}
	})

	t.Run("windows drive path", func(t *testing.T) {
		res := p.Parse(`C:\proj\main.cpp:3:14: note: previous declaration is here`)
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		d := res.Diagnostics[0]
		if d.FilePath != `C:\proj\main.cpp` {
			t.Errorf("FilePath = %q", d.FilePath)
		}
		if d.Line != 3 || d.Column != 14 {
			t.Errorf("Position = %d:%d, want 3:14", d.Line, d.Column)
		}
		if d.Severity != SeverityNote {
			t.Errorf("Severity = %v, want note", d.Severity)
		}
	})

	t.Run("unknown severity dropped and counted", func(t *testing.T) {
		res := p.Parse("/p/f.cpp:1:1: oddity: something strange")
		if len(res.Diagnostics) != 0 {
			t.Fatalf("Expected 0 diagnostics, got %d", len(res.Diagnostics))
		}
		if res.Dropped != 1 {
			t.Errorf("Dropped = %d, want 1", res.Dropped)
		}
	})

	t.Run("comma separated rule list", func(t *testing.T) {
		res := p.Parse("/p/f.cpp:8:5: warning: shadowed variable [clang-diagnostic-shadow,bugprone-shadow]")
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		if res.Diagnostics[0].Rule != "clang-diagnostic-shadow,bugprone-shadow" {
			t.Errorf("Rule = %q", res.Diagnostics[0].Rule)
		}
	})
}

func TestParseSourceContext(t *testing.T) {
	p := NewParser(nil)

	t.Run("full block", func(t *testing.T) {
		input := "/p/f.cpp:5:9: warning: use of a signed integer operand [bugprone-signed-char-bitwise]\n" +
			"   5 | char c = 'a';\n" +
			"     | ^~~~~"
		res := p.Parse(input)
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		d := res.Diagnostics[0]
		if d.FilePath != "/p/f.cpp" || d.Line != 5 || d.Column != 9 {
			t.Errorf("Position = %s:%d:%d", d.FilePath, d.Line, d.Column)
		}
		if d.Severity != SeverityWarning {
			t.Errorf("Severity = %v", d.Severity)
		}
		if d.Rule != "bugprone-signed-char-bitwise" {
			t.Errorf("Rule = %q", d.Rule)
		}
		if d.SourceLine != "char c = 'a';" {
			t.Errorf("SourceLine = %q", d.SourceLine)
		}
		if d.Indicator != "^~~~~" {
			t.Errorf("Indicator = %q", d.Indicator)
		}
	})

	t.Run("fix lines accumulate in order", func(t *testing.T) {
		input := "/p/f.cpp:5:9: warning: prefer static_cast [google-readability-casting]\n" +
			"   5 | int x = (int)y;\n" +
			"     |         ^\n" +
			"     |         static_cast<int>(\n" +
			"     |         )"
		res := p.Parse(input)
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		d := res.Diagnostics[0]
		// Continuation content keeps its column alignment spaces.
		if d.Indicator != "        ^" {
			t.Errorf("Indicator = %q", d.Indicator)
		}
		want := "        static_cast<int>(\n        )"
		if d.FixText != want {
			t.Errorf("FixText = %q, want %q", d.FixText, want)
		}
	})

	t.Run("blank line terminates accumulation", func(t *testing.T) {
		input := "/p/f.cpp:5:9: warning: something [misc-check]\n" +
			"\n" +
			"   5 | stray context after blank\n"
		res := p.Parse(input)
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		if res.Diagnostics[0].SourceLine != "" {
			t.Errorf("SourceLine = %q, want empty after blank reset", res.Diagnostics[0].SourceLine)
		}
	})

	t.Run("header interrupts in-progress diagnostic", func(t *testing.T) {
		input := "/p/a.cpp:1:1: warning: first [check-a]\n" +
			"/p/b.cpp:2:2: warning: second [check-b]\n" +
			"   2 | int y;\n"
		res := p.Parse(input)
		if len(res.Diagnostics) != 2 {
			t.Fatalf("Expected 2 diagnostics, got %d", len(res.Diagnostics))
		}
		if res.Diagnostics[0].SourceLine != "" {
			t.Errorf("First diagnostic got context %q", res.Diagnostics[0].SourceLine)
		}
		if res.Diagnostics[1].SourceLine != "int y;" {
			t.Errorf("Second diagnostic SourceLine = %q", res.Diagnostics[1].SourceLine)
		}
	})

	t.Run("unrelated line forces idle without consumption", func(t *testing.T) {
		input := "/p/f.cpp:5:9: warning: something [misc-check]\n" +
			"Suppressed 12 warnings (12 in non-user code).\n" +
			"   5 | late context\n"
		res := p.Parse(input)
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		if res.Diagnostics[0].SourceLine != "" {
			t.Errorf("SourceLine = %q, want empty", res.Diagnostics[0].SourceLine)
		}
	})
}

func TestParseEdgeCases(t *testing.T) {
	p := NewParser(nil)

	t.Run("empty input", func(t *testing.T) {
		res := p.Parse("")
		if len(res.Diagnostics) != 0 {
			t.Errorf("Expected 0 diagnostics, got %d", len(res.Diagnostics))
		}
		if res.Dropped != 0 {
			t.Errorf("Dropped = %d, want 0", res.Dropped)
		}
	})

	t.Run("noise only", func(t *testing.T) {
		res := p.Parse("Running clang-tidy...\n8 warnings generated.\n")
		if len(res.Diagnostics) != 0 {
			t.Errorf("Expected 0 diagnostics, got %d", len(res.Diagnostics))
		}
	})

	t.Run("crlf input", func(t *testing.T) {
		res := p.Parse("/p/f.cpp:5:9: warning: w [misc-check]\r\n   5 | int x;\r\n")
		if len(res.Diagnostics) != 1 {
			t.Fatalf("Expected 1 diagnostic, got %d", len(res.Diagnostics))
		}
		if res.Diagnostics[0].SourceLine != "int x;" {
			t.Errorf("SourceLine = %q", res.Diagnostics[0].SourceLine)
		}
	})

	t.Run("mixed known and unknown severities", func(t *testing.T) {
		input := "/p/f.cpp:1:1: warning: good [check-a]\n" +
			"/p/f.cpp:2:2: bogus: bad\n" +
			"/p/f.cpp:3:3: fatal: worse\n"
		res := p.Parse(input)
		if len(res.Diagnostics) != 2 {
			t.Fatalf("Expected 2 diagnostics, got %d", len(res.Diagnostics))
		}
		if res.Dropped != 1 {
			t.Errorf("Dropped = %d, want 1", res.Dropped)
		}
		if res.Diagnostics[1].Severity != SeverityFatal {
			t.Errorf("Severity = %v, want fatal", res.Diagnostics[1].Severity)
		}
	})

	t.Run("context after dropped header is ignored", func(t *testing.T) {
		input := "/p/f.cpp:2:2: bogus: bad\n" +
			"   2 | int x;\n"
		res := p.Parse(input)
		if len(res.Diagnostics) != 0 {
			t.Fatalf("Expected 0 diagnostics, got %d", len(res.Diagnostics))
		}
	})
}

func TestParseSeverityTokens(t *testing.T) {
	cases := []struct {
		token string
		want  Severity
		ok    bool
	}{
		{"note", SeverityNote, true},
		{"warning", SeverityWarning, true},
		{"error", SeverityError, true},
		{"fatal", SeverityFatal, true},
		{"info", 0, false},
		{"WARNING", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseSeverity(tc.token)
		if ok != tc.ok {
			t.Errorf("ParseSeverity(%q) ok = %v, want %v", tc.token, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}
