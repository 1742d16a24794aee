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
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// LINE CLASSIFICATION
// =============================================================================

// clang-tidy's diagnostics stream has no unique delimiter between findings.
// Each line is classified by shape, in a fixed order, and drives a small
// state machine.
var (
	// headerPattern matches `<path>:<line>:<column>: <severity>: <message>`.
	// The non-greedy path group also accepts drive-qualified Windows paths:
	// backtracking extends it past the drive colon because a digit group
	// must follow the path separator.
	headerPattern = regexp.MustCompile(`^(.+?):(\d+):(\d+): ([a-z]+): (.*)$`)

	// rulePattern matches the optional trailing ` [check-name]` suffix on a
	// header's message.
	rulePattern = regexp.MustCompile(`^(.*?) \[([A-Za-z0-9.,*_-]+)\]$`)

	// contextPattern matches the echoed source line: leading whitespace, a
	// line number, a pipe, then the source text.
	contextPattern = regexp.MustCompile(`^\s*(\d+)\s*\| ?(.*)$`)

	// continuationPattern matches indicator and fix lines: leading
	// whitespace, a pipe with no line number, then content.
	continuationPattern = regexp.MustCompile(`^\s*\| ?(.*)$`)
)

// parseState enumerates the parser's two states.
type parseState int

const (
	// stateIdle means no diagnostic is accumulating continuation lines.
	stateIdle parseState = iota

	// stateInDiagnostic means the last emitted diagnostic may still
	// receive source-context, indicator, and fix lines.
	stateInDiagnostic
)

// parseRun is the mutable state of one Parse call.
type parseRun struct {
	state   parseState
	current *Diagnostic
	diags   []*Diagnostic
	dropped int
}

// parseRule is one (predicate → transition) pair. Rules are evaluated in
// order per line; the first match wins.
type parseRule struct {
	name  string
	match func(run *parseRun, line string) bool
	apply func(run *parseRun, line string)
}

// =============================================================================
// DIAGNOSTIC TEXT PARSER
// =============================================================================

// Parser reconstructs structured diagnostics from clang-tidy's merged
// text output.
//
// Description:
//
//	Line processing is strictly sequential: classification of a line
//	depends on the state left by prior lines, so a Parse call is never
//	parallelized internally. Each call owns its own state and is safe
//	to run concurrently with other calls.
//
// Thread Safety: Safe for concurrent use.
type Parser struct {
	logger *slog.Logger
	rules  []parseRule
}

// ParseResult is the outcome of one Parse call.
type ParseResult struct {
	// Diagnostics are the findings in emission order.
	Diagnostics []*Diagnostic

	// Dropped counts header-shaped lines discarded for an unknown
	// severity token.
	Dropped int
}

// NewParser creates a parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{logger: logger}
	p.rules = p.transitionTable()
	return p
}

// Parse consumes the merged raw output and returns structured diagnostics.
//
// Description:
//
//	Evaluates the transition table per input line:
//
//	 1. A blank line unconditionally returns to idle.
//	 2. A header line always starts a new diagnostic, from either state.
//	    An unknown severity token discards the record and counts it.
//	 3. In-diagnostic, a numbered pipe line carries the source context.
//	 4. In-diagnostic, a bare pipe line is the position indicator when it
//	    contains a caret or tilde, otherwise accumulated fix text.
//	 5. Any other non-blank line in-diagnostic returns to idle without
//	    being consumed as a new diagnostic.
//
// Inputs:
//
//	text - Merged stdout from all batches. May be empty.
//
// Outputs:
//
//	*ParseResult - Ordered diagnostics plus the drop count. Empty input
//	yields an empty list, not an error.
//
// Thread Safety: Safe for concurrent use.
func (p *Parser) Parse(text string) *ParseResult {
	run := &parseRun{diags: make([]*Diagnostic, 0, 16)}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for i := range p.rules {
			if p.rules[i].match(run, line) {
				p.rules[i].apply(run, line)
				break
			}
		}
	}

	if run.dropped > 0 {
		p.logger.Warn("Dropped diagnostics with unknown severity",
			slog.Int("count", run.dropped),
		)
	}

	return &ParseResult{Diagnostics: run.diags, Dropped: run.dropped}
}

// transitionTable builds the ordered rule set. Order is load-bearing: the
// header rule must run before the context rule because a header line also
// contains digits and colons, and the context rule must run before the
// generic continuation rule because both contain a pipe.
func (p *Parser) transitionTable() []parseRule {
	return []parseRule{
		{
			name: "blank",
			match: func(_ *parseRun, line string) bool {
				return strings.TrimSpace(line) == ""
			},
			apply: func(run *parseRun, _ string) {
				run.state = stateIdle
				run.current = nil
			},
		},
		{
			name: "header",
			match: func(_ *parseRun, line string) bool {
				return headerPattern.MatchString(line)
			},
			apply: p.applyHeader,
		},
		{
			name: "source-context",
			match: func(run *parseRun, line string) bool {
				return run.state == stateInDiagnostic && contextPattern.MatchString(line)
			},
			apply: func(run *parseRun, line string) {
				m := contextPattern.FindStringSubmatch(line)
				run.current.SourceLine = m[2]
			},
		},
		{
			name: "continuation",
			match: func(run *parseRun, line string) bool {
				return run.state == stateInDiagnostic && continuationPattern.MatchString(line)
			},
			apply: func(run *parseRun, line string) {
				m := continuationPattern.FindStringSubmatch(line)
				content := m[1]
				if strings.ContainsAny(content, "^~") {
					// Indicator is stored once; repeats are discarded.
					if run.current.Indicator == "" {
						run.current.Indicator = content
					}
					return
				}
				if run.current.FixText == "" {
					run.current.FixText = content
				} else {
					run.current.FixText += "\n" + content
				}
			},
		},
		{
			name: "other",
			match: func(_ *parseRun, _ string) bool {
				return true
			},
			apply: func(run *parseRun, _ string) {
				run.state = stateIdle
				run.current = nil
			},
		},
	}
}

// applyHeader starts a new diagnostic from a header line, regardless of
// the current state.
func (p *Parser) applyHeader(run *parseRun, line string) {
	m := headerPattern.FindStringSubmatch(line)

	severity, ok := ParseSeverity(m[4])
	if !ok {
		run.dropped++
		run.state = stateIdle
		run.current = nil
		p.logger.Debug("Unknown severity token",
			slog.String("token", m[4]),
			slog.String("file", m[1]),
		)
		return
	}

	lineNo, _ := strconv.Atoi(m[2])
	colNo, _ := strconv.Atoi(m[3])

	message := m[5]
	rule := ""
	if rm := rulePattern.FindStringSubmatch(message); rm != nil {
		message = rm[1]
		rule = rm[2]
	}

	d := &Diagnostic{
		FilePath: m[1],
		Line:     lineNo,
		Column:   colNo,
		Severity: severity,
		Rule:     rule,
		Message:  message,
	}
	run.diags = append(run.diags, d)
	run.current = d
	run.state = stateInDiagnostic
}
