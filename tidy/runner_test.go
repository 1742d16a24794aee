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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedInvoker returns canned results selected by a substring of the
// task's argument list. Unmatched tasks get the fallback result.
type scriptedInvoker struct {
	mu       sync.Mutex
	calls    [][]string
	byArg    map[string]*TaskResult
	fallback *TaskResult
}

func (s *scriptedInvoker) Invoke(_ context.Context, task *Task) (*TaskResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string{task.Executable}, task.Args...))
	s.mu.Unlock()

	joined := strings.Join(task.Args, " ")
	for key, res := range s.byArg {
		if strings.Contains(joined, key) {
			out := *res
			return &out, nil
		}
	}
	out := *s.fallback
	return &out, nil
}

func TestRunFullPipeline(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.cpp")
	fileB := filepath.Join(dir, "b.cpp")
	require.NoError(t, os.WriteFile(fileA, []byte("int main() {\n  int x = 0;\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte("int y = 0;\n"), 0o644))

	// Batch for a.cpp emits a bare header; enrichment must supply the
	// context from disk. Batch for b.cpp carries inline context.
	inv := &scriptedInvoker{
		byArg: map[string]*TaskResult{
			"a.cpp": {
				Stdout:   fmt.Sprintf("%s:2:3: warning: prefer auto [modernize-use-auto]\n", fileA),
				ExitCode: 1,
				Outcome:  OutcomeCompleted,
			},
			"b.cpp": {
				Stdout: fmt.Sprintf("%s:1:5: error: bad initializer [bugprone-suspicious-init]\n", fileB) +
					"    1 | int y = 0;\n" +
					"      |     ^\n",
				ExitCode: 1,
				Outcome:  OutcomeCompleted,
			},
		},
		fallback: &TaskResult{Outcome: OutcomeCompleted},
	}

	r := NewRunner(ToolConfig{ProjectRoot: dir}, WithInvoker(inv))
	report, err := r.Run(context.Background(), []string{fileA, fileB}, RunOptions{Parallel: 2})
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Len(t, report.Diagnostics, 2)
	// Diagnostics follow batch order regardless of completion order.
	first, second := report.Diagnostics[0], report.Diagnostics[1]
	assert.Equal(t, fileA, first.FilePath)
	assert.Equal(t, SeverityWarning, first.Severity)
	assert.Equal(t, "modernize-use-auto", first.Rule)
	assert.Equal(t, "  int x = 0;", first.SourceLine, "enriched from disk")
	assert.Equal(t, "  ^", first.Indicator, "caret synthesized at column 3")

	assert.Equal(t, fileB, second.FilePath)
	assert.Equal(t, SeverityError, second.Severity)
	assert.Equal(t, "int y = 0;", second.SourceLine, "inline context wins")
	assert.Equal(t, "    ^", second.Indicator)

	assert.Equal(t, 2, report.TotalFiles)
	assert.Equal(t, 2, report.FilesWithFindings)
	assert.Equal(t, 1, report.CountsByRule["modernize-use-auto"])
	assert.Equal(t, 0, report.Dropped)
	assert.True(t, report.HasFindings())
}

func TestRunEmptyOutputIsFailure(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clean.cpp")
	require.NoError(t, os.WriteFile(file, []byte("int main() {}\n"), 0o644))

	// Zero exit and no stdout means the tool never actually ran the
	// checks; clang-tidy reports clean runs with output on stderr only
	// in pathological setups, never with a silent stdout.
	inv := &scriptedInvoker{
		fallback: &TaskResult{ExitCode: 0, Outcome: OutcomeCompleted},
	}
	r := NewRunner(ToolConfig{ProjectRoot: dir}, WithInvoker(inv))

	report, err := r.Run(context.Background(), []string{file}, RunOptions{})
	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolFailed)
	assert.NotErrorIs(t, err, ErrToolNotFound)
}

func TestRunAllFailedToStart(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.cpp")
	require.NoError(t, os.WriteFile(file, []byte("\n"), 0o644))

	inv := &scriptedInvoker{
		fallback: &TaskResult{
			Stderr:   "exec: \"clang-tidy\": executable file not found in $PATH",
			ExitCode: -1,
			Outcome:  OutcomeFailedToStart,
		},
	}
	r := NewRunner(ToolConfig{ProjectRoot: dir}, WithInvoker(inv))

	report, err := r.Run(context.Background(), []string{file}, RunOptions{})
	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Contains(t, err.Error(), "not found in $PATH")
}

func TestRunNoInputFiles(t *testing.T) {
	r := NewRunner(ToolConfig{ProjectRoot: t.TempDir()},
		WithInvoker(&scriptedInvoker{fallback: &TaskResult{}}))

	_, err := r.Run(context.Background(), nil, RunOptions{})
	assert.ErrorIs(t, err, ErrNoInputFiles)

	// README and friends filter out before batching.
	_, err = r.Run(context.Background(), []string{"README.md", "notes.txt"}, RunOptions{})
	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestRunPartialFailureStillReports(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.cpp")
	bad := filepath.Join(dir, "bad.cpp")
	require.NoError(t, os.WriteFile(good, []byte("int g;\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("int b;\n"), 0o644))

	inv := &scriptedInvoker{
		byArg: map[string]*TaskResult{
			"good.cpp": {
				Stdout:   fmt.Sprintf("%s:1:1: warning: unused [misc-unused]\n", good),
				ExitCode: 1,
				Outcome:  OutcomeCompleted,
			},
			"bad.cpp": {
				Stderr:   "killed",
				ExitCode: -1,
				Outcome:  OutcomeTimedOut,
			},
		},
		fallback: &TaskResult{Outcome: OutcomeCompleted},
	}
	r := NewRunner(ToolConfig{ProjectRoot: dir}, WithInvoker(inv))

	report, err := r.Run(context.Background(), []string{good, bad}, RunOptions{Parallel: 2})
	require.NoError(t, err, "one timed-out batch must not abort the run")
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, good, report.Diagnostics[0].FilePath)
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		result  *TaskResult
		wantErr bool
	}{
		{
			name: "real clang-tidy accepted",
			result: &TaskResult{
				Stdout:   "LLVM (http://llvm.org/):\n  LLVM version 18.1.8\n",
				ExitCode: 0,
				Outcome:  OutcomeCompleted,
			},
		},
		{
			name: "imposter binary rejected",
			result: &TaskResult{
				Stdout:   "totally-not-a-linter 1.0\n",
				ExitCode: 0,
				Outcome:  OutcomeCompleted,
			},
			wantErr: true,
		},
		{
			name: "nonzero exit rejected even with marker",
			result: &TaskResult{
				Stdout:   "LLVM version 18.1.8\n",
				ExitCode: 2,
				Outcome:  OutcomeCompleted,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &scriptedInvoker{
				byArg:    map[string]*TaskResult{"--version": tt.result},
				fallback: &TaskResult{},
			}
			r := NewRunner(ToolConfig{}, WithInvoker(inv))

			version, err := r.Probe(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrProbeFailed)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, version, "LLVM version 18.1.8")
			assert.False(t, strings.HasSuffix(version, "\n"), "version output is trimmed")
		})
	}
}

func TestCompileCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "compile_commands.json"), []byte("[]"), 0o644))

	r := NewRunner(ToolConfig{ProjectRoot: t.TempDir(), CompileCommandsPath: dir},
		WithInvoker(&scriptedInvoker{fallback: &TaskResult{}}))
	resolved, err := r.CompileCommands()
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)

	r = NewRunner(ToolConfig{ProjectRoot: t.TempDir()},
		WithInvoker(&scriptedInvoker{fallback: &TaskResult{}}))
	_, err = r.CompileCommands()
	assert.ErrorIs(t, err, ErrNoCompileCommands)
}
