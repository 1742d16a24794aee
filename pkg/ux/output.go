// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides rich terminal output styling for the clangtide CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// clangtide color palette - deep ocean teals and arctic waters
var (
	// Primary palette
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	// Semantic colors (standard conventions for clarity)
	ColorSuccess = lipgloss.Color("#2CD7C7") // Bright teal for success
	ColorNote    = lipgloss.Color("#5DADE2") // Sky blue for notes
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
	ColorFatal   = lipgloss.Color("#C0392B") // Dark red for fatal
	ColorMuted   = lipgloss.Color("#2C4A54") // Slate for muted text
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	// Text styles
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Note      lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Fatal     lipgloss.Style
	Highlight lipgloss.Style
	Location  lipgloss.Style
	Rule      lipgloss.Style

	// Box styles
	Box lipgloss.Style

	// Status indicators
	StatusOK    lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusError lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Note:      lipgloss.NewStyle().Foreground(ColorNote),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Fatal:     lipgloss.NewStyle().Foreground(ColorFatal).Bold(true),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Location:  lipgloss.NewStyle().Bold(true),
	Rule:      lipgloss.NewStyle().Foreground(ColorTealPrimary),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),

	StatusOK:    lipgloss.NewStyle().SetString("✓").Foreground(ColorSuccess),
	StatusWarn:  lipgloss.NewStyle().SetString("⚠").Foreground(ColorWarning),
	StatusError: lipgloss.NewStyle().SetString("✗").Foreground(ColorError),
}

// SeverityStyle returns the style for a clang-tidy severity token.
//
// Unknown tokens render muted rather than unstyled so malformed
// severities stay visually distinct from real findings.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "note":
		return Styles.Note
	case "warning":
		return Styles.Warning
	case "error":
		return Styles.Error
	case "fatal":
		return Styles.Fatal
	default:
		return Styles.Muted
	}
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
	IconWave    Icon = "〰"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// IsTerminal reports whether stdout is attached to a terminal.
//
// Styled output and progress bars are only appropriate on a real
// terminal; piped output gets plain text.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// DisableColor forces plain output regardless of terminal detection.
//
// Called when --no-color is set or stdout is piped.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Title prints a styled title
func Title(text string) {
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func Warning(text string) {
	fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func Error(text string) {
	fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Muted prints muted/secondary text
func Muted(text string) {
	fmt.Println(Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func Box(title, content string) {
	boxStyle := Styles.Box.Width(60)
	titleLine := Styles.Title.Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// ProgressBar renders a simple progress bar
func ProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}
	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))
	empty := width - filled

	bar := Styles.Success.Render(repeatChar('█', filled)) +
		Styles.Muted.Render(repeatChar('░', empty))

	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = c
	}
	return string(result)
}
