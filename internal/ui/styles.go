// Package ui holds terminal styling shared by gatewatch commands.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#5A67D8", Dark: "#7C3AED"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#38B2AC", Dark: "#4FD1C5"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#38A169", Dark: "#48BB78"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#D69E2E", Dark: "#F6E05E"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#E53E3E", Dark: "#FC8181"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#718096", Dark: "#A0AEC0"}
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A202C", Dark: "#F7FAFC"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#CBD5E0", Dark: "#4A5568"}
)

// Base styles
var (
	// TitleStyle for headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// SubtitleStyle for section headers
	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	// LabelStyle for key names in key-value pairs
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted)

	// ValueStyle for values
	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)

	// PanelStyle for bordered panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// Progress bar styles
var (
	ProgressBarFilled   = lipgloss.NewStyle().Foreground(ColorSuccess)
	ProgressBarEmpty    = lipgloss.NewStyle().Foreground(ColorMuted)
	ProgressBarWarning  = lipgloss.NewStyle().Foreground(ColorWarning)
	ProgressBarCritical = lipgloss.NewStyle().Foreground(ColorError)
)

// ProgressBar renders a bar of the given width, colored by how full it is.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := max(min(int(percent/100.0*float64(width)), width), 0)

	var style lipgloss.Style
	switch {
	case percent >= 90:
		style = ProgressBarCritical
	case percent >= 75:
		style = ProgressBarWarning
	default:
		style = ProgressBarFilled
	}

	return style.Render(strings.Repeat("█", filled)) + ProgressBarEmpty.Render(strings.Repeat("░", width-filled))
}

// StatusStyle picks the style for a job or occurrence status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "ok", "connected":
		return SuccessStyle
	case "error":
		return ErrorStyle
	case "pending":
		return WarningStyle
	default:
		return MutedStyle
	}
}

// StatusDot returns a colored status indicator
func StatusDot(status string) string {
	return StatusStyle(status).Render("●")
}

// FormatKeyValue formats a key-value pair
func FormatKeyValue(key, value string) string {
	return LabelStyle.Render(key+":") + " " + ValueStyle.Render(value)
}
