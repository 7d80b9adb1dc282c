// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/remitware/remit/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5FA8D3")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// LabelStyle formats field labels in detail views.
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(22)

	// TableHeaderStyle is used for table headers. It stays border-free so
	// a rendered table is one line per row.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SubtleColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// StatusStyle picks a color for a claim status: terminal-good in green,
// dead ends in red, everything in flight in yellow.
func StatusStyle(status model.ClaimStatus) lipgloss.Style {
	switch status {
	case model.StatusPaid, model.StatusAccepted, model.StatusValidated:
		return SuccessStyle
	case model.StatusDenied, model.StatusRejected, model.StatusWriteOff:
		return ErrorStyle
	default:
		return WarningStyle
	}
}

// RenderStatus renders a claim status in its severity color.
func RenderStatus(status model.ClaimStatus) string {
	return StatusStyle(status).Render(string(status))
}

// RenderConfidence colors a confidence value by how trustworthy it is.
func RenderConfidence(confidence float64) string {
	text := formatPercent(confidence)
	switch {
	case confidence >= 0.7:
		return SuccessStyle.Render(text)
	case confidence >= 0.5:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}
