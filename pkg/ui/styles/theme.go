// Package styles provides the centralized theme for the simchat UI.
package styles

import (
	"charm.land/lipgloss/v2"
)

// Color palette - ANSI 256 colors used throughout the application
var (
	ColorAccent = lipgloss.Color("141")

	ColorText      = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("245")

	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")
	ColorSuccess = lipgloss.Color("42")

	ColorBorder      = lipgloss.Color("141")
	ColorBorderMuted = lipgloss.Color("62")
)

var (
	// TitleStyle for the sim name in the header.
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// UserLabelStyle prefixes the user's own messages.
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	// SimLabelStyle prefixes the sim's replies.
	SimLabelStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// MutedStyle for footers, hints and timestamps.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// ErrorStyle for the error banner.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// NoticeStyle for non-fatal warnings.
	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// IncompleteStyle marks replies whose stream was cut off.
	IncompleteStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)

	// PickerBoxStyle frames the conversation picker overlay.
	PickerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2)

	// PickerSelectedStyle highlights the selected conversation.
	PickerSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)
