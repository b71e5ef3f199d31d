package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// hints under form fields
	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)
)

const logoASCII = `
                    _                                 _ _
  ___  _ __  ___ _ _| |_ _ _ __ _ _ _  ___ __ _ _(_) |__  ___
 / _ \| '_ \/ -_) ' \  _| '_/ _' | ' \(_-</ _| '_| | '_ \/ -_)
 \___/| .__/\___|_||_\__|_| \__,_|_||_/__/\__|_| |_|_.__/\___|
      |_|`

// Logo returns the banner shown above the wizard.
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
