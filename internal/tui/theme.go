package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// The TUI must remain readable on both light and dark terminal backgrounds.
// We use lipgloss.AdaptiveColor where possible and only apply "faint" styling
// on dark backgrounds (faint text on light terminals often becomes illegible).

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted       lipgloss.TerminalColor = ac("240", "243")
	colorSelectedBg  lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg  lipgloss.TerminalColor = ac("235", "255")
	colorAccent      lipgloss.TerminalColor = ac("27", "62")
	colorCardBorder  lipgloss.TerminalColor = ac("250", "243")
	colorDirty       lipgloss.TerminalColor = ac("130", "214")
	colorError       lipgloss.TerminalColor = ac("124", "203")
	colorOK          lipgloss.TerminalColor = ac("28", "114")
	colorChromeTabFg lipgloss.TerminalColor = ac("255", "255")
)

var (
	styleHeader      = lipgloss.NewStyle().Bold(true)
	styleTabActive   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(colorChromeTabFg).Background(colorAccent)
	styleTabInactive = lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)
	styleCursorRow   = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg)
	styleCard        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorCardBorder).Padding(0, 1)
	styleFieldLabel  = lipgloss.NewStyle().Foreground(colorMuted)
	styleFieldActive = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleDirty       = lipgloss.NewStyle().Foreground(colorDirty)
	styleError       = lipgloss.NewStyle().Foreground(colorError)
	styleOK          = lipgloss.NewStyle().Foreground(colorOK)
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// applyThemePreference honors NO_COLOR and CLOUDCONSOLE_TUI_COLOR=never.
func applyThemePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CLOUDCONSOLE_TUI_COLOR"))) {
	case "never", "off", "0":
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
