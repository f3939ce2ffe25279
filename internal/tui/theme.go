package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The TUI must stay readable on both light and dark terminal backgrounds, so
// every color here is an AdaptiveColor pair.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted   lipgloss.TerminalColor = ac("240", "243")
	colorAccent  lipgloss.TerminalColor = ac("27", "62") // blue
	colorError   lipgloss.TerminalColor = ac("124", "167")
	colorOutput  lipgloss.TerminalColor = ac("241", "245")
	colorFocusBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorFocusFg lipgloss.TerminalColor = ac("235", "255")

	colorPaneBorder       lipgloss.TerminalColor = ac("250", "243")
	colorActivePaneBorder lipgloss.TerminalColor = ac("232", "255")
)

var (
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleCommand  = lipgloss.NewStyle().Foreground(colorAccent)
	styleOutput   = lipgloss.NewStyle().Foreground(colorOutput)
	styleError    = lipgloss.NewStyle().Foreground(colorError)
	styleFocusRow = lipgloss.NewStyle().Background(colorFocusBg).Foreground(colorFocusFg)

	stylePane       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPaneBorder)
	styleActivePane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorActivePaneBorder)
	styleStatusBar  = lipgloss.NewStyle().Foreground(colorMuted)
)

// monochromeTerminal reports a color-less output profile; glyphs fall back to
// ASCII there because the fancy ones tend to come from the same old setups.
func monochromeTerminal() bool {
	return termenv.EnvColorProfile() == termenv.Ascii
}
