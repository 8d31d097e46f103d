package styles

import (
	"github.com/charmbracelet/lipgloss"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)
)

var stateStyles = map[uart.State]lipgloss.Style{
	uart.StateIdle:         lipgloss.NewStyle().Foreground(colors.Idle).Bold(true),
	uart.StateTransmitting: lipgloss.NewStyle().Foreground(colors.Busy).Bold(true),
	uart.StateErrorLatched: lipgloss.NewStyle().Foreground(colors.Latched).Bold(true),
}

// StateStyle returns the style a transport state is rendered in.
func StateStyle(s uart.State) lipgloss.Style {
	if style, ok := stateStyles[s]; ok {
		return style
	}
	return MutedStyle
}

// StateIndicator renders a one-glyph marker for s.
func StateIndicator(s uart.State) string {
	switch s {
	case uart.StateTransmitting:
		return StateStyle(s).Render("▶")
	case uart.StateErrorLatched:
		return StateStyle(s).Render("✗")
	default:
		return StateStyle(s).Render("●")
	}
}
