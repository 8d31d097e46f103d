package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/internal/tui/colors"
	"github.com/allbin/go-uart/internal/tui/styles"
)

// StatusBar is the nvim-style line at the bottom of the monitor.
type StatusBar struct {
	device  string
	width   int
	status  uart.Status
	elapsed time.Duration
	stalled bool
	loop    bool
	paused  bool
	note    string
	err     error
}

func NewStatusBar(device string) *StatusBar {
	return &StatusBar{device: device}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetStatus(st uart.Status, elapsed time.Duration) {
	sb.status = st
	sb.elapsed = elapsed
}

func (sb *StatusBar) SetFlags(stalled, loopback, paused bool) {
	sb.stalled = stalled
	sb.loop = loopback
	sb.paused = paused
}

// SetMessage shows a transient note, or an error when err is non-nil.
func (sb *StatusBar) SetMessage(note string, err error) {
	sb.note = note
	sb.err = err
}

func modeBlock(inputMode string) string {
	bg := colors.Blue
	if inputMode == "INSERT" {
		bg = colors.Green
	}
	return lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)
}

func (sb *StatusBar) flags() string {
	var out string
	if sb.stalled {
		out += lipgloss.NewStyle().Foreground(colors.Stalled).Render(" STALL")
	}
	if sb.loop {
		out += lipgloss.NewStyle().Foreground(colors.Receive).Render(" LOOP")
	}
	if sb.paused {
		out += lipgloss.NewStyle().Foreground(colors.Overlay0).Render(" PAUSED")
	}
	return out
}

func (sb *StatusBar) View(inputMode, sendingMode string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	state := sb.status.State()
	if sb.status.Closed {
		state = uart.StateErrorLatched
	}

	device := lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true).Padding(0, 1).Render(sb.device)
	indicator := styles.StateIndicator(state)
	stateText := styles.StateStyle(state).Padding(0, 1).Render(state.String())
	divider := lipgloss.NewStyle().Foreground(colors.Surface2).Padding(0, 1).Render("│")

	left := lipgloss.JoinHorizontal(lipgloss.Left, modeBlock(inputMode), device, indicator, stateText, sb.flags())
	if inputMode == "INSERT" {
		send := lipgloss.NewStyle().Foreground(colors.Peach).Bold(true).Padding(0, 1).Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode))
		left = lipgloss.JoinHorizontal(lipgloss.Left, left, send)
	}
	switch {
	case sb.err != nil:
		left = lipgloss.JoinHorizontal(lipgloss.Left, left, divider, styles.ErrorStyle.Render(sb.err.Error()))
	case sb.note != "":
		left = lipgloss.JoinHorizontal(lipgloss.Left, left, divider, styles.MutedStyle.Render(sb.note))
	}

	line := lipgloss.NewStyle().Foreground(colors.Subtext0).Padding(0, 1).Render("⚡ " + sb.status.Params.String())
	clock := lipgloss.NewStyle().Foreground(colors.Subtext1).Padding(0, 1).Render(fmt.Sprintf("t=%.3fms", float64(sb.elapsed)/float64(time.Millisecond)))
	right := lipgloss.JoinHorizontal(lipgloss.Left, divider, line, divider, clock)

	spacer := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacer < 1 {
		spacer = 1
	}
	content := lipgloss.JoinHorizontal(lipgloss.Left, left, lipgloss.NewStyle().Width(spacer).Render(""), right)

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(content)
}
