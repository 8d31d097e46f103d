package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/internal/tui/colors"
)

// TxStatus is how far a transmitted message got.
type TxStatus string

const (
	TxQueued   TxStatus = "QUEUED"
	TxPartial  TxStatus = "PARTIAL"
	TxWritten  TxStatus = "WRITTEN"
	TxRejected TxStatus = "REJECTED"
)

// DataReceivedMsg is one line of the byte log. At is simulated time since
// the board started, or zero for wall-clock stamped entries.
type DataReceivedMsg struct {
	Timestamp time.Time
	At        time.Duration
	Data      []byte
	IsTX      bool
	Status    TxStatus
	Errors    uart.LineError
	Note      string
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

var txStatusColors = map[TxStatus]lipgloss.Color{
	TxQueued:   colors.Yellow,
	TxPartial:  colors.Peach,
	TxWritten:  colors.Green,
	TxRejected: colors.Red,
}

func (df *DataFormatter) indicator(msg DataReceivedMsg) string {
	switch {
	case msg.Note != "":
		return lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true).Render("• SIM")
	case msg.IsTX:
		c, ok := txStatusColors[msg.Status]
		if !ok {
			c = colors.Transmit
		}
		label := "↗ TX"
		if msg.Status != "" {
			label += " " + strings.ToLower(string(msg.Status))
		}
		return lipgloss.NewStyle().Foreground(c).Bold(true).Render(label)
	default:
		return lipgloss.NewStyle().Foreground(colors.Receive).Bold(true).Render("↙ RX")
	}
}

func (df *DataFormatter) stamp(msg DataReceivedMsg) string {
	var s string
	if msg.Timestamp.IsZero() {
		s = fmt.Sprintf("%12.3fms", float64(msg.At)/float64(time.Millisecond))
	} else {
		s = msg.Timestamp.Format("15:04:05.000")
	}
	return lipgloss.NewStyle().Foreground(colors.Subtext0).Render("[" + s + "]")
}

// Printable replaces everything outside printable ASCII with dots.
func Printable(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func (df *DataFormatter) FormatMessage(msg DataReceivedMsg) string {
	var parts []string
	if msg.Note != "" {
		parts = append(parts, msg.Note)
	} else {
		if df.mode.ShowHex {
			parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
		}
		if df.mode.ShowASCII {
			parts = append(parts, "ASCII: "+Printable(msg.Data))
		}
		if !df.mode.ShowHex && !df.mode.ShowASCII {
			parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
		}
	}
	if msg.Errors != 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colors.Latched).Render("ERR: "+msg.Errors.String()))
	}

	return fmt.Sprintf("%s %s: %s", df.stamp(msg), df.indicator(msg), strings.Join(parts, "  "))
}

func (df *DataFormatter) FormatMessages(messages []DataReceivedMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}
