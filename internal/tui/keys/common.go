package keys

import "github.com/charmbracelet/bubbles/key"

// Common key bindings used across TUI commands
type CommonKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	Escape     key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insert mode"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
	}
}

// MonitorKeys drive a simulated transport: the log view, sending, and the
// faults the simulated line can be made to produce.
type MonitorKeys struct {
	CommonKeys
	ClearLog    key.Binding
	ToggleHex   key.Binding
	ToggleASCII key.Binding

	Send           key.Binding
	ToggleSendMode key.Binding
	HistoryUp      key.Binding
	HistoryDown    key.Binding

	Flush       key.Binding
	ClearErrors key.Binding
	Stall       key.Binding
	Loopback    key.Binding
	Remote      key.Binding
	Parity      key.Binding
	Framing     key.Binding
	Overrun     key.Binding
	Pause       key.Binding
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		CommonKeys: NewCommonKeys(),
		ClearLog: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		ToggleASCII: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle ascii"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "queue message"),
		),
		ToggleSendMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle send mode"),
		),
		HistoryUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous"),
		),
		HistoryDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next"),
		),
		Flush: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "flush"),
		),
		ClearErrors: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear queues and errors"),
		),
		Stall: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stall transmitter"),
		),
		Loopback: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle loopback"),
		),
		Remote: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "remote sends a line"),
		),
		Parity: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "parity error"),
		),
		Framing: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "framing error"),
		),
		Overrun: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "overrun error"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause clock"),
		),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.Flush, k.Stall, k.Loopback, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Send, k.ToggleSendMode},
		{k.ClearLog, k.ToggleHex, k.ToggleASCII, k.Pause},
		{k.Flush, k.ClearErrors, k.Stall, k.Loopback},
		{k.Remote, k.Parity, k.Framing, k.Overrun},
		{k.Help, k.Quit},
	}
}
