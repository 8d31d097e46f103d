/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-uart/hw/sim"
	"github.com/allbin/go-uart/internal/tui/components"
	"github.com/allbin/go-uart/internal/tui/keys"
	"github.com/allbin/go-uart/internal/tui/models"
	"github.com/allbin/go-uart/internal/tui/styles"
)

var (
	monitorRefresh time.Duration
	monitorFrames  int
	monitorRemote  string
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive monitor for a transport on a simulated board",
	Long: `Run the configured transport on a simulated board and watch it work.

The board clock advances a few frame periods on every refresh. Queue levels,
the transport state (idle, transmitting or error latched) and a byte log of
everything that left the wire or arrived are shown live. Data can be queued
from the input line, and the simulated line can be stalled, looped back or
made to report parity, framing and overrun errors.

Examples:
  uartsim monitor
  uartsim monitor --platform microblaze --bitrate 9600
  uartsim monitor --irq -1 --frames 16`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := newTarget()
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%s@0x%X", t.platform, viper.GetUint64("base"))
		session := models.NewSession(name, t.board, t.u, t.dev, t.irq)
		defer func() {
			if err := session.Close(); err != nil {
				glog.Warningf("closing %s: %v", name, err)
			}
		}()

		m := newMonitorModel(session, monitorRefresh, monitorFrames, []byte(monitorRemote))
		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorRefresh, "refresh", 100*time.Millisecond, "Wall-clock time between board steps")
	monitorCmd.Flags().IntVar(&monitorFrames, "frames", 4, "Frame periods simulated per step")
	monitorCmd.Flags().StringVar(&monitorRemote, "remote", "hello from the far end\r\n", "Line the far end sends on 'r'")
}

type stepMsg time.Time

type monitorModel struct {
	*models.Session
	refresh time.Duration
	frames  int
	remote  []byte
	ready   bool

	queues    *components.QueuePanel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.MonitorKeys
}

func newMonitorModel(s *models.Session, refresh time.Duration, frames int, remote []byte) *monitorModel {
	m := &monitorModel{
		Session:   s,
		refresh:   refresh,
		frames:    max(frames, 1),
		remote:    remote,
		queues:    components.NewQueuePanel(80),
		terminal:  components.NewTerminal(0, 0, 1000),
		statusBar: components.NewStatusBar(s.Name()),
		input:     components.NewInput(),
		help:      help.New(),
		keys:      keys.NewMonitorKeys(),
	}
	m.refreshStatus()
	return m
}

func (m *monitorModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return stepMsg(t)
	})
}

func (m *monitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m *monitorModel) refreshStatus() {
	st := m.Status()
	m.queues.SetStatus(st)
	m.statusBar.SetStatus(st, m.Elapsed())
	m.statusBar.SetFlags(m.Flags())
}

func (m *monitorModel) log(entries ...components.DataReceivedMsg) {
	for _, e := range entries {
		m.terminal.AddMessage(e)
	}
}

func (m *monitorModel) layout(width, height int) {
	m.queues.SetWidth(width - 4)
	m.input.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.help.Width = width

	// header, queue panel, log border, input box, status bar and help
	fixed := 1 + lipgloss.Height(styles.PanelStyle.Render(m.queues.View())) + 1 + 3 + 1 + lipgloss.Height(m.help.View(m.keys))
	m.terminal.SetSize(width, max(height-fixed, 3))
	m.ready = true
}

func (m *monitorModel) inject(f sim.Fault, name string) {
	m.Inject(f)
	m.statusBar.SetMessage(name+" fault injected", nil)
}

func (m *monitorModel) updateInsert(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.SetInputMode(models.InputModeNormal)
		m.input.Blur()
	case key.Matches(msg, m.keys.Send):
		data, err := m.input.Payload()
		if err != nil {
			m.statusBar.SetMessage("", err)
			return nil
		}
		e := m.Send(data)
		m.log(e)
		m.statusBar.SetMessage(fmt.Sprintf("%d of %d bytes queued", queuedBytes(e), len(data)), nil)
		m.input.AddToHistory(m.input.Value())
		m.input.SetValue("")
	case key.Matches(msg, m.keys.HistoryUp):
		m.input.NavigateHistoryUp()
	case key.Matches(msg, m.keys.HistoryDown):
		m.input.NavigateHistoryDown()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	default:
		return m.input.Update(msg)
	}
	return nil
}

func queuedBytes(e components.DataReceivedMsg) int {
	if e.Status == components.TxRejected {
		return 0
	}
	return len(e.Data)
}

func (m *monitorModel) updateNormal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.InsertMode):
		m.SetInputMode(models.InputModeInsert)
		m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.ClearLog):
		m.terminal.Clear()
	case key.Matches(msg, m.keys.ToggleHex):
		m.terminal.ToggleHex()
	case key.Matches(msg, m.keys.ToggleASCII):
		m.terminal.ToggleASCII()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	case key.Matches(msg, m.keys.Flush):
		if err := m.Flush(); err != nil {
			m.statusBar.SetMessage("", err)
		} else {
			m.statusBar.SetMessage("flushed", nil)
		}
		m.log(m.Step(0)...)
	case key.Matches(msg, m.keys.ClearErrors):
		m.ClearErrors()
		m.statusBar.SetMessage("queues and errors cleared", nil)
	case key.Matches(msg, m.keys.Stall):
		m.ToggleStall()
	case key.Matches(msg, m.keys.Loopback):
		m.ToggleLoopback()
	case key.Matches(msg, m.keys.Pause):
		m.TogglePaused()
	case key.Matches(msg, m.keys.Remote):
		m.Remote(m.remote)
	case key.Matches(msg, m.keys.Parity):
		m.inject(sim.FaultParity, "parity")
	case key.Matches(msg, m.keys.Framing):
		m.inject(sim.FaultFraming, "framing")
	case key.Matches(msg, m.keys.Overrun):
		m.inject(sim.FaultOverrun, "overrun")
	}
	return nil
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)
		cmds = append(cmds, m.terminal.Update(msg))

	case tea.MouseMsg:
		cmds = append(cmds, m.terminal.Update(msg))

	case stepMsg:
		m.log(m.Step(m.frames)...)
		cmds = append(cmds, m.tick())

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			cmds = append(cmds, m.updateInsert(msg))
		} else {
			cmds = append(cmds, m.updateNormal(msg))
		}
	}

	m.refreshStatus()
	return m, tea.Batch(cmds...)
}

func (m *monitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.TitleStyle.Render(m.Name()),
		" ",
		styles.StateIndicator(m.Status().State()),
	)
	queues := styles.PanelStyle.Render(m.queues.View())
	content := styles.ContentBorderStyle.Render(m.terminal.View())
	input := m.input.View(m.IsInInsertMode())
	status := m.statusBar.View(m.GetInputMode().String(), m.input.GetSendingMode().String())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		queues,
		content,
		input,
		status,
		m.help.View(m.keys),
	)
}
