package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/internal/tui/colors"
)

// QueuePanel shows the fill level of both queues and the latched errors.
type QueuePanel struct {
	table  table.Model
	status uart.Status
}

const (
	queueNameWidth  = 8
	queueCountWidth = 9
	queueMinBar     = 10
	queueRows       = 3
)

func NewQueuePanel(width int) *QueuePanel {
	t := table.New(table.WithFocused(false))

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(colors.Text)
	s.Selected = s.Cell
	t.SetStyles(s)

	qp := &QueuePanel{table: t}
	qp.SetWidth(width)
	return qp
}

func (qp *QueuePanel) barWidth() int {
	w := qp.table.Width() - queueNameWidth - queueCountWidth - 6
	if w < queueMinBar {
		w = queueMinBar
	}
	return w
}

func (qp *QueuePanel) SetWidth(width int) {
	qp.table.SetWidth(width)
	qp.table.SetColumns([]table.Column{
		{Title: "Queue", Width: queueNameWidth},
		{Title: "Used", Width: queueCountWidth},
		{Title: "Level", Width: qp.barWidth()},
	})
	qp.table.SetHeight(queueRows + 2)
	qp.refresh()
}

func (qp *QueuePanel) SetStatus(st uart.Status) {
	qp.status = st
	qp.refresh()
}

func (qp *QueuePanel) refresh() {
	st := qp.status
	errs := "none"
	if st.Errors != 0 {
		errs = st.Errors.String()
	}
	qp.table.SetRows([]table.Row{
		{"tx", fmt.Sprintf("%d/%d", st.TxQueued, st.TxCapacity), Bar(st.TxQueued, st.TxCapacity, qp.barWidth())},
		{"rx", fmt.Sprintf("%d/%d", st.RxQueued, st.RxCapacity), Bar(st.RxQueued, st.RxCapacity, qp.barWidth())},
		{"errors", "", errs},
	})
}

// Bar renders used/capacity as a fixed-width gauge.
func Bar(used, capacity, width int) string {
	if capacity <= 0 || width <= 0 {
		return ""
	}
	filled := used * width / capacity
	if used > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (qp *QueuePanel) View() string {
	return qp.table.View()
}
