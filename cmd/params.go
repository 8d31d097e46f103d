/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/internal/tui/colors"
)

const (
	columnPlatform = "platform"
	columnBitrates = "bitrates"
	columnDataBits = "databits"
	columnParities = "parities"
	columnStopBits = "stopbits"
	columnStatus   = "status"
)

// paramsCmd represents the params command
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the line settings each transport accepts",
	Long: `Show the allow-lists Setup validates line settings against, and whether
the currently configured settings pass on each platform.

Flow control is rejected by every transport.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := lineParams()
		if err != nil {
			return err
		}
		fmt.Printf("Configured: %s\n\n", params)
		fmt.Println(capabilitiesTable(params, uart.NiosCapabilities, uart.MicroBlazeCapabilities).View())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func capabilitiesTable(params uart.SerialParams, caps ...uart.Capabilities) table.Model {
	columns := []table.Column{
		table.NewColumn(columnPlatform, "Platform", 18),
		table.NewFlexColumn(columnBitrates, "Bit rates", 1),
		table.NewColumn(columnDataBits, "Data", 10),
		table.NewColumn(columnParities, "Parity", 16),
		table.NewColumn(columnStopBits, "Stop", 6),
		table.NewColumn(columnStatus, "Configured", 24),
	}

	rows := make([]table.Row, 0, len(caps))
	for _, c := range caps {
		status := lipgloss.NewStyle().Foreground(colors.Green).Render("ok")
		if err := c.Validate(params); err != nil {
			status = lipgloss.NewStyle().Foreground(colors.Red).Render(shortError(err))
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnPlatform: c.Name,
			columnBitrates: joinValues(c.Bitrates),
			columnDataBits: joinValues(c.DataBits),
			columnParities: joinValues(c.Parities),
			columnStopBits: joinValues(c.StopBits),
			columnStatus:   status,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		WithTargetWidth(120).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).Align(lipgloss.Left))
}

func joinValues[T any](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// shortError keeps the last clause of a wrapped error, which names the
// rejected value.
func shortError(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return "rejects " + msg
}
