package cmd

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/domain/anomaly"
	"github.com/whistle-ai/whistle/internal/repository/history"
	"github.com/whistle-ai/whistle/internal/ui"
)

// historyTimeLayout renders event timestamps for the table.
const historyTimeLayout = "2006-01-02 15:04:05"

var (
	// historyLimit caps how many events are shown.
	historyLimit int

	// historyCmd lists recently detected anomalies.
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recently detected anomalies.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			repo, err := history.Open(config.HistoryPathFor(configPath))
			if err != nil {
				return err
			}

			defer func() {
				_ = repo.Close()
			}()

			events, err := repo.Recent(ctx, historyLimit)
			if err != nil {
				return err
			}

			printer := ui.NewPrinter()

			if len(events) == 0 {
				printer.Println("No anomalies recorded yet.")
				return nil
			}

			renderHistory(printer, events)

			return nil
		},
	}
)

// renderHistory prints events as an aligned table, the flagged entry
// indented under each row.
func renderHistory(printer *ui.Printer, events []*anomaly.Event) {
	header := []string{"TIME", "SOURCE", "REASON"}

	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			event.Timestamp.Local().Format(historyTimeLayout),
			string(event.Source),
			event.Reason,
		})
	}

	widths := columnWidths(append([][]string{header}, rows...))

	printer.Println(formatRow(header, widths))

	for i, row := range rows {
		printer.Println(formatRow(row, widths))
		printer.Printf("    %s\n", events[i].Entry)
	}
}

// columnWidths measures the widest cell per column by display width.
func columnWidths(rows [][]string) []int {
	if len(rows) == 0 {
		return nil
	}

	widths := make([]int, len(rows[0]))

	for _, row := range rows {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}

	return widths
}

// formatRow pads every cell to its column width, the last one left as is.
func formatRow(row []string, widths []int) string {
	var builder strings.Builder

	for i, cell := range row {
		if i == len(row)-1 {
			builder.WriteString(cell)
			break
		}

		builder.WriteString(cell)
		builder.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		builder.WriteString("  ")
	}

	return builder.String()
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	historyCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultLimit, "maximum number of events to show")

	rootCmd.AddCommand(historyCmd)
}
