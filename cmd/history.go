package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gaurav-prasanna/framedoc/history"
	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit int
	flagHistoryClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous extraction runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete all recorded runs")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paths.HistoryPath == "" {
		return fmt.Errorf("run history is disabled (paths.history_path is empty)")
	}

	store, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if flagHistoryClear {
		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d runs\n", n)
		return nil
	}

	runs, err := store.List(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}
	fmt.Fprintln(out, historyTable(runs))
	return nil
}

func historyTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		result := r.OutputPath
		if r.Status == history.StatusFailed {
			result = r.Error
		}
		title := r.Title
		if title == "" {
			title = r.Source
		}
		rows = append(rows, []string{
			humanize.Time(r.StartedAt),
			string(r.Status),
			title,
			strconv.Itoa(r.Pages),
			fmt.Sprintf("%gs", r.Interval),
			r.Duration().Round(100 * time.Millisecond).String(),
			result,
		})
	}
	return renderTable(
		[]string{"Started", "Status", "Title", "Pages", "Interval", "Took", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
