package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs",
	Long: `Without arguments, lists the most recent runs, newest first.
With a run ID, shows the details of that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, base, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg, base)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("history is disabled (history.path is empty)")
	}
	defer store.Close()

	if len(args) == 1 {
		rec, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("failed to get run: %w", err)
		}
		showRun(cmd.OutOrStdout(), rec)
		return nil
	}

	records, err := store.List(historyLimit)
	if err != nil {
		return err
	}
	listRuns(cmd.OutOrStdout(), records)
	return nil
}

func listRuns(w io.Writer, records []history.RunRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	// Column widths
	idWidth := len("RUN")
	dataWidth := len("DATA SET")
	for _, r := range records {
		idWidth = max(idWidth, len(r.ID))
		dataWidth = max(dataWidth, len(r.DataSet))
	}

	fmt.Fprintf(w, "%-*s  %-9s  %-*s  %6s  %-9s  %8s  %10s\n",
		idWidth, "RUN", "ALGORITHM", dataWidth, "DATA SET", "LENGTH", "STATUS", "STEPS", "TIME")
	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
		strings.Repeat("-", idWidth), strings.Repeat("-", 9), strings.Repeat("-", dataWidth),
		strings.Repeat("-", 6), strings.Repeat("-", 9), strings.Repeat("-", 8), strings.Repeat("-", 10))

	for _, r := range records {
		fmt.Fprintf(w, "%-*s  %-9s  %-*s  %6d  %-9s  %8d  %10s\n",
			idWidth, r.ID, r.Algorithm, dataWidth, r.DataSet, r.Length, r.Status, r.Steps,
			formatElapsed(r.Elapsed(), r.HasElapsed))
	}
}

func showRun(w io.Writer, r *history.RunRecord) {
	printField(w, "Run", r.ID)
	printField(w, "Algorithm", r.Algorithm)
	printField(w, "Data set", r.DataSet)
	printField(w, "Length", r.Length)
	printField(w, "Status", r.Status)
	printField(w, "Steps", r.Steps)
	printField(w, "Time", formatElapsed(r.Elapsed(), r.HasElapsed))
	printField(w, "Started", r.StartedAt.Local().Format(time.DateTime))
	printField(w, "Finished", r.FinishedAt.Local().Format(time.DateTime))
}
