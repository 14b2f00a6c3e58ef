package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/stepbench/internal/history"
)

var (
	historyTask   string
	historyStatus string
	historyLimit  int
	historyPrune  string
)

var errHistoryDisabled = errors.New("run history is disabled (history.enabled = false)")

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs",
	Long: `List recorded runs, newest first, or show one run with its executions.

Examples:
  stepbench history
  stepbench history --task resize --status failed
  stepbench history 6f1c0c1e-8a4e-4e0e-9a57-2b8f0f5b8a10
  stepbench history --prune 30d`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyTask, "task", "t", "", "only runs of this runnable")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only runs with this status (succeeded, failed)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
	historyCmd.Flags().StringVar(&historyPrune, "prune", "", "delete runs older than this age (e.g. 72h, 30d, 2w)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !cfg.History.Enabled {
		return errHistoryDisabled
	}

	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open run history")
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()

	switch {
	case historyPrune != "":
		age, err := parseAge(historyPrune)
		if err != nil {
			return fmt.Errorf("invalid --prune value: %w", err)
		}
		n, err := store.Prune(ctx, age)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d runs older than %s\n", n, historyPrune)
		return nil

	case len(args) == 1:
		run, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printRun(out, run)
	}

	runs, err := store.List(ctx, history.Filter{
		Runnable: historyTask,
		Status:   history.Status(historyStatus),
		Limit:    historyLimit,
	})
	if err != nil {
		return err
	}
	return printRuns(out, runs)
}

func printRuns(out io.Writer, runs []*history.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRUNNABLE\tSTATUS\tREPS\tSTARTED\tDURATION\tOUTPUT")
	for _, r := range runs {
		output := r.OutputPath
		if r.Status == history.StatusFailed {
			output = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Runnable, r.Status, r.Repetitions,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatDuration(r.Duration()), output)
	}
	return tw.Flush()
}

func printRun(out io.Writer, r *history.Run) error {
	fmt.Fprintf(out, "Run:         %s\n", r.ID)
	fmt.Fprintf(out, "Runnable:    %s\n", r.Runnable)
	fmt.Fprintf(out, "Status:      %s\n", r.Status)
	fmt.Fprintf(out, "Started:     %s\n", r.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration:    %s\n", formatDuration(r.Duration()))
	if r.OutputPath != "" {
		fmt.Fprintf(out, "Output:      %s\n", r.OutputPath)
	}
	if r.ArchiveURI != "" {
		fmt.Fprintf(out, "Archive:     %s\n", r.ArchiveURI)
	}
	if r.Error != "" {
		fmt.Fprintf(out, "Error:       %s\n", r.Error)
	}

	if len(r.Executions) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REP\tDURATION\tLOG STREAM\tEXECUTION")
	for _, e := range r.Executions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Index, formatDuration(e.Duration), e.LogStream, e.ExecutionARN)
	}
	return tw.Flush()
}

// parseAge accepts Go durations plus d (days), w (weeks) and y (years).
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var multiplier time.Duration
	var numStr string

	switch {
	case strings.HasSuffix(s, "d"):
		numStr = strings.TrimSuffix(s, "d")
		multiplier = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		numStr = strings.TrimSuffix(s, "w")
		multiplier = 7 * 24 * time.Hour
	case strings.HasSuffix(s, "y"):
		numStr = strings.TrimSuffix(s, "y")
		multiplier = 365 * 24 * time.Hour
	default:
		return time.ParseDuration(s)
	}

	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return 0, fmt.Errorf("invalid number: %s", numStr)
	}

	return time.Duration(num) * multiplier, nil
}
