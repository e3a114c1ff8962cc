package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-karol/internal/storage"
)

var (
	flagHistoryLimit int
	flagHistoryClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history [program]",
	Short: "Show recorded runs",
	Long: `Display the most recent runs of a program together with its statistics.
Without a program, lists every program that has been run.

Examples:
  karol history
  karol history burg
  karol history burg.kdp --limit 50
  karol history burg --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: withStore(runHistory),
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete the history instead of showing it")
}

func runHistory(cmd *cobra.Command, store *storage.Store, args []string) error {
	out := cmd.OutOrStdout()
	program := ""
	if len(args) == 1 {
		program = args[0]
	}

	if flagHistoryClear {
		if err := store.ClearRuns(program); err != nil {
			return err
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	if program == "" {
		return printAllStats(cmd, store)
	}

	runs, err := store.RecentRuns(program, flagHistoryLimit)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Runs - %s\n", program)
	fmt.Fprintln(out)

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "  %-4s  %-8s  %-6s  %-8s  %-16s  %s\n", "#", "Outcome", "Steps", "Time", "Date", "Error")
	fmt.Fprintf(out, "  %-4s  %-8s  %-6s  %-8s  %-16s  %s\n", "-", "-------", "-----", "----", "----", "-----")
	for i, r := range runs {
		date := "-"
		if !r.CreatedAt.IsZero() {
			date = r.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "  %-4d  %-8s  %-6d  %-8s  %-16s  %s\n",
			i+1, r.Outcome, r.Steps, r.Duration.Round(time.Millisecond), date, r.Error)
	}

	stats, err := store.GetProgramStats(program)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Runs: %d  Finished: %d  Failed: %d  Avg steps: %.1f\n",
		stats.Runs, stats.Finished, stats.Failed, stats.AvgSteps)
	if stats.BestSteps > 0 {
		fmt.Fprintf(out, "Best: %d steps\n", stats.BestSteps)
	}
	return nil
}

func printAllStats(cmd *cobra.Command, store *storage.Store) error {
	out := cmd.OutOrStdout()
	all, err := store.GetAllProgramStats()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'karol run <file>' to record the first one.")
		return nil
	}

	programs := make([]string, 0, len(all))
	maxLen := 7 // "Program" header
	for p := range all {
		programs = append(programs, p)
		maxLen = max(maxLen, len(p))
	}
	sort.Strings(programs)

	fmt.Fprintf(out, "  %-*s  %-5s  %-8s  %-6s  %s\n", maxLen, "Program", "Runs", "Finished", "Best", "Last run")
	fmt.Fprintf(out, "  %-*s  %-5s  %-8s  %-6s  %s\n", maxLen, "-------", "----", "--------", "----", "--------")
	for _, p := range programs {
		s := all[p]
		last := "-"
		if !s.LastRun.IsZero() {
			last = s.LastRun.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "  %-*s  %-5d  %-8d  %-6d  %s\n", maxLen, p, s.Runs, s.Finished, s.BestSteps, last)
	}
	return nil
}
