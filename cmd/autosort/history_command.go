package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"autosort/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		runID   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("journal is disabled (set journal.enabled = true)")
			}
			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if runID != "" {
				entries, err := store.Entries(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, entries)
				}
				printEntries(cmd, entries)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, runs)
			}
			printRuns(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the files moved by one run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []journal.Run) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.SourceDir,
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Fallbacks),
			strconv.Itoa(r.Skipped),
			finishedLabel(r),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Run", "Started", "Source", "Moved", "Failed", "Fallback", "Skipped", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}

func finishedLabel(r journal.Run) string {
	switch {
	case r.FinishedAt.IsZero():
		return "incomplete"
	case r.SetupErrors != "":
		return "setup errors"
	case r.Failed > 0:
		return "failures"
	default:
		return "ok"
	}
}

func printEntries(cmd *cobra.Command, entries []journal.Entry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No files recorded for this run")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := e.Final
		if !e.Success {
			result = "failed: " + e.Error
		}
		rows = append(rows, []string{e.Category, e.Original, result, yesNo(e.Fallback)})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Category", "Original", "Result", "Fallback"}, rows, nil))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
