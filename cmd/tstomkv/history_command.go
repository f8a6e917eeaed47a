package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tstomkv/internal/history"
	"tstomkv/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showItems bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the history ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if showItems {
				items, err := store.RecentItems(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No items recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"When", "Outcome", "Recording", "Durations", "Size", "Error"},
					itemRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Status", "Total", "Committed", "Skipped", "Took", "Error"},
				runRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to show")
	cmd.Flags().BoolVar(&showItems, "items", false, "Show individual recordings instead of runs")
	return cmd
}

func runRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = textutil.HumanDuration(r.FinishedAt.Sub(r.StartedAt))
		}
		errText := r.ErrorKind
		if r.ErrorMessage != "" {
			errText += ": " + r.ErrorMessage
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			string(r.Status),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Committed),
			strconv.Itoa(r.Skipped),
			took,
			errText,
		})
	}
	return rows
}

func itemRows(items []history.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		name := it.Title
		if name == "" {
			name = it.RemotePath
		}
		durations := "-"
		if it.SourceSeconds > 0 || it.OutputSeconds > 0 {
			durations = fmt.Sprintf("%s / %s",
				textutil.HumanDuration(time.Duration(it.SourceSeconds)*time.Second),
				textutil.HumanDuration(time.Duration(it.OutputSeconds)*time.Second))
		}
		size := "-"
		if it.OutputBytes > 0 {
			size = humanize.IBytes(uint64(it.OutputBytes))
		}
		rows = append(rows, []string{
			humanize.Time(it.RecordedAt),
			string(it.Outcome),
			name,
			durations,
			size,
			it.ErrorKind,
		})
	}
	return rows
}
