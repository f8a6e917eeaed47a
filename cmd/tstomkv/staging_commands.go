package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tstomkv/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect files left in the staging directory",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staged files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			leftovers, err := staging.List(cfg.Paths.StagingDir, cfg.Workflow.StopFile)
			if err != nil {
				return fmt.Errorf("list staging directory: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(leftovers) == 0 {
				fmt.Fprintln(out, "Staging directory is empty")
				return nil
			}

			var total int64
			rows := make([][]string, 0, len(leftovers))
			for _, l := range leftovers {
				total += l.Size
				rows = append(rows, []string{l.Rel, humanize.Time(l.ModTime), humanize.IBytes(uint64(l.Size))})
			}
			fmt.Fprintf(out, "Staging directory: %s\n", cfg.Paths.StagingDir)
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Modified", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Total: %d files, %s\n", len(leftovers), humanize.IBytes(uint64(total)))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged files left by failed runs",
		Long: `Remove files from the staging directory.

By default only files untouched for 24 hours are removed so a running
conversion keeps its inputs. Use --older-than 0 to remove everything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, olderThan,
				[]string{cfg.Workflow.StopFile}, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d files, freed %s\n", len(result.Removed), humanize.IBytes(uint64(result.Freed)))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d files could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only remove files not modified within this duration")
	return cmd
}
