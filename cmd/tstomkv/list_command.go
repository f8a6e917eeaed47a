package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tstomkv/internal/catalog"
	"tstomkv/internal/config"
	"tstomkv/internal/pathmap"
	"tstomkv/internal/transfer"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the recordings the next run would convert",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withChannel(cmd.Context(), func(cfg *config.Config, logger *slog.Logger, ch transfer.Channel) error {
				cat, err := catalog.New(cfg, ch, logger)
				if err != nil {
					return err
				}
				candidates, err := cat.ListCandidates(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(candidates) == 0 {
					fmt.Fprintln(out, "No recordings to convert")
					return nil
				}
				mapper := pathmap.New(cfg.Source.Roots, cfg.Paths.StagingDir, cfg.Source.OutputExt)
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Title", "Episode", "Size", "Path"},
					candidateRows(candidates, mapper),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "%d recordings, %s\n", len(candidates), humanize.IBytes(uint64(totalSize(candidates))))
				return nil
			})
		},
	}
}

func candidateRows(candidates []catalog.Candidate, mapper *pathmap.Mapper) [][]string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		episode := c.Subtitle
		if c.Season > 0 && c.Episode > 0 {
			episode = fmt.Sprintf("S%02dE%02d %s", c.Season, c.Episode, c.Subtitle)
		}
		size := "-"
		if c.SizeBytes > 0 {
			size = humanize.IBytes(uint64(c.SizeBytes))
		}
		path := c.Path
		if _, ok := mapper.Match(c.Path); !ok {
			path += " (outside source roots)"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Title, episode, size, path})
	}
	return rows
}

func totalSize(candidates []catalog.Candidate) int64 {
	var total int64
	for _, c := range candidates {
		if c.SizeBytes > 0 {
			total += c.SizeBytes
		}
	}
	return total
}
