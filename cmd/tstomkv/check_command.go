package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tstomkv/internal/logging"
	"tstomkv/internal/preflight"
	"tstomkv/internal/services"
	"tstomkv/internal/transfer"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks against the configured environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var results []preflight.Result
			var ch transfer.Channel
			if opened, err := transfer.New(cmd.Context(), cfg, logger); err != nil {
				results = append(results, preflight.Result{Name: "Transfer (" + cfg.Transfer.Backend + ")", Detail: err.Error()})
			} else {
				ch = opened
				defer ch.Close()
			}
			logger.Debug("running preflight checks", logging.Bool("channel_open", ch != nil))
			results = append(results, preflight.RunAll(cmd.Context(), cfg, ch)...)

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "preflight", "",
					fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), nil)
			}
			return nil
		},
	}
}
