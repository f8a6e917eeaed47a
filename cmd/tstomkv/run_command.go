package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tstomkv/internal/catalog"
	"tstomkv/internal/config"
	"tstomkv/internal/encoding"
	"tstomkv/internal/history"
	"tstomkv/internal/logging"
	"tstomkv/internal/metrics"
	"tstomkv/internal/notifications"
	"tstomkv/internal/pathmap"
	"tstomkv/internal/preflight"
	"tstomkv/internal/runlock"
	"tstomkv/internal/services"
	"tstomkv/internal/transfer"
	"tstomkv/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skip int
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert every pending recording, one at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if skip < 0 {
				return services.Wrap(services.ErrValidation, "cli", "run", "--skip must not be negative", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			return ctx.withChannel(cmd.Context(), func(cfg *config.Config, logger *slog.Logger, ch transfer.Channel) error {
				if !skipPreflight {
					if err := requirePreflight(cmd, cfg, ch); err != nil {
						return err
					}
				}
				mgr, closeFn, err := buildManager(cmd, cfg, logger, ch)
				if err != nil {
					return err
				}
				defer closeFn()

				summary, err := mgr.Run(cmd.Context(), workflow.RunOptions{Skip: skip})
				if errors.Is(err, services.ErrStopRequested) {
					fmt.Fprintf(cmd.OutOrStdout(), "Stopped; remove %s before the next run\n", cfg.StopFilePath())
				}
				logger.Debug("run summary",
					logging.String("run_id", summary.RunID),
					logging.Int("committed", summary.Committed),
					logging.Int("skipped", summary.Skipped),
					logging.Int("failed", summary.Failed),
				)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "Skip this many recordings from the head of the list")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not run preflight checks before starting")
	return cmd
}

func requirePreflight(cmd *cobra.Command, cfg *config.Config, ch transfer.Channel) error {
	failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, ch))
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(parts, "; "), nil)
}

// buildManager wires the workflow collaborators. The returned func closes the
// history ledger.
func buildManager(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, ch transfer.Channel) (*workflow.Manager, func(), error) {
	cat, err := catalog.New(cfg, ch, logger)
	if err != nil {
		return nil, nil, err
	}

	deps := workflow.Deps{
		Catalog:    cat,
		Transfer:   ch,
		Mapper:     pathmap.New(cfg.Source.Roots, cfg.Paths.StagingDir, cfg.Source.OutputExt),
		Transcoder: newSupervisor(cfg, logger),
		Verifier:   encoding.NewVerifier(cfg.Encoder.FFprobeBinary, cfg.Verify.DurationThreshold, logger),
		Notifier:   notifications.NewService(cfg),
		Metrics:    metrics.New(cfg.Metrics.TextfilePath),
		Out:        cmd.OutOrStdout(),
	}

	closeFn := func() {}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
	} else {
		deps.Ledger = store
		closeFn = func() { _ = store.Close() }
	}

	return workflow.NewManager(cfg, deps, logger), closeFn, nil
}

func newSupervisor(cfg *config.Config, logger *slog.Logger) *encoding.Supervisor {
	monitor := encoding.NewMonitor(cfg.PollInterval(), cfg.Progress.MaxWaitPolls, nil, logger)
	sup := encoding.NewSupervisor(encoding.NewFFmpeg(cfg), monitor,
		cfg.Source.SourceExt, cfg.Source.OutputExt, cfg.StatsPeriod(), logger)
	sup.NewRenderer = func(label string) encoding.Renderer {
		return encoding.NewRenderer(os.Stdout, label, logger)
	}
	return sup
}
