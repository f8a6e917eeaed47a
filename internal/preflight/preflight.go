package preflight

import (
	"context"
	"strings"

	"tstomkv/internal/config"
	"tstomkv/internal/transfer"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config. ch
// may be nil when the transfer channel could not be opened; the caller reports
// that failure itself.
func RunAll(ctx context.Context, cfg *config.Config, ch transfer.Channel) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	results = append(results, CheckBinaries(cfg)...)

	if ch != nil {
		results = append(results, CheckTransfer(ctx, cfg.Transfer.Backend, ch))
		if !strings.EqualFold(cfg.Transfer.Backend, transfer.BackendS3) {
			for _, root := range cfg.Source.Roots {
				results = append(results, CheckSourceRoot(ctx, ch, root))
			}
		}
	}

	if strings.EqualFold(cfg.Catalog.Kind, "tvheadend") {
		results = append(results, CheckTvheadend(ctx, cfg.Catalog.Tvheadend))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
