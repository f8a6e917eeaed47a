package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"tstomkv/internal/catalog"
	"tstomkv/internal/history"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
	"tstomkv/internal/textutil"
)

// Run lists candidates and converts them one at a time. It returns nil when
// every item was committed or skipped, an error wrapping
// services.ErrStopRequested when the stop sentinel ended the run, and the
// first fatal item error otherwise.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	state := &RunState{RunID: uuid.NewString(), StartedAt: m.now()}
	ctx = services.WithRunID(ctx, state.RunID)
	summary := Summary{RunID: state.RunID}

	logger := logging.WithContext(ctx, m.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("skip", opts.Skip),
	)

	if m.deps.Catalog == nil {
		err := services.Wrap(services.ErrConfiguration, stageList, "", "catalog unavailable", nil)
		return m.finish(ctx, state, summary, err)
	}
	candidates, err := m.deps.Catalog.ListCandidates(services.WithStage(ctx, stageList))
	if err != nil {
		return m.finish(ctx, state, summary, err)
	}
	summary.Listed = len(candidates)
	candidates = skipCandidates(candidates, opts.Skip)
	state.Total = len(candidates)
	summary.Total = state.Total

	m.startLedger(ctx, state)
	m.notifyRunStarted(ctx, state.Total)
	m.narrate("%d recordings listed, %d to convert", summary.Listed, state.Total)

	for i, candidate := range candidates {
		state.Index = i + 1
		if err := ctx.Err(); err != nil {
			return m.finish(ctx, state, summary, err)
		}
		if m.stopRequested() {
			state.StopRequested = true
			summary.Stopped = true
			err := services.Wrap(services.ErrStopRequested, stageCheckStop, "",
				fmt.Sprintf("stop file %s present", m.cfg.StopFilePath()), nil)
			return m.finish(ctx, state, summary, err)
		}

		result, err := m.processItem(ctx, state, candidate)
		if err != nil {
			summary.Failed++
			return m.finish(ctx, state, summary, err)
		}
		if result.skipped {
			summary.Skipped++
		} else {
			summary.Committed++
		}
	}
	return m.finish(ctx, state, summary, nil)
}

func skipCandidates(candidates []catalog.Candidate, skip int) []catalog.Candidate {
	if skip <= 0 {
		return candidates
	}
	if skip >= len(candidates) {
		return nil
	}
	return candidates[skip:]
}

// stopRequested reports whether the stop sentinel exists. Anything other than
// a clean "not found" counts as present.
func (m *Manager) stopRequested() bool {
	_, err := os.Stat(m.cfg.StopFilePath())
	return !errors.Is(err, os.ErrNotExist)
}

func (m *Manager) finish(ctx context.Context, state *RunState, summary Summary, runErr error) (Summary, error) {
	finishedAt := m.now()
	summary.Duration = finishedAt.Sub(state.StartedAt)
	// Bookkeeping still has to land when the run was cancelled.
	bookCtx := context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, m.logger)

	status := history.RunCompleted
	switch {
	case runErr == nil:
	case errors.Is(runErr, services.ErrStopRequested):
		status = history.RunStopped
	default:
		status = history.RunFailed
	}

	if state.recorded && m.deps.Ledger != nil {
		run := history.Run{
			ID:         state.RunID,
			StartedAt:  state.StartedAt,
			FinishedAt: finishedAt,
			Status:     status,
			Total:      state.Total,
			Committed:  summary.Committed,
			Skipped:    summary.Skipped,
		}
		if status == history.RunFailed {
			run.ErrorKind = services.Kind(runErr)
			run.ErrorMessage = runErr.Error()
		}
		if err := m.deps.Ledger.FinishRun(bookCtx, run); err != nil {
			logging.WarnWithContext(logger, "history update failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run is missing from the history ledger"),
			)
		}
	}

	m.deps.Metrics.RunFinished(finishedAt, status != history.RunFailed)
	if err := m.deps.Metrics.Flush(); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.textfile_path is writable"),
		)
	}

	elapsed := textutil.HumanDuration(summary.Duration)
	switch status {
	case history.RunCompleted:
		logger.Info("run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("committed", summary.Committed),
			logging.Int("skipped", summary.Skipped),
			logging.Duration("duration", summary.Duration),
		)
		m.narrate("done: %d converted, %d skipped in %s", summary.Committed, summary.Skipped, elapsed)
		m.notifyRunCompleted(bookCtx, summary)
	case history.RunStopped:
		logger.Info("run stopped",
			logging.String(logging.FieldEventType, "run_stopped"),
			logging.Int("committed", summary.Committed),
			logging.Int("remaining", state.Total-state.Index+1),
		)
		m.narrate("stop requested: %d converted, %d remaining", summary.Committed, state.Total-state.Index+1)
		m.notifyRunCompleted(bookCtx, summary)
	default:
		m.logRunFailure(logger, runErr)
		m.narrate("failed after %s: %v", elapsed, runErr)
		m.notifyError(bookCtx, runErr, "run")
	}
	return summary, runErr
}
