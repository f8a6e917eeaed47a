package workflow

import (
	"context"
	"fmt"

	"tstomkv/internal/catalog"
	"tstomkv/internal/history"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

// narrate writes one line of run narration.
func (m *Manager) narrate(format string, args ...any) {
	fmt.Fprintf(m.deps.Out, format+"\n", args...)
}

func (m *Manager) startLedger(ctx context.Context, state *RunState) {
	if m.deps.Ledger == nil {
		return
	}
	if err := m.deps.Ledger.StartRun(ctx, state.RunID, state.Total, state.StartedAt); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "history insert failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is missing from the history ledger"),
		)
		return
	}
	state.recorded = true
}

func (m *Manager) recordItem(ctx context.Context, state *RunState, candidate catalog.Candidate, outcome history.Outcome, result itemResult, itemErr error) {
	if !state.recorded || m.deps.Ledger == nil {
		return
	}
	item := history.Item{
		RunID:             state.RunID,
		Position:          state.Index,
		RemotePath:        candidate.Path,
		CommitPath:        result.commitPath,
		Title:             candidate.Title,
		Outcome:           outcome,
		SourceSeconds:     result.sourceSeconds,
		OutputSeconds:     result.outputSeconds,
		SourceBytes:       result.sourceBytes,
		OutputBytes:       result.outputBytes,
		TranscodeDuration: result.transcode,
		RecordedAt:        m.now(),
	}
	if outcome != history.OutcomeCommitted {
		item.CommitPath = ""
	}
	if itemErr != nil {
		item.ErrorKind = services.Kind(itemErr)
		item.ErrorMessage = itemErr.Error()
	}
	if err := m.deps.Ledger.RecordItem(context.WithoutCancel(ctx), item); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "history insert failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item is missing from the history ledger"),
		)
	}
}
