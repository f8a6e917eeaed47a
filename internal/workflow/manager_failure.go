package workflow

import (
	"context"
	"errors"
	"log/slog"

	"tstomkv/internal/catalog"
	"tstomkv/internal/history"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

// failItem records a fatal item error and returns it wrapped as *ItemError.
func (m *Manager) failItem(ctx context.Context, state *RunState, candidate catalog.Candidate, stage string, result itemResult, err error) error {
	if err == nil {
		err = services.Wrap(services.ErrExternalTool, stage, "", "unknown failure", nil)
	}
	itemErr := &ItemError{
		Index: state.Index,
		Total: state.Total,
		Path:  candidate.Path,
		Stage: stage,
		Err:   err,
	}
	m.recordItem(ctx, state, candidate, history.OutcomeFailed, result, err)
	m.deps.Metrics.ItemOutcome(string(history.OutcomeFailed))
	return itemErr
}

func (m *Manager) logRunFailure(logger *slog.Logger, err error) {
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	}
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		attrs = append(attrs,
			logging.Int(logging.FieldItemIndex, itemErr.Index),
			logging.String(logging.FieldStage, itemErr.Stage),
			logging.String(logging.FieldSource, itemErr.Path),
		)
	}
	logging.ErrorWithContext(logger, "run failed", "run_failed", attrs...)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "run was interrupted; rerun to continue with the remaining recordings"
	case errors.Is(err, services.ErrTransfer):
		return "check remote store connectivity and permissions"
	case errors.Is(err, services.ErrProcessFailed):
		return "inspect the ffmpeg stderr tail in the log"
	case errors.Is(err, services.ErrVerificationFailed):
		return "the converted file is shorter than the source; the source was kept"
	case errors.Is(err, services.ErrAlreadyExists):
		return "remove the existing output or rerun"
	case errors.Is(err, services.ErrValidation):
		return "check source.source_ext and source.output_ext"
	case errors.Is(err, services.ErrConfiguration):
		return "run tstomkv config validate"
	default:
		return "check logs for details"
	}
}
