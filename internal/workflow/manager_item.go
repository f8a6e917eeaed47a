package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tstomkv/internal/catalog"
	"tstomkv/internal/encoding"
	"tstomkv/internal/fileutil"
	"tstomkv/internal/history"
	"tstomkv/internal/logging"
	"tstomkv/internal/pathmap"
	"tstomkv/internal/services"
	"tstomkv/internal/textutil"
)

// processItem runs MAP, FETCH, TRANSCODE, VERIFY and COMMIT for one candidate.
// A path outside every source root is skipped; any other error is fatal and
// returned as an *ItemError.
func (m *Manager) processItem(ctx context.Context, state *RunState, candidate catalog.Candidate) (itemResult, error) {
	ctx = services.WithItemIndex(ctx, state.Index)
	ctx = services.WithSourcePath(ctx, candidate.Path)
	logger := logging.WithContext(ctx, m.logger)
	label := itemLabel(candidate)
	var result itemResult

	m.narrate("[%d/%d] %s", state.Index, state.Total, label)

	mapping, err := m.mapItem(ctx, candidate)
	if err != nil {
		if errors.Is(err, services.ErrNotUnderRoot) {
			logging.WarnWithContext(logger, "recording outside source roots", "item_skipped",
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.String(logging.FieldImpact, "recording left untouched"),
				logging.String(logging.FieldErrorHint, "add its directory to source.roots to convert it"),
			)
			m.narrate("[%d/%d] skipped: not under a source root", state.Index, state.Total)
			result.skipped = true
			m.recordItem(ctx, state, candidate, history.OutcomeSkipped, result, err)
			m.deps.Metrics.ItemOutcome(string(history.OutcomeSkipped))
			return result, nil
		}
		return result, m.failItem(ctx, state, candidate, stageMap, result, err)
	}
	result.commitPath = mapping.RemoteCommitPath

	if err := m.fetch(ctx, mapping); err != nil {
		return result, m.failItem(ctx, state, candidate, stageFetch, result, err)
	}
	result.sourceBytes = fileutil.FileSize(mapping.LocalStagedPath)
	m.deps.Metrics.Bytes("fetched", result.sourceBytes)

	if seconds, ok := m.sourceDuration(ctx, mapping.LocalStagedPath); ok {
		result.sourceSeconds = seconds
	}

	outcome, err := m.transcode(ctx, mapping, label, result.sourceSeconds)
	result.transcode = outcome.Elapsed
	if err != nil {
		return result, m.failItem(ctx, state, candidate, stageTranscode, result, err)
	}
	result.outputBytes = fileutil.FileSize(mapping.LocalOutputPath)

	if err := m.verify(ctx, mapping, &result); err != nil {
		return result, m.failItem(ctx, state, candidate, stageVerify, result, err)
	}

	if err := m.commit(ctx, candidate, mapping); err != nil {
		return result, m.failItem(ctx, state, candidate, stageCommit, result, err)
	}
	m.deps.Metrics.Bytes("committed", result.outputBytes)

	if m.cfg.Workflow.CleanupStaged {
		if err := fileutil.RemoveIfExists(mapping.LocalStagedPath, mapping.LocalOutputPath, mapping.LocalSinkPath); err != nil {
			logging.WarnWithContext(logger, "staging cleanup failed", "staging_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "staged files remain on disk"),
			)
		}
	}

	logger.Info("item committed",
		logging.String(logging.FieldEventType, "item_committed"),
		logging.String("commit_path", mapping.RemoteCommitPath),
		logging.Int64("source_bytes", result.sourceBytes),
		logging.Int64("output_bytes", result.outputBytes),
		logging.Duration("transcode", result.transcode),
	)
	m.narrate("[%d/%d] converted in %s -> %s", state.Index, state.Total,
		textutil.HumanDuration(result.transcode), mapping.RemoteCommitPath)
	m.recordItem(ctx, state, candidate, history.OutcomeCommitted, result, nil)
	m.deps.Metrics.ItemOutcome(string(history.OutcomeCommitted))
	m.notifyItemCommitted(ctx, label, result)
	return result, nil
}

func (m *Manager) mapItem(ctx context.Context, candidate catalog.Candidate) (pathmap.Mapping, error) {
	if m.deps.Mapper == nil {
		return pathmap.Mapping{}, services.Wrap(services.ErrConfiguration, stageMap, "", "path mapper unavailable", nil)
	}
	mapping, err := m.deps.Mapper.Map(candidate.Path)
	if err != nil {
		return pathmap.Mapping{}, err
	}
	logging.WithContext(services.WithStage(ctx, stageMap), m.logger).Debug("mapped recording",
		logging.String("staged", mapping.LocalStagedPath),
		logging.String("output", mapping.LocalOutputPath),
		logging.String("commit_path", mapping.RemoteCommitPath),
	)
	return mapping, nil
}

func (m *Manager) fetch(ctx context.Context, mapping pathmap.Mapping) error {
	ctx = services.WithStage(ctx, stageFetch)
	if m.deps.Transfer == nil {
		return services.Wrap(services.ErrConfiguration, stageFetch, "", "transfer channel unavailable", nil)
	}
	start := time.Now()
	if err := m.deps.Transfer.Fetch(ctx, mapping.RemotePath, mapping.LocalStagedPath); err != nil {
		return err
	}
	m.deps.Metrics.StageDuration(stageFetch, time.Since(start))
	logging.WithContext(ctx, m.logger).Info("recording fetched",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("staged", mapping.LocalStagedPath),
		logging.Duration("duration", time.Since(start)),
	)
	return nil
}

func (m *Manager) sourceDuration(ctx context.Context, staged string) (int, bool) {
	if m.deps.Verifier == nil {
		return 0, false
	}
	seconds, ok := m.deps.Verifier.Duration(ctx, staged)
	if !ok {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "source duration unknown", "duration_unknown",
			logging.String(logging.FieldImpact, "progress is shown without a percentage"),
		)
	}
	return seconds, ok
}

func (m *Manager) transcode(ctx context.Context, mapping pathmap.Mapping, label string, totalSeconds int) (encoding.Outcome, error) {
	ctx = services.WithStage(ctx, stageTranscode)
	if m.deps.Transcoder == nil {
		return encoding.Outcome{}, services.Wrap(services.ErrConfiguration, stageTranscode, "", "transcoder unavailable", nil)
	}
	outcome, err := m.deps.Transcoder.Run(ctx, encoding.Request{
		Input:        mapping.LocalStagedPath,
		Output:       mapping.LocalOutputPath,
		Sink:         mapping.LocalSinkPath,
		Overwrite:    true,
		TotalSeconds: float64(totalSeconds),
		Label:        label,
	})
	if err != nil {
		return outcome, err
	}
	m.deps.Metrics.StageDuration(stageTranscode, outcome.Elapsed)
	return outcome, nil
}

func (m *Manager) verify(ctx context.Context, mapping pathmap.Mapping, result *itemResult) error {
	ctx = services.WithStage(ctx, stageVerify)
	if m.deps.Verifier == nil {
		return services.Wrap(services.ErrConfiguration, stageVerify, "", "verifier unavailable", nil)
	}
	start := time.Now()
	verdict, err := m.deps.Verifier.Verify(ctx, mapping.LocalStagedPath, mapping.LocalOutputPath)
	if err != nil {
		return err
	}
	m.deps.Metrics.StageDuration(stageVerify, time.Since(start))
	m.deps.Metrics.DurationRatio(verdict.Ratio)
	result.sourceSeconds = verdict.SourceSeconds
	result.outputSeconds = verdict.OutputSeconds
	if !verdict.Accepted {
		return services.Wrap(services.ErrVerificationFailed, stageVerify, "duration check",
			fmt.Sprintf("output %ds against source %ds (ratio %.3f)", verdict.OutputSeconds, verdict.SourceSeconds, verdict.Ratio), nil)
	}
	return nil
}

// commit uploads the output, tells the catalog about the move and then removes
// the source. The source is never removed unless the upload succeeded.
func (m *Manager) commit(ctx context.Context, candidate catalog.Candidate, mapping pathmap.Mapping) error {
	ctx = services.WithStage(ctx, stageCommit)
	if m.deps.Transfer == nil {
		return services.Wrap(services.ErrConfiguration, stageCommit, "", "transfer channel unavailable", nil)
	}
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()
	if err := m.deps.Transfer.Commit(ctx, mapping.LocalOutputPath, mapping.RemoteCommitPath); err != nil {
		return err
	}

	if notifier, ok := m.deps.Catalog.(catalog.MoveNotifier); ok {
		if err := notifier.NotifyMoved(ctx, candidate.Path, mapping.RemoteCommitPath); err != nil {
			logging.WarnWithContext(logger, "catalog move notification failed", "catalog_notify_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "catalog still points at the original recording"),
				logging.String(logging.FieldErrorHint, "check tvheadend credentials and reachability"),
			)
		}
	}

	if err := m.deps.Transfer.Remove(ctx, candidate.Path); err != nil {
		return err
	}
	m.deps.Metrics.StageDuration(stageCommit, time.Since(start))
	return nil
}

func itemLabel(candidate catalog.Candidate) string {
	label := candidate.Title
	if label == "" {
		return candidate.Path
	}
	if candidate.Season > 0 && candidate.Episode > 0 {
		label += fmt.Sprintf(" S%02dE%02d", candidate.Season, candidate.Episode)
	}
	if candidate.Subtitle != "" {
		label += " - " + candidate.Subtitle
	}
	return label
}
