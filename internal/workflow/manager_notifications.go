package workflow

import (
	"context"

	"tstomkv/internal/logging"
)

func (m *Manager) notifyRunStarted(ctx context.Context, total int) {
	if err := m.deps.Notifier.NotifyRunStarted(ctx, total); err != nil {
		m.warnNotification(ctx, "run_started", err)
	}
}

func (m *Manager) notifyItemCommitted(ctx context.Context, label string, result itemResult) {
	if err := m.deps.Notifier.NotifyItemCommitted(ctx, label, result.commitPath, result.sourceBytes, result.outputBytes); err != nil {
		m.warnNotification(ctx, "item_committed", err)
	}
}

func (m *Manager) notifyRunCompleted(ctx context.Context, summary Summary) {
	if err := m.deps.Notifier.NotifyRunCompleted(ctx, summary.Committed, summary.Skipped, summary.Duration); err != nil {
		m.warnNotification(ctx, "run_completed", err)
	}
}

func (m *Manager) notifyError(ctx context.Context, runErr error, label string) {
	if err := m.deps.Notifier.NotifyError(ctx, runErr, label); err != nil {
		m.warnNotification(ctx, "error", err)
	}
}

func (m *Manager) warnNotification(ctx context.Context, event string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "notification failed", "notification_failed",
		logging.String("notification", event),
		logging.Error(err),
		logging.String(logging.FieldImpact, "push notification was not delivered"),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}
