// Package notifications pushes run milestones to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never check whether notifications are enabled. Each event kind can
// be switched off individually in the [notifications] config section.
package notifications
