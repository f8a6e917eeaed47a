package workflow

import (
	"io"
	"log/slog"
	"time"

	"tstomkv/internal/catalog"
	"tstomkv/internal/config"
	"tstomkv/internal/logging"
	"tstomkv/internal/metrics"
	"tstomkv/internal/notifications"
	"tstomkv/internal/pathmap"
)

// Deps bundles the collaborators a Manager drives.
type Deps struct {
	Catalog    catalog.Catalog
	Transfer   Transfer
	Mapper     *pathmap.Mapper
	Transcoder Transcoder
	Verifier   Verifier
	Notifier   notifications.Service
	Ledger     Ledger
	Metrics    *metrics.Recorder
	// Out receives the human narration of the run. Nil discards it.
	Out io.Writer
}

// Manager coordinates one conversion run at a time.
type Manager struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, deps Deps, logger *slog.Logger) *Manager {
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    time.Now,
	}
}
