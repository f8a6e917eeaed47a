package catalog

import (
	"context"
	"log/slog"

	"tstomkv/internal/logging"
)

// Listing finds candidates by walking every source root on the remote store.
type Listing struct {
	lister       Lister
	roots        []string
	ext          string
	skipPrefixes []string
	logger       *slog.Logger
}

// NewListing returns a catalog over lister.
func NewListing(lister Lister, roots []string, ext string, skipPrefixes []string, logger *slog.Logger) *Listing {
	return &Listing{
		lister:       lister,
		roots:        roots,
		ext:          ext,
		skipPrefixes: skipPrefixes,
		logger:       logging.NewComponentLogger(logger, "catalog"),
	}
}

// ListCandidates lists each root in configured order. A file reachable from
// two overlapping roots is reported once.
func (l *Listing) ListCandidates(ctx context.Context) ([]Candidate, error) {
	seen := make(map[string]struct{})
	var out []Candidate
	for _, root := range l.roots {
		files, err := l.lister.List(ctx, root, l.ext)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, dup := seen[f.Path]; dup {
				continue
			}
			seen[f.Path] = struct{}{}
			if skipped(f.Path, l.skipPrefixes) {
				l.logger.Debug("skipping by prefix", logging.String("path", f.Path))
				continue
			}
			title, subtitle := titleFromFilename(f.Path)
			out = append(out, Candidate{
				Path:      f.Path,
				Title:     title,
				Subtitle:  subtitle,
				SizeBytes: f.Size,
				Start:     f.ModTime,
			})
		}
	}
	l.logger.Debug("listing complete", logging.Int("candidates", len(out)), logging.Int("roots", len(l.roots)))
	return out, nil
}
