// Package staging inspects and prunes the local staging tree. Successful items
// clean up after themselves; what remains was left by a failed or interrupted
// run.
package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"tstomkv/internal/logging"
)

// Leftover is one file found in the staging tree.
type Leftover struct {
	Path    string
	Rel     string
	ModTime time.Time
	Size    int64
}

// CleanResult reports what CleanStale removed.
type CleanResult struct {
	Removed []string
	Freed   int64
	Errors  []CleanupError
}

// CleanupError pairs a path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// List returns every regular file under stagingDir, sorted by relative path.
// Files directly under stagingDir whose names appear in keep are ignored. A
// missing staging directory yields no leftovers.
func List(stagingDir string, keep ...string) ([]Leftover, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	var out []Leftover
	err := filepath.WalkDir(stagingDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == stagingDir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(stagingDir, p)
		if err != nil {
			return err
		}
		if slices.Contains(keep, rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Leftover{
			Path:    p,
			Rel:     filepath.ToSlash(rel),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out, nil
}

// CleanStale removes leftovers not modified within maxAge, then prunes the
// directories that became empty. stagingDir itself is never removed. A zero
// maxAge removes every leftover.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, keep []string, logger *slog.Logger) CleanResult {
	var result CleanResult
	leftovers, err := List(stagingDir, keep...)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	dirs := make(map[string]struct{})
	for _, l := range leftovers {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: l.Path, Error: ctx.Err()})
			break
		}
		if maxAge > 0 && l.ModTime.After(cutoff) {
			continue
		}
		if err := os.Remove(l.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result.Errors = append(result.Errors, CleanupError{Path: l.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove staged file", "staging_cleanup_failed",
				logging.String("path", l.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, l.Path)
		result.Freed += l.Size
		dirs[filepath.Dir(l.Path)] = struct{}{}
		if logger != nil {
			logger.Info("removed staged file",
				logging.String("path", l.Path),
				logging.Duration("age", time.Since(l.ModTime)),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}

	pruneEmpty(stagingDir, dirs)
	return result
}

// pruneEmpty removes each directory in dirs and its parents up to root while
// they are empty.
func pruneEmpty(root string, dirs map[string]struct{}) {
	root = filepath.Clean(root)
	paths := make([]string, 0, len(dirs))
	for d := range dirs {
		paths = append(paths, d)
	}
	// deepest first
	sort.Slice(paths, func(i, j int) bool { return len(paths[i]) > len(paths[j]) })
	for _, d := range paths {
		for d = filepath.Clean(d); d != root && strings.HasPrefix(d, root+string(filepath.Separator)); d = filepath.Dir(d) {
			if os.Remove(d) != nil {
				break
			}
		}
	}
}
