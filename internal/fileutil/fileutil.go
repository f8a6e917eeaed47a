package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// partSuffix marks an in-flight copy; the final name only appears once the
// content is verified.
const partSuffix = ".part"

// ContextReader aborts reads once ctx is done.
type ContextReader struct {
	Ctx context.Context
	R   io.Reader
}

func (r ContextReader) Read(p []byte) (int, error) {
	if err := r.Ctx.Err(); err != nil {
		return 0, err
	}
	return r.R.Read(p)
}

// CopyVerified copies src to dst through dst.part, checking size and SHA-256
// before renaming into place. Parent directories of dst are created. On any
// failure the partial file is removed and dst is left untouched.
func CopyVerified(ctx context.Context, src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	part := dst + partSuffix
	out, err := os.Create(part)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = out.Close()
			_ = os.Remove(part)
		}
	}()

	srcHash := sha256.New()
	dstHash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHash), io.TeeReader(ContextReader{Ctx: ctx, R: in}, srcHash))
	if err != nil {
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, err
	}
	if written != info.Size() {
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		return written, errors.New("copy hash mismatch: file corrupted during copy")
	}
	if err := os.Rename(part, dst); err != nil {
		return written, err
	}
	committed = true
	return written, nil
}

// RemoveIfExists deletes each path, ignoring ones that are already gone.
func RemoveIfExists(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FileSize returns the size of path, or 0 when it cannot be stat'ed.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
