package transfer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"tstomkv/internal/fileutil"
	"tstomkv/internal/logging"
)

// Local treats the remote store as a mounted directory tree (NFS, SMB, bind mount).
type Local struct {
	logger *slog.Logger
}

// NewLocal returns a channel operating on the local filesystem.
func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{logger: logger}
}

func (l *Local) Fetch(ctx context.Context, remote, local string) error {
	return l.copy(ctx, "fetch", remote, local)
}

func (l *Local) Commit(ctx context.Context, local, remote string) error {
	return l.copy(ctx, "commit", local, remote)
}

func (l *Local) copy(ctx context.Context, op, src, dst string) error {
	n, err := fileutil.CopyVerified(ctx, src, filepath.FromSlash(dst))
	if err != nil {
		return transferErr(op, src, err)
	}
	l.logger.Debug("copied", logging.String("op", op), logging.String("src", src), logging.String("dst", dst),
		logging.String("size", humanize.IBytes(uint64(n))))
	return nil
}

func (l *Local) Remove(_ context.Context, remote string) error {
	if err := os.Remove(filepath.FromSlash(remote)); err != nil {
		return transferErr("remove", remote, err)
	}
	return nil
}

func (l *Local) Stat(_ context.Context, remote string) (RemoteFile, error) {
	info, err := os.Stat(filepath.FromSlash(remote))
	if err != nil {
		return RemoteFile{}, transferErr("stat", remote, err)
	}
	return RemoteFile{Path: remote, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (l *Local) List(ctx context.Context, root, ext string) ([]RemoteFile, error) {
	var files []RemoteFile
	err := filepath.WalkDir(filepath.FromSlash(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && p != root {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() || !hasExt(p, ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, RemoteFile{Path: filepath.ToSlash(p), Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, transferErr("list", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (l *Local) Check(context.Context) error { return nil }

func (l *Local) Close() error { return nil }
