package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"tstomkv/internal/config"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

// RemoteFile describes one file on the remote store.
type RemoteFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Channel is the remote-store transfer channel. Remote paths are absolute,
// slash-separated paths under a configured source root.
type Channel interface {
	Fetch(ctx context.Context, remote, local string) error
	Commit(ctx context.Context, local, remote string) error
	Remove(ctx context.Context, remote string) error
	Stat(ctx context.Context, remote string) (RemoteFile, error)
	List(ctx context.Context, root, ext string) ([]RemoteFile, error)
	Check(ctx context.Context) error
	Close() error
}

const (
	BackendSFTP  = "sftp"
	BackendS3    = "s3"
	BackendLocal = "local"
)

// New opens the channel selected by transfer.backend.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Channel, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transfer", "init", "configuration unavailable", nil)
	}
	logger = logging.NewComponentLogger(logger, "transfer")
	switch strings.ToLower(strings.TrimSpace(cfg.Transfer.Backend)) {
	case BackendSFTP:
		ch, err := DialSFTP(ctx, cfg.Transfer.SFTP, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case BackendS3:
		ch, err := NewS3(cfg.Transfer.S3, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case BackendLocal:
		return NewLocal(logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transfer", "init",
			fmt.Sprintf("unsupported backend %q", cfg.Transfer.Backend), nil)
	}
}

func transferErr(op, target string, err error) error {
	return services.Wrap(services.ErrTransfer, "transfer", op, target, err)
}

func hasExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	return strings.EqualFold(path.Ext(name), ext)
}
