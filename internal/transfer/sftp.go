package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"tstomkv/internal/config"
	"tstomkv/internal/fileutil"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

// SFTP is a channel over a single SSH connection to the media host.
type SFTP struct {
	ssh    *ssh.Client
	client *sftp.Client
	host   string
	logger *slog.Logger
}

// DialSFTP connects to the configured host and opens an SFTP session.
func DialSFTP(ctx context.Context, cfg config.SFTP, logger *slog.Logger) (*SFTP, error) {
	clientConfig, err := sshClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := net.Dialer{Timeout: clientConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transferErr("dial", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, transferErr("ssh handshake", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, transferErr("open sftp session", addr, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("sftp connected", logging.String("host", addr), logging.String("user", cfg.User))
	return &SFTP{ssh: sshClient, client: client, host: addr, logger: logger}, nil
}

func sshClientConfig(cfg config.SFTP) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if keyFile := strings.TrimSpace(cfg.KeyFile); keyFile != "" {
		signer, err := loadSigner(keyFile)
		switch {
		case err == nil:
			auth = append(auth, ssh.PublicKeys(signer))
		case cfg.Password == "":
			return nil, services.Wrap(services.ErrConfiguration, "transfer", "load key", keyFile, err)
		}
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "transfer", "auth", "transfer.sftp needs key_file or password", nil)
	}

	var hostKey ssh.HostKeyCallback
	if cfg.InsecureIgnoreHostKey {
		hostKey = ssh.InsecureIgnoreHostKey()
	} else {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "transfer", "load known_hosts", cfg.KnownHostsFile, err)
		}
		hostKey = cb
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}, nil
}

func loadSigner(keyFile string) (ssh.Signer, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(data)
}

func (s *SFTP) Fetch(ctx context.Context, remote, local string) error {
	src, err := s.client.Open(remote)
	if err != nil {
		return transferErr("fetch", remote, err)
	}
	defer src.Close()

	part := local + ".part"
	dst, err := os.Create(part)
	if err != nil {
		return transferErr("fetch", local, err)
	}
	n, err := io.Copy(dst, fileutil.ContextReader{Ctx: ctx, R: src})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(part)
		return transferErr("fetch", remote, err)
	}
	if info, statErr := src.Stat(); statErr == nil && info.Size() != n {
		_ = os.Remove(part)
		return transferErr("fetch", remote, fmt.Errorf("short read: got %d of %d bytes", n, info.Size()))
	}
	if err := os.Rename(part, local); err != nil {
		_ = os.Remove(part)
		return transferErr("fetch", local, err)
	}
	s.logger.Debug("fetched", logging.String("remote", remote), logging.String("size", humanize.IBytes(uint64(n))))
	return nil
}

func (s *SFTP) Commit(ctx context.Context, local, remote string) error {
	src, err := os.Open(local)
	if err != nil {
		return transferErr("commit", local, err)
	}
	defer src.Close()

	if err := s.client.MkdirAll(path.Dir(remote)); err != nil {
		return transferErr("commit", path.Dir(remote), err)
	}
	part := remote + ".part"
	dst, err := s.client.Create(part)
	if err != nil {
		return transferErr("commit", part, err)
	}
	n, err := io.Copy(dst, fileutil.ContextReader{Ctx: ctx, R: src})
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.client.Remove(part)
		return transferErr("commit", remote, err)
	}
	if size := fileutil.FileSize(local); size != n {
		_ = s.client.Remove(part)
		return transferErr("commit", remote, fmt.Errorf("short write: sent %d of %d bytes", n, size))
	}
	if err := s.rename(part, remote); err != nil {
		_ = s.client.Remove(part)
		return transferErr("commit", remote, err)
	}
	s.logger.Debug("committed", logging.String("remote", remote), logging.String("size", humanize.IBytes(uint64(n))))
	return nil
}

// rename prefers the posix-rename extension, which replaces an existing
// target; plain SFTP rename refuses to.
func (s *SFTP) rename(from, to string) error {
	if err := s.client.PosixRename(from, to); err == nil {
		return nil
	}
	if _, err := s.client.Stat(to); err == nil {
		if err := s.client.Remove(to); err != nil {
			return err
		}
	}
	return s.client.Rename(from, to)
}

func (s *SFTP) Remove(_ context.Context, remote string) error {
	if err := s.client.Remove(remote); err != nil {
		return transferErr("remove", remote, err)
	}
	return nil
}

func (s *SFTP) Stat(_ context.Context, remote string) (RemoteFile, error) {
	info, err := s.client.Stat(remote)
	if err != nil {
		return RemoteFile{}, transferErr("stat", remote, err)
	}
	return RemoteFile{Path: remote, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *SFTP) List(ctx context.Context, root, ext string) ([]RemoteFile, error) {
	var files []RemoteFile
	walker := s.client.Walk(root)
	for walker.Step() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := walker.Err(); err != nil {
			if walker.Path() == root {
				return nil, transferErr("list", root, err)
			}
			s.logger.Debug("skipping unreadable path", logging.String("path", walker.Path()), logging.Error(err))
			continue
		}
		info := walker.Stat()
		if !info.Mode().IsRegular() || !hasExt(walker.Path(), ext) {
			continue
		}
		files = append(files, RemoteFile{Path: filepath.ToSlash(walker.Path()), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *SFTP) Check(context.Context) error {
	if _, err := s.client.Getwd(); err != nil {
		return transferErr("check", s.host, err)
	}
	return nil
}

func (s *SFTP) Close() error {
	return errors.Join(s.client.Close(), s.ssh.Close())
}
