package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tstomkv/internal/config"
	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

func TestLocalRoundTrip(t *testing.T) {
	root := t.TempDir()
	staging := t.TempDir()
	remote := filepath.ToSlash(filepath.Join(root, "Show", "Episode.ts"))
	if err := os.MkdirAll(filepath.Dir(remote), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(remote, []byte("ts-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	ch := NewLocal(logging.NewNop())
	ctx := context.Background()
	local := filepath.Join(staging, "Episode.ts")
	if err := ch.Fetch(ctx, remote, local); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	converted := filepath.Join(staging, "Episode.mkv")
	if err := os.WriteFile(converted, []byte("mkv-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	commit := filepath.ToSlash(filepath.Join(root, "Show", "Episode.mkv"))
	if err := ch.Commit(ctx, converted, commit); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	info, err := ch.Stat(ctx, commit)
	if err != nil || info.Size != int64(len("mkv-bytes")) {
		t.Fatalf("Stat = %+v, %v", info, err)
	}
	if err := ch.Remove(ctx, remote); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(remote); !os.IsNotExist(err) {
		t.Fatal("source should be removed")
	}
}

func TestLocalList(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b/two.ts", "a/one.TS", "a/skip.mkv", "three.ts"} {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := NewLocal(nil).List(context.Background(), filepath.ToSlash(root), ".ts")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a/one.TS", "b/two.ts", "three.ts"}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, name := range want {
		if files[i].Path != filepath.ToSlash(filepath.Join(root, name)) {
			t.Fatalf("files[%d] = %s, want %s", i, files[i].Path, name)
		}
	}
}

func TestLocalErrorsAreTransferErrors(t *testing.T) {
	ch := NewLocal(nil)
	missing := filepath.Join(t.TempDir(), "missing.ts")
	if err := ch.Fetch(context.Background(), missing, filepath.Join(t.TempDir(), "x.ts")); !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("Fetch err = %v, want transfer error", err)
	}
	if err := ch.Remove(context.Background(), missing); !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("Remove err = %v, want transfer error", err)
	}
}

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"/recordings/show/a.ts":  "recordings/show/a.ts",
		"recordings/a.ts":        "recordings/a.ts",
		"/recordings//b/../a.ts": "recordings/a.ts",
	}
	for in, want := range cases {
		if got := ObjectKey(in); got != want {
			t.Errorf("ObjectKey(%q) = %q, want %q", in, got, want)
		}
	}
	if got := ObjectPath("recordings/a.ts"); got != "/recordings/a.ts" {
		t.Fatalf("ObjectPath = %q", got)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Transfer.Backend = "ftp"
	if _, err := New(context.Background(), &cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestSSHClientConfigNeedsCredentials(t *testing.T) {
	_, err := sshClientConfig(config.SFTP{Host: "nas", Port: 22, User: "tv", InsecureIgnoreHostKey: true})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	cfg, err := sshClientConfig(config.SFTP{Host: "nas", Port: 22, User: "tv", Password: "pw", InsecureIgnoreHostKey: true})
	if err != nil {
		t.Fatalf("sshClientConfig: %v", err)
	}
	if cfg.User != "tv" || len(cfg.Auth) != 1 {
		t.Fatalf("config = %+v", cfg)
	}
}
