package fileutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ts")
	dst := filepath.Join(dir, "nested", "deeper", "dst.ts")

	content := []byte("transport stream payload")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := CopyVerified(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	if n != int64(len(content)) {
		t.Fatalf("copied %d bytes, want %d", n, len(content))
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(dst + partSuffix); !os.IsNotExist(err) {
		t.Fatalf("part file should be gone, stat err = %v", err)
	}
}

func TestCopyVerifiedCancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ts")
	dst := filepath.Join(dir, "dst.ts")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CopyVerified(ctx, src, dst); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	for _, p := range []string{dst, dst + partSuffix} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist, stat err = %v", p, err)
		}
	}
}

func TestCopyVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := CopyVerified(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(present, filepath.Join(dir, "absent"), ""); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Fatal("file should be removed")
	}
	if FileSize(present) != 0 {
		t.Fatal("FileSize of missing file should be 0")
	}
}
