package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tstomkv/internal/logging"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestListMissingDirectory(t *testing.T) {
	for _, dir := range []string{"", "   ", filepath.Join(t.TempDir(), "missing")} {
		got, err := List(dir)
		if err != nil || len(got) != 0 {
			t.Errorf("List(%q) = %v, %v", dir, got, err)
		}
	}
}

func TestListSkipsKeptFiles(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "STOP"), 0)
	writeAged(t, filepath.Join(dir, "tv", "Show", "b.ts"), 0)
	writeAged(t, filepath.Join(dir, "tv", "Show", "a.mkv"), 0)

	got, err := List(dir, "STOP")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Rel != "tv/Show/a.mkv" || got[1].Rel != "tv/Show/b.ts" {
		t.Fatalf("List = %+v", got)
	}
	if got[0].Size != 4 {
		t.Fatalf("size = %d", got[0].Size)
	}
}

func TestCleanStaleRemovesOldFilesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "tv", "Old", "x.ts")
	recent := filepath.Join(dir, "tv", "New", "y.ts")
	writeAged(t, old, 2*time.Hour)
	writeAged(t, recent, 0)
	writeAged(t, filepath.Join(dir, "STOP"), 3*time.Hour)

	result := CleanStale(context.Background(), dir, time.Hour, []string{"STOP"}, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old || result.Freed != 4 {
		t.Fatalf("result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "tv", "Old")); !os.IsNotExist(err) {
		t.Fatal("empty directory should be pruned")
	}
	for _, keep := range []string{recent, filepath.Join(dir, "STOP"), dir} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("%s should remain: %v", keep, err)
		}
	}
}

func TestCleanStaleZeroAgeRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "a", "b.ts"), 0)
	writeAged(t, filepath.Join(dir, "c.mkv"), 0)

	result := CleanStale(context.Background(), dir, 0, nil, logging.NewNop())
	if len(result.Removed) != 2 {
		t.Fatalf("result = %+v", result)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging root should be empty, found %d entries", len(entries))
	}
}
