package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tstomkv.prom")
	r := New(path)
	r.ItemOutcome("committed")
	r.ItemOutcome("committed")
	r.ItemOutcome("skipped")
	r.StageDuration("transcode", 90*time.Second)
	r.Bytes("fetched", 4096)
	r.DurationRatio(0.97)
	r.RunFinished(time.Unix(1700000000, 0), true)

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`tstomkv_items_total{outcome="committed"} 2`,
		`tstomkv_bytes_total{direction="fetched"} 4096`,
		`tstomkv_last_run_success 1`,
		`tstomkv_stage_duration_seconds_count{stage="transcode"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q\n%s", want, text)
		}
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ItemOutcome("failed")
	r.StageDuration("fetch", time.Second)
	r.RunFinished(time.Now(), false)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush on nil recorder: %v", err)
	}
}

func TestFlushWithoutPath(t *testing.T) {
	if err := New("").Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
