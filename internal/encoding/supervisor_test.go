package encoding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

type fakeEncoder struct {
	calls   atomic.Int32
	sink    string
	release <-chan struct{}
	err     error
	sawOut  atomic.Bool
}

func (f *fakeEncoder) Encode(ctx context.Context, job EncodeJob) error {
	f.calls.Add(1)
	if _, err := os.Stat(job.Output); err == nil {
		f.sawOut.Store(true)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return f.err
	}
	if f.sink != "" {
		if err := os.WriteFile(job.Sink, []byte(f.sink), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(job.Output, []byte("mkv"), 0o644)
}

func waitForEncoderSleep(ctx context.Context, _ time.Duration, wake <-chan struct{}) error {
	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestSupervisor(enc Encoder, monitor *Monitor) *Supervisor {
	return NewSupervisor(enc, monitor, ".ts", ".mkv", time.Second, logging.NewNop())
}

func stagedPaths(t *testing.T) (input, output, sink string) {
	t.Helper()
	dir := t.TempDir()
	input = filepath.Join(dir, "Show.ts")
	if err := os.WriteFile(input, []byte("ts"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return input, filepath.Join(dir, "Show.mkv"), filepath.Join(dir, "Show-transcode.stats")
}

func TestSupervisorRunSuccess(t *testing.T) {
	input, output, sink := stagedPaths(t)
	enc := &fakeEncoder{sink: "out_time_ms=60000000\nprogress=end\n"}
	monitor := &Monitor{Interval: time.Second, MaxWaitPolls: 12, sleep: waitForEncoderSleep}

	sup := newTestSupervisor(enc, monitor)
	renderer := &recordingRenderer{}
	var label string
	sup.NewRenderer = func(l string) Renderer {
		label = l
		return renderer
	}

	outcome, err := sup.Run(context.Background(), Request{
		Input: input, Output: output, Sink: sink, Overwrite: true, TotalSeconds: 60, Label: "Show",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Kind != OutcomeSuccess {
		t.Fatalf("kind = %v, want success", outcome.Kind)
	}
	if outcome.Snapshots != 1 {
		t.Fatalf("snapshots = %d, want 1", outcome.Snapshots)
	}
	if label != "Show" || len(renderer.updates) != 1 || renderer.finishes != 1 {
		t.Fatalf("renderer label=%q updates=%d finishes=%d", label, len(renderer.updates), renderer.finishes)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestSupervisorRejectsWrongExtensions(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{}
	sup := newTestSupervisor(enc, nil)

	cases := []Request{
		{Input: filepath.Join(dir, "a.mp4"), Output: filepath.Join(dir, "a.mkv")},
		{Input: filepath.Join(dir, "a.ts"), Output: filepath.Join(dir, "a.mp4")},
	}
	for _, req := range cases {
		_, err := sup.Run(context.Background(), req)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Run(%s -> %s) err = %v, want validation error", req.Input, req.Output, err)
		}
	}
	if enc.calls.Load() != 0 {
		t.Fatalf("encoder started %d times, want 0", enc.calls.Load())
	}
}

func TestSupervisorAcceptsUppercaseExtensions(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{}
	_, err := newTestSupervisor(enc, nil).Run(context.Background(), Request{
		Input: filepath.Join(dir, "A.TS"), Output: filepath.Join(dir, "A.MKV"), Sink: filepath.Join(dir, "A.stats"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSupervisorExistingOutput(t *testing.T) {
	input, output, sink := stagedPaths(t)
	if err := os.WriteFile(output, []byte("old"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	enc := &fakeEncoder{}
	_, err := newTestSupervisor(enc, nil).Run(context.Background(), Request{Input: input, Output: output, Sink: sink})
	if !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("err = %v, want already exists", err)
	}
	if enc.calls.Load() != 0 {
		t.Fatal("encoder must not start when output exists and overwrite is false")
	}

	if _, err := newTestSupervisor(enc, nil).Run(context.Background(), Request{Input: input, Output: output, Sink: sink, Overwrite: true}); err != nil {
		t.Fatalf("Run with overwrite: %v", err)
	}
	if enc.sawOut.Load() {
		t.Fatal("existing output should be removed before the encoder starts")
	}
}

func TestSupervisorRemovesStaleSink(t *testing.T) {
	input, output, sink := stagedPaths(t)
	if err := os.WriteFile(sink, []byte("out_time_ms=1\nprogress=end\n"), 0o644); err != nil {
		t.Fatalf("write sink: %v", err)
	}
	enc := &fakeEncoder{}
	if _, err := newTestSupervisor(enc, nil).Run(context.Background(), Request{Input: input, Output: output, Sink: sink}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(sink); !os.IsNotExist(err) {
		t.Fatalf("stale sink should be removed, stat err = %v", err)
	}
}

func TestSupervisorProcessFailed(t *testing.T) {
	input, output, sink := stagedPaths(t)
	enc := &fakeEncoder{err: &ProcessError{ExitCode: 1, Stderr: "Invalid data found"}}

	outcome, err := newTestSupervisor(enc, nil).Run(context.Background(), Request{Input: input, Output: output, Sink: sink, Overwrite: true, TotalSeconds: 60})
	if !errors.Is(err, services.ErrProcessFailed) {
		t.Fatalf("err = %v, want process failed", err)
	}
	if outcome.Kind != OutcomeProcessFailed || outcome.ExitCode != 1 || outcome.Stderr != "Invalid data found" {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestSupervisorProgressTimeoutIsAdvisory(t *testing.T) {
	input, output, sink := stagedPaths(t)
	release := make(chan struct{})
	enc := &fakeEncoder{release: release}
	var calls atomic.Int32
	monitor := &Monitor{
		Interval:     time.Second,
		MaxWaitPolls: 12,
		sleep: func(ctx context.Context, _ time.Duration, _ <-chan struct{}) error {
			if calls.Add(1) == 12 {
				go func() {
					time.Sleep(100 * time.Millisecond)
					close(release)
				}()
			}
			return ctx.Err()
		},
	}

	outcome, err := newTestSupervisor(enc, monitor).Run(context.Background(), Request{Input: input, Output: output, Sink: sink, Overwrite: true, TotalSeconds: 60})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Kind != OutcomeProgressTimedOut {
		t.Fatalf("kind = %v, want progress_timed_out", outcome.Kind)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("encoder result should stand: %v", err)
	}
}
