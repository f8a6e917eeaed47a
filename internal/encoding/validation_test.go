package encoding

import (
	"context"
	"errors"
	"testing"

	"tstomkv/internal/logging"
	"tstomkv/internal/media/ffprobe"
)

func fakeProbe(durations map[string]string) ffprobe.Func {
	return func(_ context.Context, _ string, path string) (ffprobe.Result, error) {
		d, ok := durations[path]
		if !ok {
			return ffprobe.Result{}, errors.New("no such file")
		}
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", Duration: d}},
		}, nil
	}
}

func TestVerify(t *testing.T) {
	cases := []struct {
		name      string
		durations map[string]string
		accepted  bool
		src, out  int
	}{
		{"accept", map[string]string{"in.ts": "3600.4", "out.mkv": "3500.9"}, true, 3600, 3500},
		{"reject short output", map[string]string{"in.ts": "3600", "out.mkv": "2000"}, false, 3600, 2000},
		{"unknown output", map[string]string{"in.ts": "3600"}, false, 3600, 0},
		{"unknown source", map[string]string{"out.mkv": "3600"}, false, 0, 3600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewVerifier("ffprobe", 0.9, logging.NewNop())
			v.Probe = fakeProbe(tc.durations)
			result, err := v.Verify(context.Background(), "in.ts", "out.mkv")
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if result.Accepted != tc.accepted || result.SourceSeconds != tc.src || result.OutputSeconds != tc.out {
				t.Fatalf("result = %+v", result)
			}
		})
	}
}

func TestVerifyFallsBackToContainerDuration(t *testing.T) {
	v := NewVerifier("ffprobe", 0.9, nil)
	v.Probe = func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio", Duration: "10"}},
			Format:  ffprobe.Format{Duration: "1800.7"},
		}, nil
	}
	secs, ok := v.Duration(context.Background(), "x.mkv")
	if !ok || secs != 1800 {
		t.Fatalf("Duration = %d, %v; want 1800, true", secs, ok)
	}
}

func TestAccept(t *testing.T) {
	cases := []struct {
		src, out int
		want     bool
	}{
		{3600, 3240, true},
		{3600, 3239, false},
		{0, 100, false},
		{100, 0, false},
		{100, 150, true},
	}
	for _, tc := range cases {
		if got := Accept(tc.src, tc.out, 0.9); got != tc.want {
			t.Errorf("Accept(%d, %d) = %v, want %v", tc.src, tc.out, got, tc.want)
		}
	}
}

func TestVerifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := NewVerifier("ffprobe", 0.9, nil)
	v.Probe = fakeProbe(map[string]string{"in.ts": "10", "out.mkv": "10"})
	if _, err := v.Verify(ctx, "in.ts", "out.mkv"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
