package encoding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestFFmpegArgs(t *testing.T) {
	f := &FFmpeg{
		VideoCodec:    "libx265",
		Preset:        "medium",
		AudioCodec:    "aac",
		AudioBitrate:  "128k",
		SubtitleCodec: "copy",
		MapAllStreams: true,
	}
	args := f.Args(EncodeJob{Input: "/s/in.ts", Output: "/s/in.mkv", Sink: "/s/in-transcode.stats", Period: 5 * time.Second})
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-progress /s/in-transcode.stats",
		"-stats_period 5",
		"-i /s/in.ts",
		"-map 0:v -map 0:a? -map 0:s?",
		"-c:v libx265 -preset medium",
		"-c:a aac -b:a 128k",
		"-c:s copy",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if args[len(args)-1] != "/s/in.mkv" {
		t.Fatalf("output must be last, got %q", args[len(args)-1])
	}
	if !slices.Contains(args, "-nostdin") {
		t.Fatal("expected -nostdin")
	}
}

func TestFFmpegArgsWithoutOptionalSettings(t *testing.T) {
	f := &FFmpeg{VideoCodec: "libx265", AudioCodec: "aac"}
	args := f.Args(EncodeJob{Input: "in.ts", Output: "out.mkv", Sink: "s"})
	for _, flag := range []string{"-map", "-preset", "-b:a", "-c:s"} {
		if slices.Contains(args, flag) {
			t.Errorf("unexpected %s in %v", flag, args)
		}
	}
}

func TestFFmpegEncodeReportsExitStatus(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	body := "#!/bin/sh\necho 'first line' >&2\necho 'Invalid data found when processing input' >&2\nexit 3\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	f := &FFmpeg{Binary: script, VideoCodec: "libx265", AudioCodec: "aac"}
	err := f.Encode(context.Background(), EncodeJob{Input: "in.ts", Output: "out.mkv", Sink: "s"})
	var procErr *ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("err = %v, want *ProcessError", err)
	}
	if procErr.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", procErr.ExitCode)
	}
	if !strings.Contains(procErr.Stderr, "Invalid data found") {
		t.Fatalf("stderr = %q", procErr.Stderr)
	}
}
