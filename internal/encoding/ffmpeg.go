package encoding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"tstomkv/internal/config"
	"tstomkv/internal/textutil"
)

// EncodeJob describes one encoder invocation.
type EncodeJob struct {
	Input  string
	Output string
	Sink   string
	Period time.Duration
}

// Encoder converts Input to Output, refreshing the progress sink every Period.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}

// ProcessError reports a non-zero encoder exit.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("encoder exited with status %d", e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// FFmpeg runs the ffmpeg binary with HEVC/AAC settings taken from config.
type FFmpeg struct {
	Binary        string
	VideoCodec    string
	Preset        string
	AudioCodec    string
	AudioBitrate  string
	SubtitleCodec string
	MapAllStreams bool
}

// NewFFmpeg builds an encoder from the [encoder] config section.
func NewFFmpeg(cfg *config.Config) *FFmpeg {
	enc := cfg.Encoder
	return &FFmpeg{
		Binary:        enc.FFmpegBinary,
		VideoCodec:    enc.VideoCodec,
		Preset:        enc.Preset,
		AudioCodec:    enc.AudioCodec,
		AudioBitrate:  enc.AudioBitrate,
		SubtitleCodec: enc.SubtitleCodec,
		MapAllStreams: enc.MapAllStreams,
	}
}

// Args returns the ffmpeg argument list for job.
func (f *FFmpeg) Args(job EncodeJob) []string {
	period := job.Period
	if period <= 0 {
		period = defaultPollInterval
	}
	args := []string{
		"-nostdin",
		"-loglevel", "error",
		"-hide_banner",
		"-progress", job.Sink,
		"-stats_period", strconv.FormatFloat(period.Seconds(), 'f', -1, 64),
		"-i", job.Input,
	}
	if f.MapAllStreams {
		// Data streams (teletext, EPG) cannot be muxed into Matroska.
		args = append(args, "-map", "0:v", "-map", "0:a?", "-map", "0:s?")
	}
	args = append(args, "-c:v", f.VideoCodec)
	if f.Preset != "" {
		args = append(args, "-preset", f.Preset)
	}
	args = append(args, "-c:a", f.AudioCodec)
	if f.AudioBitrate != "" {
		args = append(args, "-b:a", f.AudioBitrate)
	}
	if f.SubtitleCodec != "" {
		args = append(args, "-c:s", f.SubtitleCodec)
	}
	return append(args, job.Output)
}

// Encode runs ffmpeg and waits for it to exit.
func (f *FFmpeg) Encode(ctx context.Context, job EncodeJob) error {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, f.Args(job)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &ProcessError{ExitCode: code, Stderr: textutil.TailLines(stderr.String(), 10), Err: err}
	}
	return nil
}
