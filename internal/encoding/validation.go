package encoding

import (
	"context"
	"log/slog"

	"tstomkv/internal/logging"
	"tstomkv/internal/media/ffprobe"
)

const defaultDurationThreshold = 0.9

// VerificationResult compares source and output durations in whole seconds.
// Zero means the duration could not be determined.
type VerificationResult struct {
	Accepted      bool
	SourceSeconds int
	OutputSeconds int
	Ratio         float64
}

// Verifier checks that a transcode kept (nearly) all of its source.
type Verifier struct {
	Binary    string
	Threshold float64
	Probe     ffprobe.Func
	Logger    *slog.Logger
}

// NewVerifier returns a Verifier that probes with the given ffprobe binary.
func NewVerifier(binary string, threshold float64, logger *slog.Logger) *Verifier {
	return &Verifier{
		Binary:    binary,
		Threshold: threshold,
		Probe:     ffprobe.Inspect,
		Logger:    logging.NewComponentLogger(logger, "verify"),
	}
}

// Verify probes both files. A file that cannot be probed makes the result
// unaccepted; only context cancellation is returned as an error.
func (v *Verifier) Verify(ctx context.Context, original, converted string) (VerificationResult, error) {
	src, _ := v.Duration(ctx, original)
	if err := ctx.Err(); err != nil {
		return VerificationResult{}, err
	}
	out, _ := v.Duration(ctx, converted)
	if err := ctx.Err(); err != nil {
		return VerificationResult{}, err
	}

	result := VerificationResult{SourceSeconds: src, OutputSeconds: out}
	if src > 0 {
		result.Ratio = float64(out) / float64(src)
	}
	result.Accepted = Accept(src, out, v.threshold())

	logger := logging.WithContext(ctx, v.Logger)
	logger.Info("duration check",
		logging.Int("source_seconds", src),
		logging.Int("output_seconds", out),
		logging.Float64("ratio", result.Ratio),
		logging.Bool("accepted", result.Accepted),
	)
	return result, nil
}

// Duration returns the video duration of path in whole seconds.
func (v *Verifier) Duration(ctx context.Context, path string) (int, bool) {
	probe := v.Probe
	if probe == nil {
		probe = ffprobe.Inspect
	}
	result, err := probe(ctx, v.Binary, path)
	if err != nil {
		if v.Logger != nil {
			v.Logger.Debug("ffprobe failed", logging.String("path", path), logging.Error(err))
		}
		return 0, false
	}
	return result.VideoDurationSeconds()
}

func (v *Verifier) threshold() float64 {
	if v.Threshold <= 0 || v.Threshold > 1 {
		return defaultDurationThreshold
	}
	return v.Threshold
}

// Accept applies the duration ratio rule: both durations known and output at
// least threshold times source.
func Accept(sourceSeconds, outputSeconds int, threshold float64) bool {
	if sourceSeconds <= 0 || outputSeconds <= 0 {
		return false
	}
	return float64(outputSeconds) >= threshold*float64(sourceSeconds)
}
