package encoding

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"tstomkv/internal/logging"
)

// Renderer displays progress for one transcode. Finish seals the display.
type Renderer interface {
	Update(Snapshot)
	Finish()
}

// NewRenderer returns a terminal progress bar when out is a TTY and a sampled
// log renderer otherwise.
func NewRenderer(out *os.File, label string, logger *slog.Logger) Renderer {
	if out != nil && logging.IsTerminal(out) {
		return NewBarRenderer(out, label)
	}
	return NewLogRenderer(logger, label)
}

type barRenderer struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewBarRenderer draws a 0-100 bar on out.
func NewBarRenderer(out io.Writer, label string) Renderer {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	return &barRenderer{out: out, bar: bar}
}

func (r *barRenderer) Update(s Snapshot) {
	percent := s.Percent()
	if percent < 0 {
		return
	}
	_ = r.bar.Set(int(percent))
}

func (r *barRenderer) Finish() {
	fmt.Fprintln(r.out)
}

type logRenderer struct {
	logger  *slog.Logger
	label   string
	sampler *logging.ProgressSampler
}

// NewLogRenderer reports progress as info lines, one per 10% step.
func NewLogRenderer(logger *slog.Logger, label string) Renderer {
	return &logRenderer{
		logger:  logging.NewComponentLogger(logger, "progress"),
		label:   label,
		sampler: logging.NewProgressSampler(10),
	}
}

func (r *logRenderer) Update(s Snapshot) {
	percent := s.Percent()
	if !s.Done && !r.sampler.ShouldLog(percent, r.label) {
		return
	}
	r.logger.Info("transcode progress",
		logging.String("file", r.label),
		logging.String("percent", fmt.Sprintf("%.1f", percent)),
		logging.Float64("elapsed_seconds", s.ElapsedSeconds),
		logging.Float64("total_seconds", s.TotalSeconds),
		logging.Bool("done", s.Done),
	)
}

func (r *logRenderer) Finish() {
	r.sampler.Reset()
}
