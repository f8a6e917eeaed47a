package encoding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tstomkv/internal/logging"
	"tstomkv/internal/services"
)

// Request describes one transcode.
type Request struct {
	Input        string
	Output       string
	Sink         string
	Overwrite    bool
	TotalSeconds float64
	// Label names the item in progress output.
	Label string
}

// OutcomeKind classifies how a transcode ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeProcessFailed
	// OutcomeProgressTimedOut is advisory: the encoder finished successfully but
	// no progress was ever observed.
	OutcomeProgressTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeProcessFailed:
		return "process_failed"
	case OutcomeProgressTimedOut:
		return "progress_timed_out"
	default:
		return "success"
	}
}

// Outcome reports the result of Supervisor.Run.
type Outcome struct {
	Kind      OutcomeKind
	ExitCode  int
	Stderr    string
	Elapsed   time.Duration
	Snapshots int
}

// Supervisor runs the encoder and the progress monitor side by side and joins
// both before returning.
type Supervisor struct {
	Encoder   Encoder
	Monitor   *Monitor
	SourceExt string
	OutputExt string
	Period    time.Duration
	Logger    *slog.Logger
	// NewRenderer, when set, replaces the monitor's renderer for each request.
	NewRenderer func(label string) Renderer
}

// NewSupervisor wires an encoder and monitor.
func NewSupervisor(encoder Encoder, monitor *Monitor, sourceExt, outputExt string, period time.Duration, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		Encoder:   encoder,
		Monitor:   monitor,
		SourceExt: sourceExt,
		OutputExt: outputExt,
		Period:    period,
		Logger:    logging.NewComponentLogger(logger, "transcode"),
	}
}

// Run transcodes req.Input into req.Output. A non-zero encoder exit yields an
// OutcomeProcessFailed outcome together with an error wrapping
// services.ErrProcessFailed. A monitor timeout is logged and never escalated.
func (s *Supervisor) Run(ctx context.Context, req Request) (Outcome, error) {
	logger := logging.WithContext(ctx, s.Logger)
	if s.Encoder == nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "transcode", "init", "encoder unavailable", nil)
	}
	if err := s.checkExtensions(req); err != nil {
		return Outcome{}, err
	}
	if err := prepareOutput(req.Output, req.Overwrite); err != nil {
		return Outcome{}, err
	}
	if err := os.Remove(req.Sink); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Outcome{}, services.Wrap(services.ErrValidation, "transcode", "remove stale sink", req.Sink, err)
	}

	start := time.Now()
	encoderDone := make(chan struct{})
	var (
		wg        sync.WaitGroup
		encodeErr error
		status    MonitorStatus
		watchErr  error
		snapshots int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(encoderDone)
		encodeErr = s.Encoder.Encode(ctx, EncodeJob{
			Input:  req.Input,
			Output: req.Output,
			Sink:   req.Sink,
			Period: s.Period,
		})
	}()
	go func() {
		defer wg.Done()
		if s.Monitor == nil {
			<-encoderDone
			return
		}
		monitor := *s.Monitor
		if s.NewRenderer != nil {
			monitor.Renderer = s.NewRenderer(req.Label)
		}
		status, watchErr = monitor.Watch(ctx, req.Sink, req.TotalSeconds, encoderDone, func(Snapshot) {
			snapshots++
		})
	}()
	wg.Wait()

	outcome := Outcome{Elapsed: time.Since(start), Snapshots: snapshots}
	if watchErr != nil && !errors.Is(watchErr, context.Canceled) {
		logger.Debug("progress monitor stopped", logging.Error(watchErr))
	}

	if encodeErr != nil {
		outcome.Kind = OutcomeProcessFailed
		outcome.ExitCode = -1
		var procErr *ProcessError
		if errors.As(encodeErr, &procErr) {
			outcome.ExitCode = procErr.ExitCode
			outcome.Stderr = procErr.Stderr
		}
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		return outcome, services.Wrap(services.ErrProcessFailed, "transcode", "ffmpeg",
			fmt.Sprintf("exit status %d", outcome.ExitCode), encodeErr)
	}

	if status == MonitorTimedOut {
		outcome.Kind = OutcomeProgressTimedOut
		logging.WarnWithContext(logger, "progress sink never appeared", "progress_timed_out",
			logging.String("sink", req.Sink),
			logging.String(logging.FieldErrorKind, services.Kind(services.ErrProgressTimedOut)),
			logging.String(logging.FieldErrorHint, "check the encoder's -progress support and staging permissions"),
			logging.String(logging.FieldImpact, "no progress shown; encoder result used"),
		)
		return outcome, nil
	}

	outcome.Kind = OutcomeSuccess
	return outcome, nil
}

func (s *Supervisor) checkExtensions(req Request) error {
	sourceExt := defaultExt(s.SourceExt, ".ts")
	outputExt := defaultExt(s.OutputExt, ".mkv")
	if !strings.EqualFold(filepath.Ext(req.Input), sourceExt) {
		return services.Wrap(services.ErrValidation, "transcode", "check input",
			fmt.Sprintf("%s does not end in %s", req.Input, sourceExt), nil)
	}
	if !strings.EqualFold(filepath.Ext(req.Output), outputExt) {
		return services.Wrap(services.ErrValidation, "transcode", "check output",
			fmt.Sprintf("%s does not end in %s", req.Output, outputExt), nil)
	}
	return nil
}

func prepareOutput(output string, overwrite bool) error {
	_, err := os.Stat(output)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return services.Wrap(services.ErrValidation, "transcode", "stat output", output, err)
	case !overwrite:
		return services.Wrap(services.ErrAlreadyExists, "transcode", "check output", output, nil)
	}
	if err := os.Remove(output); err != nil {
		return services.Wrap(services.ErrValidation, "transcode", "remove existing output", output, err)
	}
	return nil
}

func defaultExt(ext, fallback string) string {
	if strings.TrimSpace(ext) == "" {
		return fallback
	}
	return ext
}
