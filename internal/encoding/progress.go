package encoding

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"tstomkv/internal/logging"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxWaitPolls = 12
)

// Snapshot is one observation of encoder progress.
type Snapshot struct {
	ElapsedSeconds float64
	// TotalSeconds is the source duration; zero or less means unknown.
	TotalSeconds float64
	Done         bool
}

// Percent returns progress in the range 0..100, or -1 when the total is unknown.
func (s Snapshot) Percent() float64 {
	if s.TotalSeconds <= 0 {
		return -1
	}
	p := s.ElapsedSeconds / s.TotalSeconds * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// MonitorStatus is how a Watch call ended.
type MonitorStatus int

const (
	// MonitorCompleted means the sink reported progress=end, the encoder exited,
	// or there was nothing to render.
	MonitorCompleted MonitorStatus = iota
	// MonitorTimedOut means the sink never appeared within the wait bound.
	MonitorTimedOut
)

func (s MonitorStatus) String() string {
	if s == MonitorTimedOut {
		return "timed_out"
	}
	return "completed"
}

type sleepFunc func(ctx context.Context, d time.Duration, wake <-chan struct{}) error

// Monitor polls an ffmpeg progress sink.
type Monitor struct {
	Interval     time.Duration
	MaxWaitPolls int
	Renderer     Renderer
	Logger       *slog.Logger

	sleep sleepFunc
}

// NewMonitor returns a Monitor polling every interval and waiting at most
// maxWaitPolls intervals for the sink to appear.
func NewMonitor(interval time.Duration, maxWaitPolls int, renderer Renderer, logger *slog.Logger) *Monitor {
	return &Monitor{
		Interval:     interval,
		MaxWaitPolls: maxWaitPolls,
		Renderer:     renderer,
		Logger:       logging.NewComponentLogger(logger, "progress"),
	}
}

// Watch follows sinkPath until ffmpeg reports progress=end. Each parse that
// carries out_time_ms yields one Snapshot to onSnapshot and the renderer.
//
// When totalSeconds is unknown nothing is rendered and Watch only waits for
// encoderDone. When the sink does not appear within MaxWaitPolls intervals Watch
// returns MonitorTimedOut without error. If the encoder exits before writing
// progress=end, the sink is read one last time and Watch returns
// MonitorCompleted.
func (m *Monitor) Watch(ctx context.Context, sinkPath string, totalSeconds float64, encoderDone <-chan struct{}, onSnapshot func(Snapshot)) (MonitorStatus, error) {
	if totalSeconds <= 0 {
		select {
		case <-encoderDone:
			return MonitorCompleted, nil
		case <-ctx.Done():
			return MonitorCompleted, ctx.Err()
		}
	}

	interval := m.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxWait := m.MaxWaitPolls
	if maxWait <= 0 {
		maxWait = defaultMaxWaitPolls
	}
	sleep := m.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := m.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	found := false
	for attempt := 1; attempt <= maxWait; attempt++ {
		if err := sleep(ctx, interval, encoderDone); err != nil {
			return MonitorCompleted, err
		}
		if sinkExists(sinkPath) {
			found = true
			break
		}
		if closed(encoderDone) {
			logger.Debug("encoder exited before writing progress", logging.String("sink", sinkPath))
			return MonitorCompleted, nil
		}
	}
	if !found {
		return MonitorTimedOut, nil
	}

	var (
		last     float64
		rendered bool
	)
	finish := func() {
		if rendered && m.Renderer != nil {
			m.Renderer.Finish()
		}
	}

	for {
		exited := closed(encoderDone)

		content, err := os.ReadFile(sinkPath)
		if err != nil {
			logger.Debug("progress sink read failed", logging.String("sink", sinkPath), logging.Error(err))
		} else {
			values := parseSink(content)
			end := values["progress"] == "end"
			if raw, ok := values["out_time_ms"]; ok {
				elapsed := last
				if micros, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64); perr == nil && micros >= 0 {
					elapsed = micros / 1_000_000
				}
				if elapsed < last && !end {
					elapsed = last
				}
				last = elapsed
				snap := Snapshot{ElapsedSeconds: elapsed, TotalSeconds: totalSeconds, Done: end}
				if m.Renderer != nil {
					m.Renderer.Update(snap)
					rendered = true
				}
				if onSnapshot != nil {
					onSnapshot(snap)
				}
			}
			if end {
				finish()
				return MonitorCompleted, nil
			}
		}

		if exited {
			finish()
			return MonitorCompleted, nil
		}
		if err := sleep(ctx, interval, encoderDone); err != nil {
			finish()
			return MonitorCompleted, err
		}
	}
}

// parseSink reads key=value lines. Later keys overwrite earlier ones, so the
// result reflects the most recent progress block.
func parseSink(content []byte) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	return values
}

func sinkExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func closed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// sleepContext waits for d, returning early when wake closes or with the
// context error when ctx ends.
func sleepContext(ctx context.Context, d time.Duration, wake <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-wake:
		return nil
	}
}
