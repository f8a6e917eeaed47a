package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tstomkv/internal/config"
	"tstomkv/internal/textutil"
)

const userAgent = "tstomkv/0.1.0"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRunStarted(ctx context.Context, count int) error
	NotifyItemCommitted(ctx context.Context, title, remote string, sourceBytes, outputBytes int64) error
	NotifyRunCompleted(ctx context.Context, committed, skipped int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		events:   cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, count int) error {
	if !n.events.RunStarted {
		return nil
	}
	noun := "recordings"
	if count == 1 {
		noun = "recording"
	}
	return n.send(ctx, payload{
		title:   "tstomkv - Run Started",
		message: fmt.Sprintf("Converting %d %s", count, noun),
		tags:    []string{"tstomkv", "run", "started"},
	})
}

func (n *ntfyService) NotifyItemCommitted(ctx context.Context, title, remote string, sourceBytes, outputBytes int64) error {
	if !n.events.ItemCommitted {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = remote
	}
	message := fmt.Sprintf("Converted: %s", title)
	if sourceBytes > 0 && outputBytes > 0 {
		message = fmt.Sprintf("%s\n%s -> %s", message, humanize.IBytes(uint64(sourceBytes)), humanize.IBytes(uint64(outputBytes)))
	}
	if remote != "" && remote != title {
		message = fmt.Sprintf("%s\nFile: %s", message, remote)
	}
	return n.send(ctx, payload{
		title:   "tstomkv - Converted",
		message: message,
		tags:    []string{"tstomkv", "item", "committed"},
	})
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, committed, skipped int, duration time.Duration) error {
	if !n.events.RunCompleted {
		return nil
	}
	if duration < 0 {
		duration = 0
	}
	message := fmt.Sprintf("Run complete: %d converted in %s", committed, textutil.HumanDuration(duration))
	if skipped > 0 {
		message = fmt.Sprintf("%s, %d skipped", message, skipped)
	}
	return n.send(ctx, payload{
		title:   "tstomkv - Run Complete",
		message: message,
		tags:    []string{"tstomkv", "run", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.events.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "tstomkv - Error",
		message:  builder.String(),
		tags:     []string{"tstomkv", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "tstomkv - Test",
		message:  "Notification system test",
		tags:     []string{"tstomkv", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }
func (noopService) NotifyItemCommitted(context.Context, string, string, int64, int64) error {
	return nil
}
func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                  { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
