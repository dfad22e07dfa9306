package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wastetwin/internal/config"
	"wastetwin/internal/queue"
)

const userAgent = "wastetwin/0.1.0"

// Notice is one push message.
type Notice struct {
	Title    string
	Message  string
	Tags     []string
	Priority string
}

// DrainSummary describes the busy period that just ended.
type DrainSummary struct {
	Completed   int
	Failed      int
	RecoveredKg float64
	Duration    time.Duration
}

// FacilityStarted announces the transition out of idle.
func FacilityStarted(pending int) Notice {
	return Notice{
		Title:   "wastetwin - Processing Started",
		Message: fmt.Sprintf("Facility started processing with %d items pending", pending),
		Tags:    []string{"wastetwin", "queue", "started"},
	}
}

// QueueDrained summarises a finished busy period.
func QueueDrained(s DrainSummary) Notice {
	duration := max(s.Duration.Round(time.Second), 0)
	n := Notice{
		Title:   "wastetwin - Queue Drained",
		Message: fmt.Sprintf("Queue drained: %d items recovered (%.2f kg) in %s", s.Completed, s.RecoveredKg, duration),
		Tags:    []string{"wastetwin", "queue", "completed"},
	}
	if s.Failed > 0 {
		n.Title = "wastetwin - Queue Drained (with failures)"
		n.Message = fmt.Sprintf("Queue drained: %d recovered (%.2f kg), %d failed in %s", s.Completed, s.RecoveredKg, s.Failed, duration)
	}
	return n
}

// ItemFailed reports an aborted unit of work.
func ItemFailed(item queue.Item, reason string) Notice {
	subject := strings.TrimSpace(item.ID)
	if item.Category != "" {
		subject += " (" + item.Category + ")"
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "unknown"
	}
	return Notice{
		Title:    "wastetwin - Item Failed",
		Message:  "Processing failed for " + subject + ": " + reason,
		Tags:     []string{"wastetwin", "error", "alert"},
		Priority: "high",
	}
}

// TestNotice is sent by `wastetwin notify test`.
func TestNotice() Notice {
	return Notice{
		Title:    "wastetwin - Test",
		Message:  "Notification system test",
		Tags:     []string{"wastetwin", "test"},
		Priority: "low",
	}
}

// Service delivers notices.
type Service interface {
	Send(ctx context.Context, n Notice) error
}

// NewService returns an ntfy-backed Service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.NotificationsEnabled() {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: cfg.Notifications.NtfyTopic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (s *ntfyService) Send(ctx context.Context, n Notice) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(n.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.Title != "" {
		req.Header.Set("Title", n.Title)
	}
	if len(n.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(n.Tags, ","))
	}
	if n.Priority != "" && n.Priority != "default" {
		req.Header.Set("Priority", n.Priority)
	}

	resp, err := s.client.Do(req)
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

func (noopService) Send(context.Context, Notice) error { return nil }
