package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dubber/internal/config"
	"dubber/internal/logging"
)

const userAgent = "Dubber/0.1.0"

// Service defines the notification surface exposed to batch components.
type Service interface {
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyBatchCompleted(ctx context.Context, processed, skipped, failed int) error
	NotifyItemFailed(ctx context.Context, videoID, reason string) error
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
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	data := payload{
		title:   "Dubber - Batch Started",
		message: fmt.Sprintf("Started processing %d items", count),
		tags:    []string{"dubber", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, processed, skipped, failed int) error {
	var title, message string
	if failed == 0 {
		title = "Dubber - Batch Complete"
		message = fmt.Sprintf("Batch complete: %d processed, %d skipped", processed, skipped)
	} else {
		title = "Dubber - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d processed, %d skipped, %d failed", processed, skipped, failed)
	}
	data := payload{
		title:    title,
		message:  message,
		tags:     []string{"dubber", "batch", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, videoID, reason string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		videoID = "unknown"
	}
	data := payload{
		title:   "Dubber - Item Failed",
		message: fmt.Sprintf("Failed: %s\n%s", videoID, strings.TrimSpace(reason)),
		tags:    []string{"dubber", "item", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Dubber - Test",
		message:  "Notification system test",
		tags:     []string{"dubber", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyBatchStarted(context.Context, int) error             { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, int) error { return nil }
func (noopService) NotifyItemFailed(context.Context, string, string) error    { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }

// BatchNotifier adapts a Service to fire-and-forget batch callbacks.
// Delivery failures are logged and swallowed.
type BatchNotifier struct {
	service Service
	logger  *slog.Logger
}

func NewBatchNotifier(service Service, logger *slog.Logger) *BatchNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BatchNotifier{service: service, logger: logger}
}

func (b *BatchNotifier) BatchStarted(ctx context.Context, total int) {
	if err := b.service.NotifyBatchStarted(ctx, total); err != nil {
		b.logger.Warn("notification failed", logging.Error(err))
	}
}

func (b *BatchNotifier) ItemFailed(ctx context.Context, videoID, reason string) {
	if err := b.service.NotifyItemFailed(ctx, videoID, reason); err != nil {
		b.logger.Warn("notification failed", logging.Error(err))
	}
}

func (b *BatchNotifier) BatchCompleted(ctx context.Context, processed, skipped, failed int) {
	if err := b.service.NotifyBatchCompleted(ctx, processed, skipped, failed); err != nil {
		b.logger.Warn("notification failed", logging.Error(err))
	}
}
