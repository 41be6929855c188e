package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"recipebox/internal/config"
	"recipebox/internal/i18n"
	"recipebox/internal/logging"
)

const userAgent = "recipebox/0.1.0"

// Service is the notification surface used by the orchestrator.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// Toast is one recorded notification.
type Toast struct {
	ID        uint64    `json:"id"`
	Event     Event     `json:"event"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Center records toasts in a bounded history and forwards selected events to ntfy.
type Center struct {
	printer  *i18n.Printer
	push     *ntfyClient
	logger   *slog.Logger
	now      func() time.Time
	mu       sync.Mutex
	toasts   []Toast
	capacity int
	nextID   uint64
}

// NewService builds a notification center. Push delivery is enabled only when
// an ntfy topic is configured.
func NewService(cfg *config.Config, printer *i18n.Printer, logger *slog.Logger) *Center {
	capacity := cfg.Notifications.HistorySize
	if capacity <= 0 {
		capacity = 50
	}
	if printer == nil {
		printer = i18n.New(cfg.Analysis.Language)
	}
	center := &Center{
		printer:  printer,
		logger:   logging.NewComponentLogger(logger, "notifications"),
		now:      time.Now,
		capacity: capacity,
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		center.push = &ntfyClient{endpoint: topic, client: &http.Client{Timeout: timeout}}
	}
	return center
}

// Publish records the toast and, for push-worthy events, delivers it to ntfy.
// Delivery errors are returned after the toast has been recorded.
func (c *Center) Publish(ctx context.Context, event Event, payload Payload) error {
	level, message := render(c.printer, event, payload)
	c.record(event, level, message)
	tags, ok := pushTags[event]
	if !ok || c.push == nil {
		return nil
	}
	priority := ""
	if level == LevelError {
		priority = "high"
	}
	err := c.push.send(ctx, c.printer.Sprintf(i18n.MsgNotificationTitle), message, tags, priority)
	if err != nil {
		c.logger.Warn("ntfy delivery failed",
			logging.String(logging.FieldEventType, "ntfy_delivery_failed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
	return err
}

func (c *Center) record(event Event, level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.toasts = append(c.toasts, Toast{
		ID:        c.nextID,
		Event:     event,
		Level:     level,
		Message:   message,
		CreatedAt: c.now().UTC(),
	})
	if overflow := len(c.toasts) - c.capacity; overflow > 0 {
		c.toasts = append([]Toast(nil), c.toasts[overflow:]...)
	}
}

// Recent returns up to limit of the newest toasts, oldest first. limit <= 0 returns all.
func (c *Center) Recent(limit int) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := 0
	if limit > 0 && len(c.toasts) > limit {
		start = len(c.toasts) - limit
	}
	return append([]Toast(nil), c.toasts[start:]...)
}

// Since returns the toasts recorded after id.
func (c *Center) Since(id uint64) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, 0)
	for _, toast := range c.toasts {
		if toast.ID > id {
			out = append(out, toast)
		}
	}
	return out
}

type ntfyClient struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyClient) send(ctx context.Context, title, message string, tags []string, priority string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if priority != "" && priority != "default" {
		req.Header.Set("Priority", priority)
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
