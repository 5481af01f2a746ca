package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"murmur/internal/config"
)

const userAgent = "murmur/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventBatchStarted   Event = "batch_started"
	EventBatchCompleted Event = "batch_completed"
	EventFileFailed     Event = "file_failed"
	EventTest           Event = "test"
)

// Payload carries event values. Recognized keys depend on the event:
//
//	batch_started:   count (int)
//	batch_completed: succeeded, failed, skipped (int), duration (time.Duration)
//	file_failed:     file (string), error (string or error)
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		batch:         cfg.Notifications.Batch,
		errors:        cfg.Notifications.Errors,
		batchMinFiles: cfg.Notifications.BatchMinFiles,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	batch         bool
	errors        bool
	batchMinFiles int
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.suppressed(event, payload) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) suppressed(event Event, payload Payload) bool {
	switch event {
	case EventBatchStarted:
		return !n.batch || payload.intValue("count") < n.batchMinFiles
	case EventBatchCompleted:
		total := payload.intValue("succeeded") + payload.intValue("failed") + payload.intValue("skipped")
		return !n.batch || total < n.batchMinFiles
	case EventFileFailed:
		return !n.errors
	default:
		return false
	}
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchStarted:
		count := payload.intValue("count")
		return message{
			title: "murmur - Batch Started",
			body:  fmt.Sprintf("Transcribing %d %s", count, plural(count, "file", "files")),
			tags:  []string{"murmur", "batch", "started"},
		}, true
	case EventBatchCompleted:
		succeeded := payload.intValue("succeeded")
		failed := payload.intValue("failed")
		skipped := payload.intValue("skipped")
		duration := payload.durationValue("duration").Round(time.Second)
		if duration < 0 {
			duration = 0
		}
		msg := message{
			title: "murmur - Batch Complete",
			body: fmt.Sprintf("%d transcribed, %d skipped in %s",
				succeeded, skipped, duration),
			tags: []string{"murmur", "batch", "completed"},
		}
		if failed > 0 {
			msg.title = "murmur - Batch Complete (with errors)"
			msg.body = fmt.Sprintf("%d transcribed, %d failed, %d skipped in %s",
				succeeded, failed, skipped, duration)
			msg.tags = []string{"murmur", "batch", "warning"}
		}
		return msg, true
	case EventFileFailed:
		var b strings.Builder
		b.WriteString("❌ Failed")
		if file := payload.stringValue("file"); file != "" {
			b.WriteString(": ")
			b.WriteString(file)
		}
		if reason := payload.stringValue("error"); reason != "" {
			b.WriteString("\n")
			b.WriteString(reason)
		}
		return message{
			title:    "murmur - Transcription Failed",
			body:     b.String(),
			tags:     []string{"murmur", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "murmur - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"murmur", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (p Payload) intValue(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func (p Payload) stringValue(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func (p Payload) durationValue(key string) time.Duration {
	if d, ok := p[key].(time.Duration); ok {
		return d
	}
	return 0
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
