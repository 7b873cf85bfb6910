package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subweave/internal/config"
)

const userAgent = "Subweave/0.1.0"

// Event identifies a notification-worthy pipeline moment.
type Event string

// Events published by the workflow and stage handlers.
const (
	EventQueueStarted           Event = "queue_started"
	EventQueueCompleted         Event = "queue_completed"
	EventFetchCompleted         Event = "fetch_completed"
	EventTranscriptionCompleted Event = "transcription_completed"
	EventTranslationCompleted   Event = "translation_completed"
	EventRenderCompleted        Event = "render_completed"
	EventProcessingCompleted    Event = "processing_completed"
	EventError                  Event = "error"
	EventReviewRequired         Event = "review_required"
	EventTest                   Event = "test"
)

// Payload carries event-specific fields used to render the message.
type Payload map[string]string

func (p Payload) get(key string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p[key])
}

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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
		gates:    cfg.Notifications,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	gates    config.Notifications
	client   *http.Client
}

// Publish renders and sends the event, or silently drops it when the
// corresponding notification gate is off.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventQueueStarted, EventQueueCompleted, EventProcessingCompleted:
		return n.gates.Queue
	case EventFetchCompleted, EventTranscriptionCompleted, EventTranslationCompleted, EventRenderCompleted:
		return n.gates.Stages
	case EventError:
		return n.gates.Errors
	case EventReviewRequired:
		return n.gates.Review
	case EventTest:
		return true
	}
	return false
}

func render(event Event, payload Payload) (message, bool) {
	title := payload.get("title")
	switch event {
	case EventQueueStarted:
		return message{
			title: "Subweave - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %s items", orUnknown(payload.get("count"))),
			tags:  []string{"subweave", "queue", "started"},
		}, true
	case EventQueueCompleted:
		processed := orUnknown(payload.get("processed"))
		failed := payload.get("failed")
		duration := orUnknown(payload.get("duration"))
		if failed != "" && failed != "0" {
			return message{
				title: "Subweave - Queue Complete (with errors)",
				body:  fmt.Sprintf("Queue processing complete: %s succeeded, %s failed in %s", processed, failed, duration),
				tags:  []string{"subweave", "queue", "completed"},
			}, true
		}
		return message{
			title: "Subweave - Queue Complete",
			body:  fmt.Sprintf("Queue processing complete: %s items processed in %s", processed, duration),
			tags:  []string{"subweave", "queue", "completed"},
		}, true
	case EventFetchCompleted:
		return message{
			title: "Subweave - Fetched",
			body:  fmt.Sprintf("Downloaded: %s", orUnknown(title)),
			tags:  []string{"subweave", "fetch", "completed"},
		}, true
	case EventTranscriptionCompleted:
		return message{
			title: "Subweave - Transcribed",
			body:  fmt.Sprintf("Transcript ready: %s", orUnknown(title)),
			tags:  []string{"subweave", "transcribe", "completed"},
		}, true
	case EventTranslationCompleted:
		body := fmt.Sprintf("Translation ready: %s", orUnknown(title))
		if lang := payload.get("language"); lang != "" {
			body = fmt.Sprintf("%s (%s)", body, lang)
		}
		return message{
			title: "Subweave - Translated",
			body:  body,
			tags:  []string{"subweave", "translate", "completed"},
		}, true
	case EventRenderCompleted:
		return message{
			title: "Subweave - Rendered",
			body:  fmt.Sprintf("Subtitles burned: %s", orUnknown(title)),
			tags:  []string{"subweave", "render", "completed"},
		}, true
	case EventProcessingCompleted:
		body := fmt.Sprintf("Ready to watch: %s", orUnknown(title))
		if finalFile := payload.get("finalFile"); finalFile != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, finalFile)
		}
		return message{
			title:    "Subweave - Complete",
			body:     body,
			tags:     []string{"subweave", "workflow", "completed"},
			priority: "high",
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if contextLabel := payload.get("context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		builder.WriteString(orUnknown(payload.get("error")))
		return message{
			title:    "Subweave - Error",
			body:     builder.String(),
			tags:     []string{"subweave", "error", "alert"},
			priority: "high",
		}, true
	case EventReviewRequired:
		body := fmt.Sprintf("Needs review: %s", orUnknown(title))
		if reason := payload.get("reason"); reason != "" {
			body = fmt.Sprintf("%s\nReason: %s", body, reason)
		}
		return message{
			title: "Subweave - Review Needed",
			body:  body,
			tags:  []string{"subweave", "review"},
		}, true
	case EventTest:
		return message{
			title:    "Subweave - Test",
			body:     "Notification system test",
			tags:     []string{"subweave", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
