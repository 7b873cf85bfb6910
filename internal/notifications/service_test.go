package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subweave/internal/config"
	"subweave/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventError, notifications.Payload{"error": "boom"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "queue started",
			event: notifications.EventQueueStarted,
			payload: notifications.Payload{
				"count": "3",
			},
			expectTitle:   "Subweave - Queue Started",
			expectMessage: "Started processing queue with 3 items",
			expectTags:    "subweave,queue,started",
		},
		{
			name:  "queue completed",
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": "3",
				"failed":    "0",
				"duration":  "12m30s",
			},
			expectTitle:   "Subweave - Queue Complete",
			expectMessage: "Queue processing complete: 3 items processed in 12m30s",
			expectTags:    "subweave,queue,completed",
		},
		{
			name:  "queue completed with failures",
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": "2",
				"failed":    "1",
				"duration":  "9m",
			},
			expectTitle:   "Subweave - Queue Complete (with errors)",
			expectMessage: "Queue processing complete: 2 succeeded, 1 failed in 9m",
			expectTags:    "subweave,queue,completed",
		},
		{
			name:  "fetch completed",
			event: notifications.EventFetchCompleted,
			payload: notifications.Payload{
				"title": "Intro to Raft",
			},
			expectTitle:   "Subweave - Fetched",
			expectMessage: "Downloaded: Intro to Raft",
			expectTags:    "subweave,fetch,completed",
		},
		{
			name:  "transcription completed",
			event: notifications.EventTranscriptionCompleted,
			payload: notifications.Payload{
				"title": "Intro to Raft",
			},
			expectTitle:   "Subweave - Transcribed",
			expectMessage: "Transcript ready: Intro to Raft",
			expectTags:    "subweave,transcribe,completed",
		},
		{
			name:  "translation completed",
			event: notifications.EventTranslationCompleted,
			payload: notifications.Payload{
				"title":    "Intro to Raft",
				"language": "Chinese",
			},
			expectTitle:   "Subweave - Translated",
			expectMessage: "Translation ready: Intro to Raft (Chinese)",
			expectTags:    "subweave,translate,completed",
		},
		{
			name:  "render completed",
			event: notifications.EventRenderCompleted,
			payload: notifications.Payload{
				"title": "Intro to Raft",
			},
			expectTitle:   "Subweave - Rendered",
			expectMessage: "Subtitles burned: Intro to Raft",
			expectTags:    "subweave,render,completed",
		},
		{
			name:  "processing completed",
			event: notifications.EventProcessingCompleted,
			payload: notifications.Payload{
				"title":     "Intro to Raft",
				"finalFile": "/library/Intro To Raft/Intro To Raft.mp4",
			},
			expectTitle:    "Subweave - Complete",
			expectMessage:  "Ready to watch: Intro to Raft\nFile: /library/Intro To Raft/Intro To Raft.mp4",
			expectTags:     "subweave,workflow,completed",
			expectPriority: "high",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "queue item 7",
				"error":   "yt-dlp exited with status 1",
			},
			expectTitle:    "Subweave - Error",
			expectMessage:  "Error with queue item 7: yt-dlp exited with status 1",
			expectTags:     "subweave,error,alert",
			expectPriority: "high",
		},
		{
			name:  "review required",
			event: notifications.EventReviewRequired,
			payload: notifications.Payload{
				"title":  "Intro to Raft",
				"reason": "12 blocks untranslated",
			},
			expectTitle:   "Subweave - Review Needed",
			expectMessage: "Needs review: Intro to Raft\nReason: 12 blocks untranslated",
			expectTags:    "subweave,review",
		},
		{
			name:           "test event",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "Subweave - Test",
			expectMessage:  "Notification system test",
			expectTags:     "subweave,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceRespectsGates(t *testing.T) {
	tests := []struct {
		name    string
		disable func(*config.Config)
		events  []notifications.Event
	}{
		{
			name:    "queue gate",
			disable: func(cfg *config.Config) { cfg.Notifications.Queue = false },
			events: []notifications.Event{
				notifications.EventQueueStarted,
				notifications.EventQueueCompleted,
				notifications.EventProcessingCompleted,
			},
		},
		{
			name:    "stages gate",
			disable: func(cfg *config.Config) { cfg.Notifications.Stages = false },
			events: []notifications.Event{
				notifications.EventFetchCompleted,
				notifications.EventTranscriptionCompleted,
				notifications.EventTranslationCompleted,
				notifications.EventRenderCompleted,
			},
		},
		{
			name:    "errors gate",
			disable: func(cfg *config.Config) { cfg.Notifications.Errors = false },
			events:  []notifications.Event{notifications.EventError},
		},
		{
			name:    "review gate",
			disable: func(cfg *config.Config) { cfg.Notifications.Review = false },
			events:  []notifications.Event{notifications.EventReviewRequired},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Errorf("unexpected call for suppressed event: %s", r.URL.String())
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			tc.disable(&cfg)

			svc := notifications.NewService(&cfg)
			for _, event := range tc.events {
				if err := svc.Publish(context.Background(), event, notifications.Payload{"title": "ignored"}); err != nil {
					t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
				}
			}
		})
	}
}

func TestNtfyServiceTestEventBypassesGates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = false
	cfg.Notifications.Stages = false
	cfg.Notifications.Errors = false
	cfg.Notifications.Review = false

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("test notification returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected test notification to bypass gates, got %d calls", calls)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error from failing ntfy endpoint")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}
