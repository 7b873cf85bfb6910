package translation_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/notifications"
	"subweave/internal/queue"
	"subweave/internal/services"
	"subweave/internal/subtitles"
	"subweave/internal/testsupport"
	"subweave/internal/translation"
)

// englishFiller reads as untranslated to the detector: no CJK, mostly ASCII
// letters, and long enough to not pass as an acronym.
const englishFiller = "still the original english spoken line"

type scriptedTranslator struct {
	mu    sync.Mutex
	calls int
	fail  error
	// pick overrides the translation for a block; nil means "第N句".
	pick func(block subtitles.Block) string
}

func (s *scriptedTranslator) Translate(_ context.Context, req translation.Request) ([]string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]string, len(req.Chunk.Blocks))
	for i, block := range req.Chunk.Blocks {
		if s.pick != nil {
			out[i] = s.pick(block)
			continue
		}
		out[i] = fmt.Sprintf("第%d句", block.Index)
	}
	return out, nil
}

func (s *scriptedTranslator) Name() string { return "scripted" }

func (s *scriptedTranslator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) has(event notifications.Event) bool {
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

// newStageConfig disables request pacing so table runs do not stall on the
// rate limiter.
func newStageConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Translation.RequestsPerMinute = 0
	return cfg
}

func newTranscribedItem(t *testing.T, store *queue.Store, workspace string, texts ...string) (*queue.Item, string) {
	t.Helper()
	item := testsupport.NewSource(t, store, "https://example.com/v", "Lecture")
	media := filepath.Join(workspace, "lecture.mp4")
	testsupport.WriteFile(t, media, 1024)
	transcript := strings.TrimSuffix(media, ".mp4") + ".srt"
	testsupport.WriteSRT(t, transcript, texts...)
	item.Status = queue.StatusTranslating
	item.MediaFile = media
	item.TranscriptFile = transcript
	item.MediaDurationSeconds = float64(len(texts) + 1)
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return item, media
}

func englishLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s number %d", englishFiller, i+1)
	}
	return lines
}

func TestStageTranslatesTranscript(t *testing.T) {
	cfg := newStageConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, media := newTranscribedItem(t, store, workspace, "hello there", "how are you", "fine thanks", "see you")

	translator := &scriptedTranslator{}
	notifier := &recordingNotifier{}
	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), translator, notifier)

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	base := strings.TrimSuffix(media, ".mp4")
	if want := base + ".zh.srt"; item.TranslatedFile != want {
		t.Fatalf("translated file = %q, want %q", item.TranslatedFile, want)
	}
	if want := base + ".bi.srt"; item.BilingualFile != want {
		t.Fatalf("bilingual file = %q, want %q", item.BilingualFile, want)
	}

	translated, err := subtitles.ParseSRTFile(item.TranslatedFile)
	if err != nil {
		t.Fatalf("parse translated: %v", err)
	}
	if translated.BlockCount() != 4 {
		t.Fatalf("translated blocks = %d, want 4", translated.BlockCount())
	}
	if got := translated.Blocks[0].Text(); got != "第1句" {
		t.Fatalf("translated block 1 = %q", got)
	}

	bilingual, err := subtitles.ParseSRTFile(item.BilingualFile)
	if err != nil {
		t.Fatalf("parse bilingual: %v", err)
	}
	if got := bilingual.Blocks[0].Text(); got != "第1句\nhello there" {
		t.Fatalf("bilingual block 1 = %q", got)
	}
	if bilingual.Blocks[3].Start != translated.Blocks[3].Start {
		t.Fatal("bilingual timing drifted from translated timing")
	}

	if item.NeedsReview {
		t.Fatalf("unexpected review flag: %q", item.ReviewReason)
	}
	if item.ProgressStage != "Translated" || item.ProgressPercent != 100 {
		t.Fatalf("unexpected progress: %q %.0f", item.ProgressStage, item.ProgressPercent)
	}
	if translator.callCount() == 0 {
		t.Fatal("expected backend calls")
	}
	if !notifier.has(notifications.EventTranslationCompleted) {
		t.Fatalf("expected translation notification, got %v", notifier.events)
	}
}

func TestStageReusesExistingTranslation(t *testing.T) {
	cfg := newStageConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, media := newTranscribedItem(t, store, workspace, "hello there", "how are you", "fine thanks", "see you")

	// Same cue count and generator as the source, so timings align.
	existing := strings.TrimSuffix(media, ".mp4") + ".zh.srt"
	testsupport.WriteSRT(t, existing, "你好", "你咋样", "挺好的", "回见")

	translator := &scriptedTranslator{}
	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), translator, &recordingNotifier{})

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if translator.callCount() != 0 {
		t.Fatalf("expected no backend calls, got %d", translator.callCount())
	}
	if item.TranslatedFile != existing {
		t.Fatalf("translated file = %q, want %q", item.TranslatedFile, existing)
	}
	bilingual, err := subtitles.ParseSRTFile(item.BilingualFile)
	if err != nil {
		t.Fatalf("parse bilingual: %v", err)
	}
	if got := bilingual.Blocks[0].Text(); got != "你好\nhello there" {
		t.Fatalf("bilingual block 1 = %q", got)
	}
}

func TestStageReuseThreshold(t *testing.T) {
	tests := []struct {
		name      string
		filled    int
		wantCalls bool
	}{
		{name: "at threshold", filled: 19, wantCalls: false},
		{name: "below threshold", filled: 18, wantCalls: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newStageConfig(t)
			store := testsupport.MustOpenStore(t, cfg)
			workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
			item, media := newTranscribedItem(t, store, workspace, englishLines(20)...)

			texts := make([]string, 20)
			for i := range texts {
				if i < tt.filled {
					texts[i] = fmt.Sprintf("第%d句", i+1)
				} else {
					texts[i] = englishFiller
				}
			}
			testsupport.WriteSRT(t, strings.TrimSuffix(media, ".mp4")+".zh.srt", texts...)

			translator := &scriptedTranslator{}
			handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), translator, &recordingNotifier{})

			if err := handler.Prepare(context.Background(), item); err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			if err := handler.Execute(context.Background(), item); err != nil {
				t.Fatalf("Execute: %v", err)
			}

			if tt.wantCalls && translator.callCount() == 0 {
				t.Fatal("expected the engine to re-run")
			}
			if !tt.wantCalls && translator.callCount() != 0 {
				t.Fatalf("expected reuse, got %d backend calls", translator.callCount())
			}
		})
	}
}

func TestStageFlagsUntranslatedForReview(t *testing.T) {
	cfg := newStageConfig(t)
	// Repair would just re-run the same scripted replies.
	cfg.Translation.RepairPasses = -1
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, media := newTranscribedItem(t, store, workspace, "hello there", "how are you", "fine thanks", "see you")

	translator := &scriptedTranslator{pick: func(block subtitles.Block) string {
		if block.Index == 2 || block.Index == 4 {
			return englishFiller
		}
		return fmt.Sprintf("第%d句", block.Index)
	}}
	notifier := &recordingNotifier{}
	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), translator, notifier)

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !item.NeedsReview {
		t.Fatal("expected review flag")
	}
	if item.Status != queue.StatusReview {
		t.Fatalf("status = %q, want %q", item.Status, queue.StatusReview)
	}
	if !strings.Contains(item.ReviewReason, "2 blocks untranslated") || !strings.Contains(item.ReviewReason, "2, 4") {
		t.Fatalf("unexpected review reason: %q", item.ReviewReason)
	}
	reviewCopy := filepath.Join(cfg.Paths.ReviewDir, fmt.Sprintf("queue-%d-%s", item.ID, filepath.Base(strings.TrimSuffix(media, ".mp4")+".zh.srt")))
	if _, err := os.Stat(reviewCopy); err != nil {
		t.Fatalf("expected review copy at %s: %v", reviewCopy, err)
	}
	if !notifier.has(notifications.EventReviewRequired) {
		t.Fatalf("expected review notification, got %v", notifier.events)
	}
	// The translated SRT still lands so a reviewer can fix it in place; the
	// bilingual waits for the retry so it is composed from the fixed text.
	if item.TranslatedFile == "" {
		t.Fatal("expected translated artifact despite review flag")
	}
	if item.BilingualFile != "" {
		t.Fatalf("bilingual should wait for the fixed translation, got %q", item.BilingualFile)
	}
}

func TestStageRetryAfterReviewFixReusesEditedFile(t *testing.T) {
	cfg := newStageConfig(t)
	cfg.Translation.RepairPasses = -1
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, media := newTranscribedItem(t, store, workspace, "hello there", "how are you", "fine thanks", "see you")

	failing := &scriptedTranslator{pick: func(block subtitles.Block) string {
		if block.Index == 3 {
			return englishFiller
		}
		return fmt.Sprintf("第%d句", block.Index)
	}}
	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), failing, &recordingNotifier{})
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.Status != queue.StatusReview {
		t.Fatalf("status = %q, want review", item.Status)
	}

	// Hand-fix the flagged block in the staged translation.
	translatedPath := strings.TrimSuffix(media, ".mp4") + ".zh.srt"
	fixed, err := subtitles.ParseSRTFile(translatedPath)
	if err != nil {
		t.Fatalf("ParseSRTFile: %v", err)
	}
	fixed.Blocks[2].SetText("第3句，已修复")
	if err := fixed.WriteFile(translatedPath); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	item.Status = queue.StatusTranslating
	retry := &scriptedTranslator{}
	handler = translation.NewStageWithDependencies(cfg, store, logging.NewNop(), retry, &recordingNotifier{})
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("retry Execute: %v", err)
	}

	if retry.callCount() != 0 {
		t.Fatalf("expected edited translation to be reused, translator called %d times", retry.callCount())
	}
	if item.NeedsReview || item.ReviewReason != "" {
		t.Fatalf("review flags should clear on retry: %v %q", item.NeedsReview, item.ReviewReason)
	}
	if item.BilingualFile == "" {
		t.Fatal("expected bilingual artifact on retry")
	}
	bilingual, err := subtitles.ParseSRTFile(item.BilingualFile)
	if err != nil {
		t.Fatalf("parse bilingual: %v", err)
	}
	if got := bilingual.Blocks[2].Text(); !strings.Contains(got, "已修复") || !strings.Contains(got, "fine thanks") {
		t.Fatalf("bilingual block should stack fixed translation over source, got %q", got)
	}
}

func TestStageWrapsBackendFailures(t *testing.T) {
	cfg := newStageConfig(t)
	cfg.Translation.RepairPasses = -1
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, _ := newTranscribedItem(t, store, workspace, "hello there", "how are you")

	translator := &scriptedTranslator{fail: errors.New("backend down")}
	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), translator, &recordingNotifier{})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "run engine") {
		t.Fatalf("expected engine operation in error, got %v", err)
	}
}

func TestStageRequiresTranscript(t *testing.T) {
	cfg := newStageConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewSource(t, store, "https://example.com/v", "Lecture")

	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), &scriptedTranslator{}, &recordingNotifier{})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageRejectsCorruptTranscript(t *testing.T) {
	cfg := newStageConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewSource(t, store, "https://example.com/v", "Lecture")
	transcript := filepath.Join(cfg.Paths.StagingDir, "broken.srt")
	if err := os.MkdirAll(filepath.Dir(transcript), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(transcript, []byte("not a subtitle file\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	item.TranscriptFile = transcript

	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), &scriptedTranslator{}, &recordingNotifier{})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageHealth(t *testing.T) {
	cfg := newStageConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := translation.NewStageWithDependencies(cfg, store, logging.NewNop(), &scriptedTranslator{}, &recordingNotifier{})
	health := handler.HealthCheck(context.Background())
	if !health.Ready || health.Name != "translator" {
		t.Fatalf("expected ready translator health, got %+v", health)
	}

	missingKey := testsupport.NewConfig(t, testsupport.WithAPIKey(""))
	handler = translation.NewStageWithDependencies(missingKey, store, logging.NewNop(), &scriptedTranslator{}, &recordingNotifier{})
	if health := handler.HealthCheck(context.Background()); health.Ready || !strings.Contains(health.Detail, "api_key") {
		t.Fatalf("expected api key failure, got %+v", health)
	}

	handler = translation.NewStageWithDependencies(cfg, store, logging.NewNop(), nil, &recordingNotifier{})
	if health := handler.HealthCheck(context.Background()); health.Ready || !strings.Contains(health.Detail, "backend") {
		t.Fatalf("expected backend failure, got %+v", health)
	}
}
