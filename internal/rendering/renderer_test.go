package rendering_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subweave/internal/logging"
	"subweave/internal/notifications"
	"subweave/internal/queue"
	"subweave/internal/rendering"
	"subweave/internal/services"
	"subweave/internal/services/ffmpeg"
	"subweave/internal/testsupport"
)

type stubBurner struct {
	err      error
	calls    int
	media    string
	subtitle string
	output   string
	duration float64
}

func (s *stubBurner) Burn(ctx context.Context, mediaPath, subtitlePath, outputPath string, durationSeconds float64, progress func(ffmpeg.ProgressUpdate)) error {
	s.calls++
	s.media, s.subtitle, s.output, s.duration = mediaPath, subtitlePath, outputPath, durationSeconds
	if s.err != nil {
		return s.err
	}
	if progress != nil {
		progress(ffmpeg.ProgressUpdate{Stage: "Rendering", Percent: 55.5, Message: "00:00:33 of 00:01:00 at 2.1x"})
	}
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

type stubProber struct {
	width  int
	height int
	err    error
}

func (s *stubProber) Inspect(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	if s.err != nil {
		return ffmpeg.ProbeResult{}, s.err
	}
	return ffmpeg.ProbeResult{Streams: []ffmpeg.Stream{{CodecType: "video", Width: s.width, Height: s.height}}}, nil
}

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	return nil
}

func newTranslatedItem(t *testing.T, store *queue.Store, workspace string) (*queue.Item, string) {
	t.Helper()
	item := testsupport.NewSource(t, store, "https://example.com/v", "Lecture")
	media := filepath.Join(workspace, "lecture.mp4")
	testsupport.WriteFile(t, media, 1024)
	base := strings.TrimSuffix(media, ".mp4")
	testsupport.WriteSRT(t, base+".srt", "hello there", "how are you")
	testsupport.WriteSRT(t, base+".zh.srt", "你好", "你咋样")
	item.Status = queue.StatusRendering
	item.MediaFile = media
	item.TranscriptFile = base + ".srt"
	item.TranslatedFile = base + ".zh.srt"
	item.MediaDurationSeconds = 60
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return item, media
}

func TestRendererBurnsSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, media := newTranslatedItem(t, store, workspace)

	burner := &stubBurner{}
	prober := &stubProber{width: 1280, height: 720}
	notifier := &recordingNotifier{}
	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), burner, prober, notifier)

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	base := strings.TrimSuffix(media, ".mp4")
	if want := base + ".ass"; item.SubtitleFile != want {
		t.Fatalf("subtitle file = %q, want %q", item.SubtitleFile, want)
	}
	doc, err := os.ReadFile(item.SubtitleFile)
	if err != nil {
		t.Fatalf("read subtitle track: %v", err)
	}
	content := string(doc)
	if !strings.Contains(content, "PlayResX: 1280") || !strings.Contains(content, "PlayResY: 720") {
		t.Fatalf("expected probed play resolution in track:\n%s", content)
	}
	if !strings.Contains(content, `你好\N{\rSecondary}hello there`) {
		t.Fatalf("expected bilingual dialogue in track:\n%s", content)
	}

	if want := base + "_hardsub.mp4"; item.RenderedFile != want {
		t.Fatalf("rendered file = %q, want %q", item.RenderedFile, want)
	}
	if _, err := os.Stat(item.RenderedFile); err != nil {
		t.Fatalf("expected rendered output on disk: %v", err)
	}
	if burner.duration != 60 {
		t.Fatalf("burn duration = %.0f, want 60", burner.duration)
	}

	// Encode progress persists as it streams in; the final state lands when
	// the workflow stores the item after Execute.
	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ProgressPercent != 55.5 || !strings.Contains(stored.ProgressMessage, "00:00:33") {
		t.Fatalf("unexpected persisted progress: %.1f %q", stored.ProgressPercent, stored.ProgressMessage)
	}
	if item.ProgressStage != "Rendered" || item.ProgressPercent != 100 {
		t.Fatalf("unexpected progress: %q %.0f", item.ProgressStage, item.ProgressPercent)
	}
	if len(notifier.events) == 0 || notifier.events[0] != notifications.EventRenderCompleted {
		t.Fatalf("expected render notification, got %v", notifier.events)
	}
}

func TestRendererKeepsConfiguredPlayResWhenProbeFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, _ := newTranslatedItem(t, store, workspace)

	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubBurner{}, &stubProber{err: errors.New("probe boom")}, &recordingNotifier{})

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	doc, err := os.ReadFile(item.SubtitleFile)
	if err != nil {
		t.Fatalf("read subtitle track: %v", err)
	}
	if !strings.Contains(string(doc), "PlayResX: 1920") {
		t.Fatalf("expected configured play resolution, got:\n%s", doc)
	}
}

func TestRendererPrimaryOnlyLayout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Style.Layout = "primary_only"
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, _ := newTranslatedItem(t, store, workspace)
	// The original transcript is not consulted for this layout.
	item.TranscriptFile = ""

	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubBurner{}, &stubProber{width: 1920, height: 1080}, &recordingNotifier{})

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	doc, err := os.ReadFile(item.SubtitleFile)
	if err != nil {
		t.Fatalf("read subtitle track: %v", err)
	}
	content := string(doc)
	if !strings.Contains(content, "你好") {
		t.Fatalf("expected translated text in track:\n%s", content)
	}
	if strings.Contains(content, "hello there") {
		t.Fatalf("expected no original text in primary_only track:\n%s", content)
	}
}

func TestRendererRejectsMisalignedTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, media := newTranslatedItem(t, store, workspace)
	testsupport.WriteSRT(t, strings.TrimSuffix(media, ".mp4")+".zh.srt", "你好", "你咋样", "多出来的")

	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubBurner{}, &stubProber{}, &recordingNotifier{})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "compose track") {
		t.Fatalf("expected compose operation in error, got %v", err)
	}
}

func TestRendererRequiresMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewSource(t, store, "https://example.com/v", "Lecture")

	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubBurner{}, &stubProber{}, &recordingNotifier{})

	if err := handler.Execute(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRendererWrapsBurnErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	workspace := filepath.Join(cfg.Paths.StagingDir, "queue-1-lecture")
	item, _ := newTranslatedItem(t, store, workspace)

	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubBurner{err: errors.New("encode boom")}, &stubProber{}, &recordingNotifier{})

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "burn subtitles") {
		t.Fatalf("expected burn operation in error, got %v", err)
	}
}

func TestRendererHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	handler := rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), &stubBurner{}, &stubProber{}, &recordingNotifier{})
	if health := handler.HealthCheck(context.Background()); !health.Ready || health.Name != "renderer" {
		t.Fatalf("expected ready renderer health, got %+v", health)
	}

	handler = rendering.NewRendererWithDependencies(cfg, store, logging.NewNop(), nil, &stubProber{}, &recordingNotifier{})
	if health := handler.HealthCheck(context.Background()); health.Ready || !strings.Contains(health.Detail, "ffmpeg client") {
		t.Fatalf("expected burner failure, got %+v", health)
	}
}
