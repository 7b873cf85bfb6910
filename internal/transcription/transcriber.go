package transcription

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"subweave/internal/config"
	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/notifications"
	"subweave/internal/queue"
	"subweave/internal/services"
	"subweave/internal/services/whisper"
	"subweave/internal/stage"
	"subweave/internal/subtitles"
)

// Reuse thresholds for transcripts found in the workspace. A file below the
// byte floor is treated as a stub from an aborted run; a file that does not
// span most of the media is treated as partial.
const (
	minReusableTranscriptBytes = 500
	reuseCoverageRatio         = 0.9
)

// Transcriber manages the transcribe stage.
type Transcriber struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   whisper.Transcriber
	notifier notifications.Service
}

// NewTranscriber constructs the transcribe handler using default dependencies.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	client := whisper.NewService(cfg.TranscriberBinary(), whisper.Config{
		Model:          cfg.Transcriber.Model,
		Language:       cfg.Transcriber.Language,
		CUDAEnabled:    cfg.Transcriber.CUDAEnabled,
		TimeoutSeconds: cfg.Transcriber.TimeoutSeconds,
	})
	return NewTranscriberWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewTranscriberWithDependencies allows injecting all collaborators (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client whisper.Transcriber, notifier notifications.Service) *Transcriber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "transcriber"))
	}
	return &Transcriber{store: store, cfg: cfg, logger: stageLogger, client: client, notifier: notifier}
}

// SetLogger lets the workflow manager route transcription logs into the item-scoped log.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	if t == nil {
		return
	}
	t.logger = logging.NewComponentLogger(logger, "transcriber")
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Transcribing"
	}
	item.ProgressMessage = "Starting transcription"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting transcription preparation",
		logging.String("title", strings.TrimSpace(item.Title)),
		logging.String("media_file", strings.TrimSpace(item.MediaFile)),
	)
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	media := strings.TrimSpace(item.MediaFile)
	if media == "" {
		return services.Wrap(
			services.ErrValidation,
			"transcribe",
			"locate media",
			"Queue item has no fetched media; retry the item to re-run fetch",
			nil,
		)
	}
	if _, err := os.Stat(media); err != nil {
		return services.Wrap(
			services.ErrValidation,
			"transcribe",
			"locate media",
			"Fetched media file is missing; retry the item to re-run fetch",
			err,
		)
	}

	if existing := t.reusableTranscript(item, media); existing != "" {
		logger.Info("reusing existing transcript", logging.String("transcript_file", existing))
		item.TranscriptFile = existing
		t.finish(ctx, item, "Existing transcript reused")
		return nil
	}

	if t.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"transcribe",
			"transcriber unavailable",
			"whisper client not configured; check that whisper is installed",
			nil,
		)
	}

	logger.Info(
		"launching whisper transcription",
		logging.String("media_file", media),
		logging.String("model", t.cfg.Transcriber.Model),
	)
	transcript, err := t.client.Transcribe(ctx, media, filepath.Dir(media))
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"transcribe",
			"whisper transcription",
			"Whisper transcription failed; check model availability and GPU drivers",
			err,
		)
	}

	issues := subtitles.ValidateSRTContent(transcript, item.MediaDurationSeconds)
	for _, issue := range issues {
		if issue == "empty_subtitle_file" {
			return services.Wrap(
				services.ErrExternalTool,
				"transcribe",
				"validate transcript",
				"Whisper produced an empty transcript; the media may have no speech",
				nil,
			)
		}
		logger.Warn("transcript validation issue", logging.String("issue", issue))
	}

	item.TranscriptFile = transcript
	t.finish(ctx, item, "Transcript ready")
	logger.Info("transcription completed", logging.String("transcript_file", transcript))
	return nil
}

// reusableTranscript looks for a transcript from an earlier run or a caption
// sidecar saved by the downloader, in that order.
func (t *Transcriber) reusableTranscript(item *queue.Item, media string) string {
	base := strings.TrimSuffix(media, filepath.Ext(media))
	candidates := []string{base + ".srt"}
	if iso := language.ToISO2(t.cfg.Translation.SourceLanguage); iso != "" {
		candidates = append(candidates, base+"."+iso+".srt")
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.Size() <= minReusableTranscriptBytes {
			continue
		}
		if !subtitles.CoversDuration(path, item.MediaDurationSeconds, reuseCoverageRatio) {
			continue
		}
		return path
	}
	return ""
}

func (t *Transcriber) finish(ctx context.Context, item *queue.Item, message string) {
	logger := logging.WithContext(ctx, t.logger)
	item.ProgressStage = "Transcribed"
	item.ProgressPercent = 100
	item.ProgressMessage = message
	if t.notifier != nil {
		if err := t.notifier.Publish(ctx, notifications.EventTranscriptionCompleted, notifications.Payload{"title": item.Title}); err != nil {
			logger.Warn("transcription completion notification failed", logging.Error(err))
		}
	}
}

// HealthCheck verifies transcription stage dependencies.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if t.client == nil {
		return stage.Unhealthy(name, "whisper client unavailable")
	}
	binary := strings.TrimSpace(t.cfg.TranscriberBinary())
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("transcriber binary %q not found", binary))
	}
	return stage.Healthy(name)
}
