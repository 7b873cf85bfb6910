package rendering

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/notifications"
	"subweave/internal/queue"
	"subweave/internal/services"
	"subweave/internal/services/ffmpeg"
	"subweave/internal/stage"
	"subweave/internal/staging"
	"subweave/internal/subtitles"
)

// Renderer handles the render stage of the queue pipeline.
type Renderer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	burner   ffmpeg.Burner
	prober   ffmpeg.Prober
	notifier notifications.Service
}

// NewRenderer constructs the render handler backed by the ffmpeg CLI.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	cli := ffmpeg.NewCLI(cfg.FFmpegBinary(), cfg.FFprobeBinary(), ffmpeg.Config{
		VideoCodec:     cfg.Render.VideoCodec,
		CRF:            cfg.Render.CRF,
		Preset:         cfg.Render.Preset,
		TimeoutSeconds: cfg.Render.TimeoutSeconds,
	})
	return NewRendererWithDependencies(cfg, store, logger, cli, cli, notifications.NewService(cfg))
}

// NewRendererWithDependencies allows injecting all collaborators (used in tests).
func NewRendererWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, burner ffmpeg.Burner, prober ffmpeg.Prober, notifier notifications.Service) *Renderer {
	rendererLogger := logger
	if rendererLogger != nil {
		rendererLogger = rendererLogger.With(logging.String("component", "renderer"))
	}
	return &Renderer{store: store, cfg: cfg, logger: rendererLogger, burner: burner, prober: prober, notifier: notifier}
}

// SetLogger lets the workflow manager route render logs into the item-scoped log.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if r == nil {
		return
	}
	r.logger = logging.NewComponentLogger(logger, "renderer")
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Rendering"
	}
	item.ProgressMessage = "Starting render"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting render preparation",
		logging.String("title", strings.TrimSpace(item.Title)),
		logging.String("translated_file", strings.TrimSpace(item.TranslatedFile)),
	)
	return nil
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	media := strings.TrimSpace(item.MediaFile)
	if media == "" {
		return services.Wrap(
			services.ErrValidation,
			"render",
			"locate media",
			"Queue item has no fetched media; retry the item to re-run fetch",
			nil,
		)
	}
	if _, err := os.Stat(media); err != nil {
		return services.Wrap(
			services.ErrValidation,
			"render",
			"locate media",
			"Fetched media file is missing from staging; retry the item to re-run fetch",
			err,
		)
	}

	track, err := r.composeTrack(item)
	if err != nil {
		return err
	}

	profile := r.resolveProfile(ctx, media)
	workspace := staging.NewWorkspace(filepath.Dir(media))
	subtitlePath := workspace.SubtitlePath(media)
	if err := os.WriteFile(subtitlePath, subtitles.RenderASS(track, profile), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "render", "write subtitle track", "Failed to write the ASS subtitle track", err)
	}
	item.SubtitleFile = subtitlePath
	logger.Info(
		"subtitle track written",
		logging.String("subtitle_file", subtitlePath),
		logging.String("layout", string(track.Layout)),
		logging.Int("events", len(track.Blocks)),
	)

	if r.burner == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"render",
			"burner unavailable",
			"ffmpeg client not configured; check ffmpeg_binary",
			nil,
		)
	}
	outputPath := workspace.RenderedPath(media)
	progressCB := func(update ffmpeg.ProgressUpdate) {
		r.applyProgress(ctx, item, update)
	}
	if err := r.burner.Burn(ctx, media, subtitlePath, outputPath, item.MediaDurationSeconds, progressCB); err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"render",
			"burn subtitles",
			"ffmpeg failed to render the hardsub; check codec support and disk space",
			err,
		)
	}
	item.RenderedFile = outputPath

	item.ProgressStage = "Rendered"
	item.ProgressPercent = 100
	item.ProgressMessage = "Hardsub ready"
	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, notifications.EventRenderCompleted, notifications.Payload{"title": item.Title}); err != nil {
			logger.Warn("render completion notification failed", logging.Error(err))
		}
	}
	logger.Info("render completed", logging.String("rendered_file", outputPath))
	return nil
}

// composeTrack loads the transcripts the configured layout needs and aligns
// them into a presentation track.
func (r *Renderer) composeTrack(item *queue.Item) (*subtitles.PresentationTrack, error) {
	layout := r.cfg.Layout()

	var translated, source *subtitles.Transcript
	var err error
	if layout != subtitles.LayoutSecondaryOnly {
		path := strings.TrimSpace(item.TranslatedFile)
		if path == "" {
			return nil, services.Wrap(
				services.ErrValidation,
				"render",
				"locate translation",
				"Queue item has no translated subtitles; retry the item to re-run translation",
				nil,
			)
		}
		translated, err = stage.LoadTranscript(path, "render", "Retry the item to re-run translation")
		if err != nil {
			return nil, err
		}
	}
	if layout != subtitles.LayoutPrimaryOnly {
		path := strings.TrimSpace(item.TranscriptFile)
		if path == "" {
			return nil, services.Wrap(
				services.ErrValidation,
				"render",
				"locate transcript",
				"Queue item has no transcript; retry the item to re-run transcription",
				nil,
			)
		}
		source, err = stage.LoadTranscript(path, "render", "Retry the item to re-run transcription")
		if err != nil {
			return nil, err
		}
	}

	track, err := subtitles.Compose(translated, source, layout)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation,
			"render",
			"compose track",
			"Translated and original subtitles are misaligned; retry the item to rebuild them",
			err,
		)
	}
	return track, nil
}

// resolveProfile returns the configured style profile with PlayRes matched to
// the actual video geometry so margins and font sizes land where intended.
func (r *Renderer) resolveProfile(ctx context.Context, media string) subtitles.StyleProfile {
	logger := logging.WithContext(ctx, r.logger)
	profile := r.cfg.StyleProfile()
	if r.prober == nil {
		return profile
	}
	result, err := r.prober.Inspect(ctx, media)
	if err != nil {
		logger.Warn("probe failed, keeping configured play resolution", logging.Error(err))
		return profile
	}
	if width, height := result.VideoDimensions(); width > 0 && height > 0 {
		profile.PlayResX = width
		profile.PlayResY = height
	}
	return profile
}

func (r *Renderer) applyProgress(ctx context.Context, item *queue.Item, update ffmpeg.ProgressUpdate) {
	logger := logging.WithContext(ctx, r.logger)
	copy := *item
	if update.Stage != "" {
		copy.ProgressStage = update.Stage
	}
	if update.Percent > 0 {
		copy.ProgressPercent = update.Percent
	}
	if update.Message != "" {
		copy.ProgressMessage = update.Message
	}
	if err := r.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}

// HealthCheck verifies render stage dependencies.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "renderer"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if r.burner == nil {
		return stage.Unhealthy(name, "ffmpeg client unavailable")
	}
	if _, err := exec.LookPath(r.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", r.cfg.FFmpegBinary()))
	}
	if _, err := exec.LookPath(r.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffprobe binary %q not found", r.cfg.FFprobeBinary()))
	}
	return stage.Healthy(name)
}
