package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"subweave/internal/config"
	"subweave/internal/fileutil"
	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/notifications"
	"subweave/internal/queue"
	"subweave/internal/services"
	"subweave/internal/services/ffmpeg"
	"subweave/internal/services/ytdlp"
	"subweave/internal/stage"
	"subweave/internal/staging"
)

// Fetcher manages the fetch stage: it turns a queue item's source into a
// local media file plus metadata.
type Fetcher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   ytdlp.Downloader
	prober   ffmpeg.Prober
	notifier notifications.Service
}

// NewFetcher constructs the fetch handler using default dependencies.
func NewFetcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Fetcher {
	client, err := ytdlp.New(cfg.DownloaderBinary(), ytdlp.Config{
		Format:         cfg.Downloader.Format,
		OutputTemplate: cfg.Downloader.OutputTemplate,
		CookiesFile:    cfg.Downloader.CookiesFile,
		SubtitleLangs:  language.ToISO2(cfg.Translation.SourceLanguage),
		TimeoutSeconds: cfg.Downloader.TimeoutSeconds,
	})
	if err != nil {
		logger.Warn("yt-dlp client unavailable", logging.Error(err))
	}
	prober := ffmpeg.NewCLI(cfg.FFmpegBinary(), cfg.FFprobeBinary(), ffmpeg.Config{})
	return NewFetcherWithDependencies(cfg, store, logger, client, prober, notifications.NewService(cfg))
}

// NewFetcherWithDependencies allows injecting all collaborators (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ytdlp.Downloader, prober ffmpeg.Prober, notifier notifications.Service) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "fetcher"))
	}
	return &Fetcher{store: store, cfg: cfg, logger: stageLogger, client: client, prober: prober, notifier: notifier}
}

// SetLogger lets the workflow manager route fetch logs into the item-scoped log.
func (f *Fetcher) SetLogger(logger *slog.Logger) {
	if f == nil {
		return
	}
	f.logger = logging.NewComponentLogger(logger, "fetcher")
}

func (f *Fetcher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Fetching"
	}
	item.ProgressMessage = "Starting fetch"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting fetch preparation",
		logging.String("source", strings.TrimSpace(item.Source)),
		logging.String("title", strings.TrimSpace(item.Title)),
	)
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	source := strings.TrimSpace(item.Source)
	if source == "" {
		return services.Wrap(
			services.ErrValidation,
			"fetch",
			"resolve source",
			"Queue item has no source; remove it and re-add with a URL or file path",
			nil,
		)
	}

	if isLocalFile(source) {
		return f.ingestLocal(ctx, item, source)
	}

	if f.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"fetch",
			"downloader unavailable",
			"yt-dlp client not configured; check that yt-dlp is installed",
			nil,
		)
	}

	logger.Info("probing source metadata", logging.String("source", source))
	meta, err := f.client.Probe(ctx, source)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"fetch",
			"probe source",
			"yt-dlp metadata probe failed; verify the URL is reachable",
			err,
		)
	}
	if title := strings.TrimSpace(meta.Title); title != "" {
		item.Title = title
	}
	item.MediaDurationSeconds = meta.DurationSeconds
	if err := f.attachMetadata(item, meta, source); err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "encode metadata", "Failed to encode source metadata", err)
	}

	workspace := staging.ItemWorkspace(f.cfg.Paths.StagingDir, item.ID, item.Title)
	if err := workspace.Ensure(); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"fetch",
			"ensure workspace",
			"Failed to create staging workspace; set staging_dir to a writable location",
			err,
		)
	}

	progressCB := func(update ytdlp.ProgressUpdate) {
		f.applyProgress(ctx, item, update)
	}
	logger.Info(
		"starting download",
		logging.String("title", item.Title),
		logging.String("workspace", workspace.Root),
	)
	result, err := f.client.Download(ctx, source, workspace.Root, progressCB)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"fetch",
			"download media",
			"yt-dlp download failed; check source availability and cookies_file",
			err,
		)
	}
	item.MediaFile = result.MediaPath
	if result.SubtitlePath != "" {
		logger.Info("source provided subtitle sidecar", logging.String("subtitle_file", result.SubtitlePath))
	}
	if item.MediaDurationSeconds <= 0 {
		item.MediaDurationSeconds = f.probeDuration(ctx, result.MediaPath)
	}

	f.finish(ctx, item)
	logger.Info(
		"fetch completed",
		logging.String("media_file", item.MediaFile),
		logging.Float64("duration_seconds", item.MediaDurationSeconds),
	)
	return nil
}

// ingestLocal copies an already-downloaded file into the staging workspace so
// later stages can treat every item uniformly.
func (f *Fetcher) ingestLocal(ctx context.Context, item *queue.Item, source string) error {
	logger := logging.WithContext(ctx, f.logger)
	if strings.TrimSpace(item.Title) == "" {
		base := filepath.Base(source)
		item.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	workspace := staging.ItemWorkspace(f.cfg.Paths.StagingDir, item.ID, item.Title)
	if err := workspace.Ensure(); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"fetch",
			"ensure workspace",
			"Failed to create staging workspace; set staging_dir to a writable location",
			err,
		)
	}

	target := filepath.Join(workspace.Root, filepath.Base(source))
	logger.Info("copying local media into workspace", logging.String("source", source), logging.String("target", target))
	if err := fileutil.CopyFileVerified(source, target); err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "copy local media", "Failed to copy source file into staging", err)
	}
	item.MediaFile = target
	item.MediaDurationSeconds = f.probeDuration(ctx, target)
	if strings.TrimSpace(item.MetadataJSON) == "" {
		meta := queue.NewBasicMetadata(item.Title, source)
		meta.DurationSeconds = item.MediaDurationSeconds
		if encoded, err := json.Marshal(meta); err == nil {
			item.MetadataJSON = string(encoded)
		}
	}

	f.finish(ctx, item)
	logger.Info(
		"local media ingested",
		logging.String("media_file", item.MediaFile),
		logging.Float64("duration_seconds", item.MediaDurationSeconds),
	)
	return nil
}

func (f *Fetcher) attachMetadata(item *queue.Item, meta ytdlp.Metadata, source string) error {
	sourceURL := strings.TrimSpace(meta.WebpageURL)
	if sourceURL == "" {
		sourceURL = source
	}
	record := queue.Metadata{
		TitleValue:      item.Title,
		Channel:         meta.Channel,
		SourceURL:       sourceURL,
		UploadDate:      meta.UploadDate,
		DurationSeconds: meta.DurationSeconds,
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	item.MetadataJSON = string(encoded)
	return nil
}

func (f *Fetcher) probeDuration(ctx context.Context, mediaPath string) float64 {
	if f.prober == nil {
		return 0
	}
	result, err := f.prober.Inspect(ctx, mediaPath)
	if err != nil {
		logging.WithContext(ctx, f.logger).Warn("media duration probe failed", logging.Error(err))
		return 0
	}
	return result.DurationSeconds()
}

func (f *Fetcher) finish(ctx context.Context, item *queue.Item) {
	logger := logging.WithContext(ctx, f.logger)
	item.ProgressStage = "Fetched"
	item.ProgressPercent = 100
	item.ProgressMessage = "Media downloaded"
	if f.notifier != nil {
		if err := f.notifier.Publish(ctx, notifications.EventFetchCompleted, notifications.Payload{"title": item.Title}); err != nil {
			logger.Warn("fetch completion notification failed", logging.Error(err))
		}
	}
}

// HealthCheck verifies download stage dependencies.
func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "fetcher"
	if f.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(f.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if f.client == nil {
		return stage.Unhealthy(name, "downloader client unavailable")
	}
	binary := strings.TrimSpace(f.cfg.DownloaderBinary())
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("downloader binary %q not found", binary))
	}
	return stage.Healthy(name)
}

func (f *Fetcher) applyProgress(ctx context.Context, item *queue.Item, update ytdlp.ProgressUpdate) {
	logger := logging.WithContext(ctx, f.logger)
	copy := *item
	if update.Stage != "" {
		copy.ProgressStage = update.Stage
	}
	if update.Percent >= 0 {
		copy.ProgressPercent = update.Percent
	}
	if update.Message != "" {
		copy.ProgressMessage = update.Message
	}
	if err := f.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}

func isLocalFile(source string) bool {
	if strings.Contains(source, "://") {
		return false
	}
	info, err := os.Stat(source)
	return err == nil && info.Mode().IsRegular()
}
