package organizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"subweave/internal/config"
	"subweave/internal/fileutil"
	"subweave/internal/logging"
	"subweave/internal/notifications"
	"subweave/internal/queue"
	"subweave/internal/services"
	"subweave/internal/stage"
	"subweave/internal/staging"
)

// titleCaser capitalizes word-initial letters without lowering the rest, so
// acronyms and CJK titles survive untouched.
var titleCaser = cases.Title(language.English, cases.NoLower)

// Organizer moves finished items into the library directory.
type Organizer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewOrganizer constructs the organizer stage handler using default dependencies.
func NewOrganizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Organizer {
	return NewOrganizerWithDependencies(cfg, store, logger, notifications.NewService(cfg))
}

// NewOrganizerWithDependencies allows injecting collaborators (used in tests).
func NewOrganizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Organizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "organizer"))
	}
	return &Organizer{store: store, cfg: cfg, logger: stageLogger, notifier: notifier}
}

// SetLogger lets the workflow manager route organize logs into the item-scoped log.
func (o *Organizer) SetLogger(logger *slog.Logger) {
	if o == nil {
		return
	}
	o.logger = logging.NewComponentLogger(logger, "organizer")
}

func (o *Organizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Organizing"
	}
	item.ProgressMessage = "Preparing library placement"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting organization preparation",
		logging.String("title", strings.TrimSpace(item.Title)),
		logging.String("rendered_file", strings.TrimSpace(item.RenderedFile)),
	)
	return nil
}

func (o *Organizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	rendered := strings.TrimSpace(item.RenderedFile)
	if rendered == "" {
		return services.Wrap(
			services.ErrValidation,
			"organize",
			"locate rendered video",
			"Queue item has no rendered video; retry the item to re-run rendering",
			nil,
		)
	}
	if _, err := os.Stat(rendered); err != nil {
		return services.Wrap(
			services.ErrValidation,
			"organize",
			"locate rendered video",
			"Rendered video is missing from staging; retry the item to re-run rendering",
			err,
		)
	}

	meta, err := o.resolveMetadata(ctx, item, rendered)
	if err != nil {
		return err
	}

	o.updateProgress(ctx, item, "Resolving library destination", 20)
	destDir := meta.GetLibraryPath(o.cfg.Paths.LibraryDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "organize", "ensure library dir", "Failed to create the library directory; check library_dir permissions", err)
	}

	name := libraryFilename(meta)
	ext := filepath.Ext(rendered)
	if ext == "" {
		ext = ".mp4"
	}
	target := filepath.Join(destDir, name+ext)
	if !o.cfg.Library.OverwriteExisting {
		target, err = uniquePath(destDir, name, ext)
		if err != nil {
			return services.Wrap(services.ErrTransient, "organize", "allocate library filename", "Unable to allocate a free library filename", err)
		}
	}

	o.updateProgress(ctx, item, "Moving into library", 50)
	if err := fileutil.MoveFile(rendered, target); err != nil {
		return services.Wrap(
			services.ErrTransient,
			"organize",
			"move to library",
			"Failed to move the rendered video into the library; check library_dir permissions and free space",
			err,
		)
	}
	item.FinalFile = target
	logger.Info("library move completed", logging.String("final_file", target))

	if o.cfg.Library.CopySubtitles {
		o.updateProgress(ctx, item, "Copying subtitle artifacts", 80)
		o.copySubtitles(ctx, item, strings.TrimSuffix(target, ext))
	}

	o.cleanupWorkspace(ctx, item)

	item.ProgressStage = "Completed"
	item.ProgressPercent = 100
	item.ProgressMessage = fmt.Sprintf("Available in library: %s", filepath.Base(target))
	if o.notifier != nil {
		title := strings.TrimSpace(meta.Title())
		if title == "" {
			title = filepath.Base(target)
		}
		payload := notifications.Payload{"title": title, "finalFile": filepath.Base(target)}
		if err := o.notifier.Publish(ctx, notifications.EventProcessingCompleted, payload); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	logger.Info("organization completed", logging.String("final_file", target))
	return nil
}

// resolveMetadata loads the stored metadata, falling back to filename
// inference for items that never got a downloader probe.
func (o *Organizer) resolveMetadata(ctx context.Context, item *queue.Item, rendered string) (queue.Metadata, error) {
	meta := queue.MetadataFromJSON(item.MetadataJSON, item.Title)
	if strings.TrimSpace(item.MetadataJSON) != "" && strings.TrimSpace(meta.Title()) != "" {
		return meta, nil
	}
	fallback := strings.TrimSpace(item.Title)
	if fallback == "" {
		base := filepath.Base(rendered)
		fallback = strings.TrimSuffix(base, filepath.Ext(base))
		fallback = strings.TrimSuffix(fallback, "_hardsub")
	}
	basic := queue.NewBasicMetadata(fallback, item.Source)
	encoded, err := json.Marshal(basic)
	if err != nil {
		return queue.Metadata{}, services.Wrap(services.ErrTransient, "organize", "encode metadata", "Failed to encode fallback metadata", err)
	}
	item.MetadataJSON = string(encoded)
	if err := o.store.Update(ctx, item); err != nil {
		o.logger.Warn("failed to persist fallback metadata", logging.Error(err))
	}
	return basic, nil
}

// copySubtitles places the SRT and ASS artifacts next to the final video so
// players can pick the soft variants over the burned track. Failures are
// logged, not fatal: the video itself already landed.
func (o *Organizer) copySubtitles(ctx context.Context, item *queue.Item, stem string) {
	logger := logging.WithContext(ctx, o.logger)
	for _, artifact := range []string{item.TranslatedFile, item.BilingualFile, item.SubtitleFile} {
		artifact = strings.TrimSpace(artifact)
		if artifact == "" {
			continue
		}
		if _, err := os.Stat(artifact); err != nil {
			continue
		}
		dst := stem + artifactSuffix(artifact, item.MediaFile)
		if err := fileutil.CopyFile(artifact, dst); err != nil {
			logger.Warn("subtitle copy failed", logging.String("artifact", artifact), logging.Error(err))
			continue
		}
		logger.Info("subtitle artifact copied", logging.String("destination", dst))
	}
}

// artifactSuffix recovers the artifact's suffix chain relative to the media
// base, so lecture.zh.srt keeps .zh.srt on its library copy.
func artifactSuffix(artifact, mediaPath string) string {
	base := filepath.Base(artifact)
	if mediaPath != "" {
		mediaName := filepath.Base(mediaPath)
		stem := strings.TrimSuffix(mediaName, filepath.Ext(mediaName))
		if stem != "" && strings.HasPrefix(base, stem+".") {
			return strings.TrimPrefix(base, stem)
		}
	}
	return filepath.Ext(artifact)
}

// cleanupWorkspace removes the item's staging directory after everything worth
// keeping has been copied out. Only directories following the queue-{id}
// naming convention inside the configured staging root are touched.
func (o *Organizer) cleanupWorkspace(ctx context.Context, item *queue.Item) {
	logger := logging.WithContext(ctx, o.logger)
	media := strings.TrimSpace(item.MediaFile)
	if media == "" {
		return
	}
	root := filepath.Dir(media)
	if filepath.Dir(root) != filepath.Clean(strings.TrimSpace(o.cfg.Paths.StagingDir)) {
		return
	}
	if _, ok := staging.ParseQueueDirID(filepath.Base(root)); !ok {
		return
	}
	if err := staging.NewWorkspace(root).Remove(); err != nil {
		logger.Warn("failed to remove staging workspace", logging.String("workspace", root), logging.Error(err))
		return
	}
	logger.Info("staging workspace removed", logging.String("workspace", root))
}

func libraryFilename(meta queue.Metadata) string {
	name := queue.SanitizeFilename(meta.GetFilename())
	if name == "" {
		name = "Untitled"
	}
	return titleCaser.String(name)
}

// uniquePath returns the first free "<name>.ext", "<name> (2).ext", ... slot.
func uniquePath(dir, name, ext string) (string, error) {
	const maxAttempts = 1000
	for n := 1; n <= maxAttempts; n++ {
		candidateName := name + ext
		if n > 1 {
			candidateName = fmt.Sprintf("%s (%d)%s", name, n, ext)
		}
		candidate := filepath.Join(dir, candidateName)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted library filename slots for %q in %s", name, dir)
}

func (o *Organizer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, o.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := o.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist organizer progress", logging.Error(err))
		return
	}
	*item = copy
}

// HealthCheck verifies organizer prerequisites.
func (o *Organizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "organizer"
	if o.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(o.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	return stage.Healthy(name)
}
