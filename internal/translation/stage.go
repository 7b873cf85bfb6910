package translation

import (
	"context"
	"errors"
	"fmt"
	"os"
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
	"subweave/internal/services/llm"
	"subweave/internal/stage"
	"subweave/internal/staging"
	"subweave/internal/subtitles"
)

// reuseFilledRatio is the reuse threshold for a translated SRT left by an
// earlier run: when at least this share of non-empty blocks carries
// target-language text, the file is accepted without another engine run.
const reuseFilledRatio = 0.95

// Stage adapts the translation engine to the queue pipeline contract. It owns
// artifact placement and reuse; the engine owns the chunked run itself.
type Stage struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	translator Translator
	notifier   notifications.Service
}

// NewStage constructs the translate handler using the hosted backend from the
// configured LLM settings.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Stage {
	llmCfg := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
	return NewStageWithDependencies(cfg, store, logger, NewHostedTranslator(client, logger), notifications.NewService(cfg))
}

// NewStageWithDependencies allows injecting all collaborators (used in tests).
func NewStageWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, translator Translator, notifier notifications.Service) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "translator"))
	}
	return &Stage{store: store, cfg: cfg, logger: stageLogger, translator: translator, notifier: notifier}
}

// SetLogger lets the workflow manager route translation logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "translator")
}

func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Translating"
	}
	item.ProgressMessage = "Starting translation"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting translation preparation",
		logging.String("title", strings.TrimSpace(item.Title)),
		logging.String("transcript_file", strings.TrimSpace(item.TranscriptFile)),
	)
	return nil
}

func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	transcriptPath := strings.TrimSpace(item.TranscriptFile)
	if transcriptPath == "" {
		return services.Wrap(
			services.ErrValidation,
			"translate",
			"locate transcript",
			"Queue item has no transcript; retry the item to re-run transcription",
			nil,
		)
	}
	source, err := stage.LoadTranscript(transcriptPath, "translate", "Retry the item to re-run transcription")
	if err != nil {
		return err
	}

	// A retried review item starts clean; flagForReview re-marks it if the
	// rerun still leaves untranslated blocks.
	item.NeedsReview = false
	item.ReviewReason = ""

	target := strings.TrimSpace(item.TargetLanguage)
	if target == "" {
		target = s.cfg.Translation.TargetLanguage
	}
	targetCJK := language.IsCJK(target)

	// Artifact names anchor on the media file so every stage resolves the
	// same paths; transcript-only items (one-shot imports) anchor on the SRT.
	anchor := strings.TrimSpace(item.MediaFile)
	if anchor == "" {
		anchor = transcriptPath
	}
	workspace := staging.NewWorkspace(filepath.Dir(anchor))
	translatedPath := workspace.TranslatedPath(anchor, language.ToISO2(target))
	bilingualPath := workspace.BilingualPath(anchor)

	translated := s.reusableTranslation(translatedPath, source, targetCJK)
	reused := translated != nil
	if reused {
		logger.Info("reusing existing translation", logging.String("translated_file", translatedPath))
		s.applyProgress(ctx, item, 90, "Existing translation reused")
	} else {
		result, err := s.runEngine(ctx, item, source, target)
		if err != nil {
			return err
		}
		translated = result.Transcript
		if err := translated.WriteFile(translatedPath); err != nil {
			return services.Wrap(services.ErrTransient, "translate", "write translated srt", "Failed to write translated transcript", err)
		}
		logger.Info(
			"translation run finished",
			logging.Int("chunks", result.Chunks),
			logging.Int("repair_passes", result.RepairPasses),
			logging.Int("untranslated", len(result.Untranslated)),
		)
		if len(result.Untranslated) > 0 {
			item.TranslatedFile = translatedPath
			s.flagForReview(ctx, item, result.Untranslated, translatedPath)
			return nil
		}
	}
	item.TranslatedFile = translatedPath

	// A bilingual file from an earlier run is only trusted when the
	// translation it was composed from was itself reused.
	if !reused || !s.reusableBilingual(bilingualPath, source) {
		bilingual := composeBilingual(translated, source)
		if err := bilingual.WriteFile(bilingualPath); err != nil {
			return services.Wrap(services.ErrTransient, "translate", "write bilingual srt", "Failed to write bilingual transcript", err)
		}
	} else {
		logger.Info("reusing existing bilingual transcript", logging.String("bilingual_file", bilingualPath))
	}
	item.BilingualFile = bilingualPath

	item.ProgressStage = "Translated"
	item.ProgressPercent = 100
	item.ProgressMessage = "Translation ready"
	if s.notifier != nil {
		payload := notifications.Payload{"title": item.Title, "language": language.DisplayName(target)}
		if err := s.notifier.Publish(ctx, notifications.EventTranslationCompleted, payload); err != nil {
			logger.Warn("translation completion notification failed", logging.Error(err))
		}
	}
	logger.Info(
		"translation completed",
		logging.String("translated_file", item.TranslatedFile),
		logging.String("bilingual_file", item.BilingualFile),
	)
	return nil
}

// runEngine builds the engine from config and runs it, mapping domain errors
// onto the stage error taxonomy.
func (s *Stage) runEngine(ctx context.Context, item *queue.Item, source *subtitles.Transcript, target string) (*Result, error) {
	if s.translator == nil {
		return nil, services.Wrap(
			services.ErrConfiguration,
			"translate",
			"backend unavailable",
			"LLM translator not configured; set llm.api_key",
			nil,
		)
	}
	persona, err := LoadPersona(s.cfg.Translation.PersonaFile)
	if err != nil {
		return nil, services.Wrap(
			services.ErrConfiguration,
			"translate",
			"load persona",
			"Persona rules failed to load; check translation.persona_file",
			err,
		)
	}
	engine, err := NewEngine(s.translator, Options{
		SourceLanguage:    s.cfg.Translation.SourceLanguage,
		TargetLanguage:    target,
		WindowSize:        s.cfg.Translation.WindowSize,
		Overlap:           s.cfg.Translation.ContextOverlap,
		Workers:           s.cfg.Translation.Workers,
		RequestsPerMinute: s.cfg.Translation.RequestsPerMinute,
		RepairPasses:      s.cfg.Translation.RepairPasses,
		Profile:           s.cfg.StyleProfile(),
		Persona:           persona,
	}, s.logger)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "build engine", "Translation engine construction failed", err)
	}

	s.applyProgress(ctx, item, 5, fmt.Sprintf("Translating %d blocks", source.BlockCount()))
	result, err := engine.Translate(ctx, source)
	if err != nil {
		var formatErr *subtitles.FormatError
		if errors.As(err, &formatErr) {
			return nil, services.Wrap(
				services.ErrValidation,
				"translate",
				"validate transcript",
				"Transcript failed validation; inspect the SRT and retry",
				err,
			)
		}
		return nil, services.Wrap(
			services.ErrExternalTool,
			"translate",
			"run engine",
			"Translation run failed; unresolved chunks are listed in the error",
			err,
		)
	}
	return result, nil
}

// reusableTranslation accepts a translated SRT from an earlier run when it
// aligns with the source and is filled beyond the reuse threshold.
func (s *Stage) reusableTranslation(path string, source *subtitles.Transcript, targetCJK bool) *subtitles.Transcript {
	existing, err := subtitles.ParseSRTFile(path)
	if err != nil {
		return nil
	}
	if existing.BlockCount() != source.BlockCount() {
		return nil
	}
	total, filled := 0, 0
	for i := range existing.Blocks {
		block := existing.Blocks[i]
		src := source.Blocks[i]
		if block.Start != src.Start || block.End != src.End {
			return nil
		}
		if src.Empty() {
			continue
		}
		total++
		if !block.Empty() && !Untranslated(block.Text(), targetCJK) {
			filled++
		}
	}
	if total == 0 || float64(filled)/float64(total) < reuseFilledRatio {
		return nil
	}
	return existing
}

// reusableBilingual accepts a bilingual SRT unless it is misaligned or still
// carries failure markers from an earlier aborted run.
func (s *Stage) reusableBilingual(path string, source *subtitles.Transcript) bool {
	existing, err := subtitles.ParseSRTFile(path)
	if err != nil {
		return false
	}
	if existing.BlockCount() != source.BlockCount() {
		return false
	}
	for _, block := range existing.Blocks {
		if HasFailureMarker(block.Text()) {
			return false
		}
	}
	return true
}

// composeBilingual stacks the original text under the translated text per
// cue, preserving timing.
func composeBilingual(translated, source *subtitles.Transcript) *subtitles.Transcript {
	out := translated.Clone()
	for i := range out.Blocks {
		if i < len(source.Blocks) {
			out.Blocks[i].Lines = append(out.Blocks[i].Lines, source.Blocks[i].Lines...)
		}
	}
	return out
}

// flagForReview parks the item in review and drops a copy of the translated
// SRT in the review directory for editing. A fixed file passes the reuse
// check on retry, so the engine is not re-run over hand-corrected text.
func (s *Stage) flagForReview(ctx context.Context, item *queue.Item, untranslated []int, translatedPath string) {
	logger := logging.WithContext(ctx, s.logger)
	reason := fmt.Sprintf("%d blocks untranslated (%s)", len(untranslated), FormatIndexRanges(untranslated))
	item.NeedsReview = true
	item.ReviewReason = reason
	item.Status = queue.StatusReview
	if strings.TrimSpace(item.ProgressStage) == "" || item.ProgressStage == "Translating" {
		item.ProgressStage = "Needs review"
	}
	item.ProgressPercent = 100
	item.ProgressMessage = reason
	item.ErrorMessage = reason

	if reviewDir := strings.TrimSpace(s.cfg.Paths.ReviewDir); reviewDir != "" {
		if err := os.MkdirAll(reviewDir, 0o755); err != nil {
			logger.Warn("failed to create review directory", logging.Error(err))
		} else {
			target := filepath.Join(reviewDir, fmt.Sprintf("queue-%d-%s", item.ID, filepath.Base(translatedPath)))
			if err := fileutil.CopyFile(translatedPath, target); err != nil {
				logger.Warn("failed to copy translation for review", logging.Error(err))
			}
		}
	}

	logger.Warn(
		"translation needs review",
		logging.String(logging.FieldBlockRange, FormatIndexRanges(untranslated)),
		logging.String("review_reason", reason),
	)
	if s.notifier != nil {
		payload := notifications.Payload{"title": item.Title, "reason": reason}
		if err := s.notifier.Publish(ctx, notifications.EventReviewRequired, payload); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
	}
}

func (s *Stage) applyProgress(ctx context.Context, item *queue.Item, percent float64, message string) {
	logger := logging.WithContext(ctx, s.logger)
	copy := *item
	copy.ProgressStage = "Translating"
	copy.ProgressPercent = percent
	copy.ProgressMessage = message
	if err := s.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist progress", logging.Error(err))
		return
	}
	*item = copy
}

// HealthCheck verifies translation stage dependencies.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "translator"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if s.translator == nil {
		return stage.Unhealthy(name, "translation backend unavailable")
	}
	if s.cfg.GetLLM().APIKey == "" {
		return stage.Unhealthy(name, "llm api_key not configured")
	}
	if strings.TrimSpace(s.cfg.Translation.TargetLanguage) == "" {
		return stage.Unhealthy(name, "target language not configured")
	}
	return stage.Healthy(name)
}
