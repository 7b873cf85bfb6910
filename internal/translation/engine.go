package translation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"subweave/internal/language"
	"subweave/internal/logging"
	"subweave/internal/subtitles"
)

const (
	// DefaultWorkers bounds concurrent backend calls. Small on purpose:
	// hosted backends rate-limit aggressively and chunk latency dominates.
	DefaultWorkers = 3
	// DefaultRepairPasses bounds how many times unresolved blocks are
	// re-translated before the run gives up on them.
	DefaultRepairPasses = 5
)

// Options configures one translation run. Zero values select defaults,
// except Overlap where zero is meaningful (no context); RepairPasses can be
// disabled with a negative value. RequestsPerMinute zero means unpaced.
type Options struct {
	SourceLanguage    string
	TargetLanguage    string
	WindowSize        int
	Overlap           int
	Workers           int
	RequestsPerMinute int
	RepairPasses      int
	Profile           subtitles.StyleProfile
	Persona           *Persona
}

func (o Options) withDefaults() Options {
	if o.WindowSize < 1 {
		o.WindowSize = DefaultWindowSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.WindowSize {
		o.Overlap = o.WindowSize - 1
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	switch {
	case o.RepairPasses == 0:
		o.RepairPasses = DefaultRepairPasses
	case o.RepairPasses < 0:
		o.RepairPasses = 0
	}
	if o.RequestsPerMinute < 0 {
		o.RequestsPerMinute = 0
	}
	if o.Profile == (subtitles.StyleProfile{}) {
		o.Profile = subtitles.DefaultStyleProfile()
	}
	return o
}

// Result is a completed translation run: an aligned transcript plus
// bookkeeping about blocks that still read like the source language.
type Result struct {
	Transcript   *subtitles.Transcript
	Untranslated []int
	Chunks       int
	RepairPasses int
}

// Engine drives chunked translation end to end: fan-out under a worker pool
// and rate limiter, per-chunk escalation, styling, write-once merge, and
// bounded repair of unresolved blocks.
type Engine struct {
	translator Translator
	stylist    *Stylist
	persona    *Persona
	opts       Options
	limiter    *rate.Limiter
	cjkTarget  bool
	logger     *slog.Logger
}

// NewEngine builds an engine around a translator. A nil Persona in opts
// selects the embedded default rules.
func NewEngine(translator Translator, opts Options, logger *slog.Logger) (*Engine, error) {
	if translator == nil {
		return nil, errors.New("translation engine: translator required")
	}
	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	persona := opts.Persona
	if persona == nil {
		var err error
		persona, err = DefaultPersona()
		if err != nil {
			return nil, err
		}
		opts.Persona = persona
	}
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return &Engine{
		translator: translator,
		stylist:    NewStylist(opts.Profile, persona, opts.TargetLanguage),
		persona:    persona,
		opts:       opts,
		limiter:    limiter,
		cjkTarget:  language.IsCJK(opts.TargetLanguage),
		logger:     logger.With(logging.String(logging.FieldComponent, "translation")),
	}, nil
}

// Translate produces the target-language transcript for source. The result
// preserves block count, order, and timing exactly. On cancellation the
// partial buffer is logged and discarded, never returned. Chunks that stay
// unresolved after the repair budget produce an aggregate *RunError naming
// every failed block range.
func (e *Engine) Translate(ctx context.Context, source *subtitles.Transcript) (*Result, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	chunks := SplitChunks(source.Blocks, e.opts.WindowSize, e.opts.Overlap)
	buffer := NewBuffer(source.BlockCount(), e.logger)
	failures := newFailureSet()

	e.logger.Info("translation run starting",
		logging.Int("blocks", source.BlockCount()),
		logging.Int("chunks", len(chunks)),
		logging.Int("workers", e.opts.Workers),
		logging.String("target", e.opts.TargetLanguage))

	group := new(errgroup.Group)
	group.SetLimit(e.opts.Workers)
	for _, chunk := range chunks {
		group.Go(func() error {
			if err := e.pace(ctx); err != nil {
				return err
			}
			texts, err := e.translateChunk(ctx, chunk)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failures.record(chunk, err)
				e.logger.Warn("chunk failed",
					logging.Int(logging.FieldChunk, chunk.Seq),
					logging.String(logging.FieldBlockRange, FormatIndexRanges(chunk.Indices())),
					logging.Error(err))
				return nil
			}
			return buffer.Merge(chunk.Indices(), texts)
		})
	}
	if err := group.Wait(); err != nil {
		e.logger.Warn("translation run aborted, discarding partial output",
			logging.String(logging.FieldBlockRange, FormatIndexRanges(buffer.FilledIndices())),
			logging.Error(err))
		return nil, err
	}

	passes, err := e.repair(ctx, source, buffer, failures)
	if err != nil {
		e.logger.Warn("translation run aborted during repair, discarding partial output",
			logging.String(logging.FieldBlockRange, FormatIndexRanges(buffer.FilledIndices())),
			logging.Error(err))
		return nil, err
	}

	if missing := unresolvedIndices(source, buffer); len(missing) > 0 {
		runErr := failures.runError(missing)
		e.logger.Error("translation run unresolved",
			logging.String(logging.FieldBlockRange, FormatIndexRanges(missing)),
			logging.Error(runErr))
		return nil, runErr
	}

	result := &Result{
		Transcript:   source.Clone(),
		Chunks:       len(chunks),
		RepairPasses: passes,
	}
	for i := range result.Transcript.Blocks {
		block := &result.Transcript.Blocks[i]
		text, ok := buffer.Get(block.Index)
		if !ok {
			continue
		}
		block.SetText(text)
		if !block.Empty() && Untranslated(text, e.cjkTarget) {
			result.Untranslated = append(result.Untranslated, block.Index)
		}
	}
	if len(result.Untranslated) > 0 {
		e.logger.Warn("blocks still carry source-language text",
			logging.String(logging.FieldBlockRange, FormatIndexRanges(result.Untranslated)),
			logging.Int("count", len(result.Untranslated)))
	}
	return result, nil
}

// translateChunk runs the per-chunk escalation ladder: one normal attempt,
// then on a shape violation exactly one strict re-issue, then
// UnrecoverableSyncError. Transport retries already happened inside the
// backend, so a BackendError here is terminal for this attempt.
func (e *Engine) translateChunk(ctx context.Context, chunk Chunk) ([]string, error) {
	texts, err := e.attempt(ctx, chunk, false)
	if err == nil {
		return texts, nil
	}
	if !isShapeError(err) {
		return nil, err
	}

	e.logger.Warn("re-issuing chunk with strict count instructions",
		logging.Int(logging.FieldChunk, chunk.Seq),
		logging.String(logging.FieldBlockRange, FormatIndexRanges(chunk.Indices())),
		logging.Error(err))
	if err := e.pace(ctx); err != nil {
		return nil, err
	}
	texts, retryErr := e.attempt(ctx, chunk, true)
	if retryErr == nil {
		return texts, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if isShapeError(retryErr) {
		return nil, &UnrecoverableSyncError{Indices: chunk.Indices(), Err: retryErr}
	}
	return nil, retryErr
}

// attempt performs one backend call and styles the reply. Shape errors from
// either step count the same for escalation purposes.
func (e *Engine) attempt(ctx context.Context, chunk Chunk, strict bool) ([]string, error) {
	texts, err := e.translator.Translate(ctx, e.request(chunk, strict))
	if err != nil {
		return nil, err
	}
	return e.finishChunk(chunk, texts)
}

// finishChunk styles the reply and re-asserts the chunk contract after
// styling, so a rule that empties a line is caught before the merge.
func (e *Engine) finishChunk(chunk Chunk, texts []string) ([]string, error) {
	styled := make([]string, len(texts))
	for i, text := range texts {
		styled[i] = e.stylist.Apply(text)
	}
	if err := verifyChunk(chunk, styled); err != nil {
		return nil, err
	}
	return styled, nil
}

func (e *Engine) request(chunk Chunk, strict bool) Request {
	return Request{
		Chunk:                        chunk,
		SourceLanguage:               e.opts.SourceLanguage,
		TargetLanguage:               e.opts.TargetLanguage,
		Tone:                         e.opts.Profile.Tone,
		Persona:                      e.persona,
		ForbidParentheticalOriginals: e.opts.Profile.ForbidParentheticalOriginals,
		Strict:                       strict,
	}
}

// pace blocks until the rate limiter admits another backend call.
func (e *Engine) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// repair re-translates blocks that are missing or still read like the source
// language, up to the configured pass budget. Passes run sequentially; the
// volume is small by the time a repair is needed, and sequential passes keep
// the buffer reopen/merge pairing trivially race-free. A block that had text
// before a failed repair gets that text back, so repair can only ever
// improve the buffer.
func (e *Engine) repair(ctx context.Context, source *subtitles.Transcript, buffer *Buffer, failures *failureSet) (int, error) {
	for pass := 1; pass <= e.opts.RepairPasses; pass++ {
		targets := e.repairTargets(source, buffer)
		if len(targets) == 0 {
			return pass - 1, nil
		}
		if err := ctx.Err(); err != nil {
			return pass - 1, err
		}
		e.logger.Info("repair pass",
			logging.Int("pass", pass),
			logging.Int("of", e.opts.RepairPasses),
			logging.String(logging.FieldBlockRange, FormatIndexRanges(targets)))

		fallbacks := make(map[int]string, len(targets))
		for _, index := range targets {
			if text, ok := buffer.Get(index); ok {
				fallbacks[index] = text
			}
		}
		buffer.Reopen(targets)

		blocks := make([]subtitles.Block, 0, len(targets))
		for _, index := range targets {
			if block, ok := source.At(index); ok {
				blocks = append(blocks, *block)
			}
		}
		for _, chunk := range SplitChunks(blocks, e.opts.WindowSize, e.opts.Overlap) {
			if err := e.pace(ctx); err != nil {
				return pass, err
			}
			texts, err := e.translateChunk(ctx, chunk)
			if err != nil {
				if ctx.Err() != nil {
					return pass, ctx.Err()
				}
				failures.record(chunk, err)
				e.logger.Warn("repair chunk failed",
					logging.String(logging.FieldBlockRange, FormatIndexRanges(chunk.Indices())),
					logging.Error(err))
				continue
			}
			if err := buffer.Merge(chunk.Indices(), texts); err != nil {
				return pass, err
			}
		}

		for _, index := range targets {
			if _, ok := buffer.Get(index); ok {
				continue
			}
			if text, ok := fallbacks[index]; ok {
				if err := buffer.Merge([]int{index}, []string{text}); err != nil {
					return pass, err
				}
			}
		}
	}
	return e.opts.RepairPasses, nil
}

// unresolvedIndices returns the missing buffer indices whose source block has
// text. An empty source block needs no translation; when its chunk failed it
// simply keeps its empty text in the result.
func unresolvedIndices(source *subtitles.Transcript, buffer *Buffer) []int {
	var unresolved []int
	for _, index := range buffer.MissingIndices() {
		if block, ok := source.At(index); ok && block.Empty() {
			continue
		}
		unresolved = append(unresolved, index)
	}
	return unresolved
}

// repairTargets collects block indices that are unfilled or filled with text
// the detector still flags as untranslated.
func (e *Engine) repairTargets(source *subtitles.Transcript, buffer *Buffer) []int {
	var targets []int
	for _, block := range source.Blocks {
		if block.Empty() {
			continue
		}
		text, ok := buffer.Get(block.Index)
		if !ok {
			targets = append(targets, block.Index)
			continue
		}
		if Untranslated(text, e.cjkTarget) {
			targets = append(targets, block.Index)
		}
	}
	return targets
}

// verifyChunk asserts the adapter contract right before results touch the
// shared buffer: one string per authoritative block, and no string empty
// unless its source block was. Order is positional, so count plus position
// covers the no-reordering rule.
func verifyChunk(chunk Chunk, texts []string) error {
	if len(texts) != len(chunk.Blocks) {
		return &CountMismatchError{
			Indices: chunk.Indices(),
			Want:    len(chunk.Blocks),
			Got:     len(texts),
		}
	}
	var empty []int
	for i, text := range texts {
		if text == "" && !chunk.Blocks[i].Empty() {
			empty = append(empty, chunk.Blocks[i].Index)
		}
	}
	if len(empty) > 0 {
		return &EmptyTranslationError{Indices: empty}
	}
	return nil
}

func isShapeError(err error) bool {
	var countErr *CountMismatchError
	var emptyErr *EmptyTranslationError
	return errors.As(err, &countErr) || errors.As(err, &emptyErr)
}
