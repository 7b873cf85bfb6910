package translation

import (
	"context"

	"subweave/internal/subtitles"
)

// Request describes one chunk translation call.
type Request struct {
	Chunk          Chunk
	SourceLanguage string
	TargetLanguage string
	Tone           subtitles.Tone
	Persona        *Persona
	// ForbidParentheticalOriginals asks the backend not to restate source
	// terms in parentheses; the stylist strips survivors locally.
	ForbidParentheticalOriginals bool
	// Strict marks a re-issue after a count mismatch. The prompt then spells
	// out the exact line count and IDs required.
	Strict bool
}

// Translator converts a chunk into exactly one translated string per
// authoritative block, in block order. Implementations either honour that
// contract or fail with a typed error; partial replies are never returned.
type Translator interface {
	Translate(ctx context.Context, req Request) ([]string, error)
	Name() string
}
