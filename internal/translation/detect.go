package translation

import (
	"strings"
	"unicode/utf8"

	"subweave/internal/textutil"
)

// failureMarkers are the tags a backend (or an earlier run) may leave on a
// block it could not translate.
var failureMarkers = []string{"[UNTRANSLATED]", "[TRANSLATION_FAILED]"}

// HasFailureMarker reports whether the text carries an explicit failure tag.
// Persisted bilingual artifacts containing one are rebuilt instead of reused.
func HasFailureMarker(text string) bool {
	for _, marker := range failureMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Untranslated reports whether translated text still reads like the source
// language. Empty text and failure markers always count. For CJK targets, any
// CJK glyph means the line is a valid (possibly mixed) translation; a line
// with none that is long enough and mostly ASCII letters is flagged. Short
// ASCII runs pass because proper nouns like "GPU" are legitimate output. For
// non-CJK targets there is no comparable glyph signal, so only emptiness and
// markers are checked.
func Untranslated(text string, targetCJK bool) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if HasFailureMarker(trimmed) {
		return true
	}
	if !targetCJK {
		return false
	}
	if textutil.ContainsCJK(trimmed) {
		return false
	}
	if utf8.RuneCountInString(trimmed) < 8 {
		return false
	}
	return textutil.ASCIILetterRatio(trimmed) > 0.7
}
