package translation

import (
	"regexp"
	"strings"
	"unicode"

	"subweave/internal/language"
	"subweave/internal/subtitles"
	"subweave/internal/textutil"
)

// Stylist applies the local de-artifacting pass to translated text: persona
// replacements, parenthetical stripping, punctuation width, and whitespace.
// It only ever rewrites text, one block at a time; count, order, and timing
// are untouched by construction. Apply is idempotent, so a resumed run can
// style already styled text without drift.
type Stylist struct {
	profile   subtitles.StyleProfile
	persona   *Persona
	cjkTarget bool
}

// NewStylist builds a stylist for the run's profile and target language.
func NewStylist(profile subtitles.StyleProfile, persona *Persona, targetLanguage string) *Stylist {
	return &Stylist{
		profile:   profile,
		persona:   persona,
		cjkTarget: language.IsCJK(targetLanguage),
	}
}

// Apply rewrites one block's translated text.
func (s *Stylist) Apply(text string) string {
	out := text
	if s.profile.ForbidParentheticalOriginals {
		out = stripParentheticalOriginals(out)
	}
	if s.persona != nil {
		for _, rule := range s.persona.Replacements {
			out = strings.ReplaceAll(out, rule.From, rule.To)
		}
		for _, pattern := range s.persona.compiled {
			out = pattern.re.ReplaceAllString(out, pattern.replace)
		}
	}
	if s.cjkTarget {
		out = textutil.FullWidthPunctuation(out)
	}
	return textutil.CollapseWhitespace(out)
}

var parentheticalPattern = regexp.MustCompile(`[（(][^（）()]*[)）]`)

// stripParentheticalOriginals removes parentheticals that restate a source
// term, detected as ASCII-only content with at least one letter. "智能体（Agent）"
// loses the parenthetical, "第一（二）章" keeps it.
func stripParentheticalOriginals(text string) string {
	return parentheticalPattern.ReplaceAllStringFunc(text, func(match string) string {
		runes := []rune(match)
		inner := strings.TrimSpace(string(runes[1 : len(runes)-1]))
		if inner == "" {
			return match
		}
		hasLetter := false
		for _, r := range inner {
			if r > unicode.MaxASCII {
				return match
			}
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				hasLetter = true
			}
		}
		if !hasLetter {
			return match
		}
		return ""
	})
}
