package textutil

import (
	"strings"
	"unicode"
)

// ContainsCJK reports whether the string carries at least one CJK glyph
// (Han ideographs, kana, or hangul). Translated lines destined for a CJK
// target language are rejected when this returns false.
func ContainsCJK(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
			return true
		case r >= 0x3400 && r <= 0x4DBF: // CJK extension A
			return true
		case r >= 0x3040 && r <= 0x30FF: // hiragana + katakana
			return true
		case r >= 0xAC00 && r <= 0xD7AF: // hangul syllables
			return true
		}
	}
	return false
}

// ASCIILetterRatio returns the share of ASCII letters among the non-space
// runes of s. Returns 0 for strings with no non-space runes.
func ASCIILetterRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// CollapseWhitespace folds runs of whitespace into single spaces and trims
// the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var fullWidthPairs = map[rune]rune{
	',': '，',
	'?': '？',
	'!': '！',
	';': '；',
	':': '：',
	'(': '（',
	')': '）',
}

// FullWidthPunctuation converts ASCII punctuation to its full-width form for
// CJK text. Periods are converted to 。 only when not surrounded by digits so
// decimal numbers survive.
func FullWidthPunctuation(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if mapped, ok := fullWidthPairs[r]; ok {
			b.WriteRune(mapped)
			continue
		}
		if r == '.' {
			prevDigit := i > 0 && runes[i-1] >= '0' && runes[i-1] <= '9'
			nextDigit := i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9'
			if !(prevDigit && nextDigit) {
				b.WriteRune('。')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
