package subtitles

import (
	"fmt"
	"strings"
	"time"
)

// RenderASS converts a composed track and a style profile into an ASS
// document. The output is a pure function of its inputs: identical track and
// profile always produce byte-identical documents.
//
// Bilingual blocks render as a single dialogue event with the translated text
// in the Primary style and the original beneath it in the Secondary style, so
// both lines share exact timing.
func RenderASS(track *PresentationTrack, profile StyleProfile) []byte {
	p := profile.normalized()

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("Title: subweave bilingual subtitles\n")
	b.WriteString("ScriptType: v4.00+\n")
	// WrapStyle 2 disables libass re-wrapping; line breaks are ours alone.
	b.WriteString("WrapStyle: 2\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", p.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", p.PlayResY)
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")

	borderStyle, outline, shadow, backColour := boxParameters(p.Box)
	fmt.Fprintf(&b, "Style: Primary,%s,%d,%s,&H000000FF,&H00000000,%s,0,0,0,0,100,100,0,0,%d,%d,%d,2,60,60,%d,1\n",
		p.PrimaryFont, p.PrimaryFontSize, p.PrimaryColour, backColour, borderStyle, outline, shadow, p.MarginVertical)
	fmt.Fprintf(&b, "Style: Secondary,%s,%d,%s,&H000000FF,&H00000000,%s,0,0,0,0,100,100,0,0,%d,%d,%d,2,60,60,%d,1\n",
		p.SecondaryFont, p.SecondaryFontSize, p.SecondaryColour, backColour, borderStyle, outline, shadow, p.MarginVertical)

	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, block := range track.Blocks {
		primary := renderLines(block.Primary, p.MaxLineWidth)
		secondary := renderLines(block.Secondary, p.MaxLineWidth)

		var style, text string
		switch {
		case primary != "" && secondary != "":
			style = "Primary"
			text = primary + "\\N{\\rSecondary}" + secondary
		case primary != "":
			style = "Primary"
			text = primary
		case secondary != "":
			style = "Secondary"
			text = secondary
		default:
			continue
		}

		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n", assTime(block.Start), assTime(block.End), style, text)
	}

	return []byte(b.String())
}

func boxParameters(box BoxStyle) (borderStyle, outline, shadow int, backColour string) {
	switch box {
	case BoxStyleBox:
		// BorderStyle 3 draws an opaque box using BackColour.
		return 3, 1, 0, "&H80000000"
	case BoxStyleOutline:
		return 1, 2, 1, "&H00000000"
	default:
		return 1, 0, 0, "&H00000000"
	}
}

func renderLines(lines []string, width int) string {
	if len(lines) == 0 {
		return ""
	}
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		for _, segment := range wrapLine(sanitizeASS(line), width) {
			wrapped = append(wrapped, segment)
		}
	}
	return strings.Join(wrapped, "\\N")
}

// wrapLine breaks a line into segments no wider than width runes. Spaced text
// wraps at word boundaries; unspaced text (CJK) hard-breaks at the budget.
func wrapLine(line string, width int) []string {
	if width <= 0 || len([]rune(line)) <= width {
		return []string{line}
	}

	words := strings.Fields(line)
	if len(words) <= 1 {
		return hardBreak(line, width)
	}

	var segments []string
	var current strings.Builder
	currentLen := 0
	for _, word := range words {
		wordLen := len([]rune(word))
		if wordLen > width {
			if currentLen > 0 {
				segments = append(segments, current.String())
				current.Reset()
				currentLen = 0
			}
			segments = append(segments, hardBreak(word, width)...)
			continue
		}
		needed := wordLen
		if currentLen > 0 {
			needed++
		}
		if currentLen+needed > width {
			segments = append(segments, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

func hardBreak(line string, width int) []string {
	runes := []rune(line)
	var segments []string
	for len(runes) > width {
		segments = append(segments, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		segments = append(segments, string(runes))
	}
	return segments
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
