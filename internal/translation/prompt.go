package translation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"subweave/internal/language"
	"subweave/internal/subtitles"
)

// buildPrompt renders a Request into system and user prompts. Blocks are
// presented one per line as "[index] text"; the reply must mirror that shape
// for the authoritative blocks only.
func buildPrompt(req Request) (string, string) {
	system := "You are an expert subtitle translator and editor."

	source := language.DisplayName(req.SourceLanguage)
	target := language.DisplayName(req.TargetLanguage)

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following %s subtitles into %s.\n", source, target)

	tone := req.Tone
	if tone == "" {
		tone = subtitles.ToneCasual
	}
	b.WriteString("\n### STYLE (tone and persona)\n")
	fmt.Fprintf(&b, "TARGET STYLE: %s\n", tone)
	if req.Persona != nil {
		guide := req.Persona.GuidanceFor(tone)
		for _, line := range guide.Guidance {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	b.WriteString("\n### RULES\n")
	b.WriteString("- Write the way a native speaker talks, never translationese.\n")
	b.WriteString("- Vary sentence length.\n")
	b.WriteString("- A sentence split across segments keeps its partial meaning in each time slot.\n")
	if req.ForbidParentheticalOriginals {
		fmt.Fprintf(&b, "- Never restate the original %s term in parentheses after its translation.\n", source)
	}
	if req.Persona != nil && len(req.Persona.BannedPhrases) > 0 {
		fmt.Fprintf(&b, "- Avoid these words entirely: %s.\n", strings.Join(req.Persona.BannedPhrases, ", "))
	}

	if len(req.Chunk.Context) > 0 {
		b.WriteString("\n### CONTEXT (already translated, for reference only, do not output)\n")
		for _, block := range req.Chunk.Context {
			fmt.Fprintf(&b, "[%d] %s\n", block.Index, block.FlatText())
		}
	}

	b.WriteString("\n### INPUT\n")
	for _, block := range req.Chunk.Blocks {
		fmt.Fprintf(&b, "[%d] %s\n", block.Index, block.FlatText())
	}

	b.WriteString("\n### OUTPUT FORMAT (STRICT, one line per input segment, no extra text)\n")
	b.WriteString("[ID] Translated Text\n")

	if req.Strict {
		indices := req.Chunk.Indices()
		ids := make([]string, len(indices))
		for i, index := range indices {
			ids[i] = strconv.Itoa(index)
		}
		b.WriteString("\n### COUNT REQUIREMENT\n")
		fmt.Fprintf(&b,
			"Your previous reply did not line up with the input. Return exactly %d lines, one for each of the IDs %s, in that order. Never merge, split, skip, or invent segments.\n",
			len(indices), strings.Join(ids, ", "))
	}

	return system, b.String()
}

var replyLinePattern = regexp.MustCompile(`^\[(\d+)\]\s*(.*)$`)

// parseReply aligns a backend reply with the chunk's authoritative blocks.
// Lines that do not match the "[index] text" shape are ignored, as are lines
// for context indices the backend was told not to re-emit. A duplicated index
// keeps its last occurrence. The result holds exactly one string per
// authoritative block, in block order.
func parseReply(reply string, chunk Chunk) ([]string, error) {
	byIndex := make(map[int]string)
	for _, line := range strings.Split(reply, "\n") {
		match := replyLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		byIndex[index] = strings.TrimSpace(match[2])
	}

	indices := chunk.Indices()
	texts := make([]string, 0, len(chunk.Blocks))
	var emptyIndices []int
	got := 0
	for _, block := range chunk.Blocks {
		text, ok := byIndex[block.Index]
		if !ok {
			continue
		}
		got++
		if text == "" && !block.Empty() {
			emptyIndices = append(emptyIndices, block.Index)
		}
		texts = append(texts, text)
	}

	if got != len(chunk.Blocks) {
		return nil, &CountMismatchError{Indices: indices, Want: len(chunk.Blocks), Got: got}
	}
	if len(emptyIndices) > 0 {
		return nil, &EmptyTranslationError{Indices: emptyIndices}
	}
	return texts, nil
}
