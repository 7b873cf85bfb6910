package subtitles

import (
	"fmt"
	"strings"
	"time"
)

// Block is a single timed subtitle cue. Index is its stable identity within
// the transcript; Start and End are fixed at parse time. Only the text may be
// replaced, and always wholesale.
type Block struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Text returns the block text with lines joined by newlines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// FlatText returns the block text as a single line, suitable for prompts.
func (b Block) FlatText() string {
	return strings.Join(b.Lines, " ")
}

// SetText replaces the block text wholesale. Multi-line text is split on
// newlines; surrounding whitespace per line is trimmed.
func (b *Block) SetText(text string) {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	b.Lines = lines
}

// Empty reports whether the block carries no visible text.
func (b Block) Empty() bool {
	for _, line := range b.Lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// Transcript is an ordered sequence of blocks with contiguous indices
// starting at 1.
type Transcript struct {
	Blocks []Block
}

// FormatError reports a structural problem in subtitle input. Cue is the
// 1-based cue ordinal when known, 0 otherwise.
type FormatError struct {
	Cue    int
	Detail string
}

func (e *FormatError) Error() string {
	if e.Cue > 0 {
		return fmt.Sprintf("subtitle format: cue %d: %s", e.Cue, e.Detail)
	}
	return fmt.Sprintf("subtitle format: %s", e.Detail)
}

// Validate checks the transcript's structural invariants: at least one block,
// indices contiguous from 1, start before end, and starts monotonically
// non-decreasing.
func (t *Transcript) Validate() error {
	if t == nil || len(t.Blocks) == 0 {
		return &FormatError{Detail: "transcript has no blocks"}
	}
	var prevStart time.Duration
	for i, block := range t.Blocks {
		if block.Index != i+1 {
			return &FormatError{Cue: i + 1, Detail: fmt.Sprintf("index %d out of sequence", block.Index)}
		}
		if block.Start >= block.End {
			return &FormatError{Cue: block.Index, Detail: fmt.Sprintf("start %s not before end %s", block.Start, block.End)}
		}
		if block.Start < prevStart {
			return &FormatError{Cue: block.Index, Detail: "start time regresses"}
		}
		prevStart = block.Start
	}
	return nil
}

// BlockCount returns the number of blocks.
func (t *Transcript) BlockCount() int {
	if t == nil {
		return 0
	}
	return len(t.Blocks)
}

// At returns the block with the given 1-based index.
func (t *Transcript) At(index int) (*Block, bool) {
	if t == nil || index < 1 || index > len(t.Blocks) {
		return nil, false
	}
	return &t.Blocks[index-1], true
}

// Duration returns the end time of the last block.
func (t *Transcript) Duration() time.Duration {
	if t == nil || len(t.Blocks) == 0 {
		return 0
	}
	var last time.Duration
	for _, block := range t.Blocks {
		if block.End > last {
			last = block.End
		}
	}
	return last
}

// Clone returns a deep copy. Mutating the copy never touches the original.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	blocks := make([]Block, len(t.Blocks))
	for i, block := range t.Blocks {
		blocks[i] = block
		blocks[i].Lines = append([]string(nil), block.Lines...)
	}
	return &Transcript{Blocks: blocks}
}
