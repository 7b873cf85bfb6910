package translation

import (
	"fmt"
	"log/slog"
	"sync"

	"subweave/internal/logging"
)

// Buffer is the pre-sized, index-addressed store translated chunks merge
// into. Indices are the transcript's 1-based block indices. Each index is
// written at most once: the first write wins and later writes are dropped
// with a warning. That write-once rule is also the concurrency-safety
// argument, since chunk workers write disjoint ranges and an overlap window
// re-submitting an already resolved block can never clobber it.
type Buffer struct {
	mu     sync.Mutex
	texts  []string
	filled []bool
	logger *slog.Logger
}

// NewBuffer sizes a buffer for block indices 1..blockCount.
func NewBuffer(blockCount int, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Buffer{
		texts:  make([]string, blockCount),
		filled: make([]bool, blockCount),
		logger: logger,
	}
}

// Merge writes chunk results at their block indices, texts[i] landing at
// indices[i]. Already filled indices are skipped. Length disagreement between
// the two slices or an out-of-range index is a programming error upstream
// validation should have caught, and is returned as such.
func (b *Buffer) Merge(indices []int, texts []string) error {
	if len(indices) != len(texts) {
		return fmt.Errorf("merge: %d indices for %d texts", len(indices), len(texts))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, index := range indices {
		pos := index - 1
		if pos < 0 || pos >= len(b.texts) {
			return fmt.Errorf("merge: block index %d outside 1..%d", index, len(b.texts))
		}
		if b.filled[pos] {
			b.logger.Warn("dropping duplicate write to resolved block",
				logging.Int(logging.FieldBlockRange, index))
			continue
		}
		b.texts[pos] = texts[i]
		b.filled[pos] = true
	}
	return nil
}

// Reopen clears the given indices so a repair pass can rewrite them. This is
// the only path that makes a filled index writable again; it runs strictly
// between passes, never while chunk workers are in flight.
func (b *Buffer) Reopen(indices []int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, index := range indices {
		pos := index - 1
		if pos < 0 || pos >= len(b.texts) {
			continue
		}
		b.texts[pos] = ""
		b.filled[pos] = false
	}
}

// Get returns the text stored for a block index.
func (b *Buffer) Get(index int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos := index - 1
	if pos < 0 || pos >= len(b.texts) || !b.filled[pos] {
		return "", false
	}
	return b.texts[pos], true
}

// FilledCount returns how many indices hold text.
func (b *Buffer) FilledCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, ok := range b.filled {
		if ok {
			count++
		}
	}
	return count
}

// MissingIndices returns the unfilled block indices in order.
func (b *Buffer) MissingIndices() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var missing []int
	for pos, ok := range b.filled {
		if !ok {
			missing = append(missing, pos+1)
		}
	}
	return missing
}

// FilledIndices returns the filled block indices in order.
func (b *Buffer) FilledIndices() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var indices []int
	for pos, ok := range b.filled {
		if ok {
			indices = append(indices, pos+1)
		}
	}
	return indices
}
