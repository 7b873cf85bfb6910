package translation

import "subweave/internal/subtitles"

const (
	// DefaultWindowSize is the total number of blocks a chunk spans,
	// context included. Single-block requests lose cross-sentence meaning;
	// three blocks is enough context without inviting the backend to merge
	// segments.
	DefaultWindowSize = 3
	// DefaultOverlap is how many trailing blocks of the previous window are
	// repeated as read-only context.
	DefaultOverlap = 1
)

// Chunk is one translation work unit: a window over the transcript whose
// leading Context blocks were already translated by the previous chunk and
// travel along only to disambiguate, and whose Blocks are the authoritative
// portion this chunk must translate. Both slices are read-only views into the
// source transcript.
type Chunk struct {
	Seq     int
	Context []subtitles.Block
	Blocks  []subtitles.Block
}

// Indices returns the authoritative block indices of the chunk.
func (c Chunk) Indices() []int {
	indices := make([]int, len(c.Blocks))
	for i, block := range c.Blocks {
		indices[i] = block.Index
	}
	return indices
}

// SplitChunks windows the blocks into sequential chunks. Every chunk spans at
// most window blocks in total; after the first, the leading overlap blocks
// are context and only the remainder is authoritative. Together the
// authoritative portions cover every block exactly once, in order. The final
// chunk may be shorter and is never padded.
func SplitChunks(blocks []subtitles.Block, window, overlap int) []Chunk {
	if len(blocks) == 0 {
		return nil
	}
	if window < 1 {
		window = DefaultWindowSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= window {
		overlap = window - 1
	}

	first := window
	if first > len(blocks) {
		first = len(blocks)
	}
	chunks := []Chunk{{Seq: 0, Blocks: blocks[:first]}}

	stride := window - overlap
	for pos := first; pos < len(blocks); pos += stride {
		end := pos + stride
		if end > len(blocks) {
			end = len(blocks)
		}
		chunks = append(chunks, Chunk{
			Seq:     len(chunks),
			Context: blocks[pos-overlap : pos],
			Blocks:  blocks[pos:end],
		})
	}
	return chunks
}
