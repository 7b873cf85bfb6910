package translation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"subweave/internal/language"
)

// replyTerminator ends an interactive reply: a single "." on its own line.
const replyTerminator = "."

// InteractiveTranslator defers the chunk contract to whoever is on the other
// side of the reader and writer, typically a person or an agent driving the
// process through a terminal. The reply must follow the same indexed-line
// shape the hosted backend produces, so validation and escalation are
// identical for both. A single stream pair cannot carry interleaved
// conversations, so Translate serializes callers: each chunk's prompt is
// written and its full reply consumed before the next chunk starts.
type InteractiveTranslator struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewInteractiveTranslator builds a translator speaking a line protocol over
// the given streams.
func NewInteractiveTranslator(in io.Reader, out io.Writer) *InteractiveTranslator {
	return &InteractiveTranslator{in: bufio.NewReader(in), out: out}
}

// Name identifies the backend in logs and failure reports.
func (t *InteractiveTranslator) Name() string { return "interactive" }

// Translate presents one chunk and reads the indexed reply until a lone "."
// line or EOF. Reads are blocking; the context is honoured between chunks,
// not mid-read.
func (t *InteractiveTranslator) Translate(ctx context.Context, req Request) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.present(req); err != nil {
		return nil, &BackendError{Backend: t.Name(), Err: err}
	}

	var lines []string
	for {
		line, err := t.in.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed == replyTerminator {
			break
		}
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &BackendError{Backend: t.Name(), Err: err}
		}
	}

	return parseReply(strings.Join(lines, "\n"), req.Chunk)
}

func (t *InteractiveTranslator) present(req Request) error {
	indices := req.Chunk.Indices()
	var b strings.Builder
	fmt.Fprintf(&b, "--- chunk %d (blocks %s) ---\n", req.Chunk.Seq+1, FormatIndexRanges(indices))
	fmt.Fprintf(&b, "Translate into %s", language.DisplayName(req.TargetLanguage))
	if req.Tone != "" {
		fmt.Fprintf(&b, ", tone %s", req.Tone)
	}
	b.WriteString(".\n")
	if len(req.Chunk.Context) > 0 {
		b.WriteString("Context (reference only):\n")
		for _, block := range req.Chunk.Context {
			fmt.Fprintf(&b, "  [%d] %s\n", block.Index, block.FlatText())
		}
	}
	b.WriteString("Input:\n")
	for _, block := range req.Chunk.Blocks {
		fmt.Fprintf(&b, "  [%d] %s\n", block.Index, block.FlatText())
	}
	fmt.Fprintf(&b, "Reply with exactly %d line(s) in the form \"[ID] translated text\", then a line with a single \".\" to finish.\n", len(indices))
	if req.Strict {
		fmt.Fprintf(&b, "The previous reply did not line up. Cover each of the IDs %s exactly once.\n", FormatIndexRanges(indices))
	}
	_, err := io.WriteString(t.out, b.String())
	return err
}
