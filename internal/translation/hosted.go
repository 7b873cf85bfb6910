package translation

import (
	"context"
	"log/slog"

	"subweave/internal/logging"
)

// Completer is the slice of the LLM client the hosted translator needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// HostedTranslator sends chunks to a hosted chat-completions backend.
// Transport retries live in the client; this layer owns the prompt, the reply
// contract, and the error taxonomy.
type HostedTranslator struct {
	client Completer
	logger *slog.Logger
}

// NewHostedTranslator wraps a chat-completions client.
func NewHostedTranslator(client Completer, logger *slog.Logger) *HostedTranslator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HostedTranslator{client: client, logger: logger}
}

// Name identifies the backend in logs and failure reports.
func (h *HostedTranslator) Name() string { return "hosted" }

// Translate sends one chunk and parses the reply into exactly one string per
// authoritative block.
func (h *HostedTranslator) Translate(ctx context.Context, req Request) ([]string, error) {
	system, user := buildPrompt(req)
	reply, err := h.client.Complete(ctx, system, user)
	if err != nil {
		return nil, &BackendError{Backend: h.Name(), Err: err}
	}
	texts, err := parseReply(reply, req.Chunk)
	if err != nil {
		h.logger.Warn("reply did not match chunk shape",
			logging.Int(logging.FieldChunk, req.Chunk.Seq),
			logging.String(logging.FieldBlockRange, FormatIndexRanges(req.Chunk.Indices())),
			logging.Bool("strict", req.Strict),
			logging.Error(err))
		return nil, err
	}
	return texts, nil
}
