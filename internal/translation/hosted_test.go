package translation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type completerFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

func hostedRequest(t *testing.T) Request {
	t.Helper()

	chunks := SplitChunks(makeBlocks(t, 5), 3, 1)
	return Request{
		Chunk:          chunks[1],
		SourceLanguage: "en",
		TargetLanguage: "zh",
	}
}

func TestHostedTranslatorRoundTrip(t *testing.T) {
	var seenUser string
	client := completerFunc(func(_ context.Context, system, user string) (string, error) {
		if system == "" {
			t.Error("system prompt should not be empty")
		}
		seenUser = user
		return "[4] 第四句\n[5] 第五句", nil
	})

	translator := NewHostedTranslator(client, nil)
	texts, err := translator.Translate(context.Background(), hostedRequest(t))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(texts) != 2 || texts[0] != "第四句" {
		t.Fatalf("texts = %v", texts)
	}
	for _, want := range []string{"[4] line 4", "[5] line 5", "[3] line 3"} {
		if !strings.Contains(seenUser, want) {
			t.Fatalf("prompt missing %q:\n%s", want, seenUser)
		}
	}
}

func TestHostedTranslatorWrapsTransportErrors(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := completerFunc(func(context.Context, string, string) (string, error) {
		return "", cause
	})

	translator := NewHostedTranslator(client, nil)
	_, err := translator.Translate(context.Background(), hostedRequest(t))

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Backend != "hosted" {
		t.Fatalf("backend = %q", backendErr.Backend)
	}
	if !errors.Is(err, cause) {
		t.Fatal("BackendError should unwrap to the transport cause")
	}
}

func TestHostedTranslatorSurfacesShapeErrors(t *testing.T) {
	client := completerFunc(func(context.Context, string, string) (string, error) {
		return "[4] 只有一句", nil
	})

	translator := NewHostedTranslator(client, nil)
	_, err := translator.Translate(context.Background(), hostedRequest(t))

	var mismatch *CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CountMismatchError, got %v", err)
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		t.Fatal("shape errors must not be wrapped as backend failures")
	}
}

func TestHostedTranslatorName(t *testing.T) {
	translator := NewHostedTranslator(completerFunc(nil), nil)
	if translator.Name() != "hosted" {
		t.Fatalf("Name = %q", translator.Name())
	}
}
