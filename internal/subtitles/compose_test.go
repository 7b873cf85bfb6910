package subtitles_test

import (
	"errors"
	"testing"
	"time"

	"subweave/internal/subtitles"
)

func bilingualPair() (*subtitles.Transcript, *subtitles.Transcript) {
	original := &subtitles.Transcript{Blocks: []subtitles.Block{
		{Index: 1, Start: 0, End: time.Second, Lines: []string{"hello"}},
		{Index: 2, Start: time.Second, End: 2 * time.Second, Lines: []string{"world"}},
	}}
	translated := original.Clone()
	translated.Blocks[0].SetText("你好")
	translated.Blocks[1].SetText("世界")
	return translated, original
}

func TestComposeBilingual(t *testing.T) {
	translated, original := bilingualPair()

	track, err := subtitles.Compose(translated, original, subtitles.LayoutBilingual)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(track.Blocks) != 2 {
		t.Fatalf("track blocks = %d", len(track.Blocks))
	}
	first := track.Blocks[0]
	if first.Start != 0 || first.End != time.Second {
		t.Fatalf("timing not copied verbatim: %s-%s", first.Start, first.End)
	}
	if first.Primary[0] != "你好" || first.Secondary[0] != "hello" {
		t.Fatalf("payloads wrong: %+v", first)
	}
}

func TestComposeRejectsTimingMismatch(t *testing.T) {
	translated, original := bilingualPair()
	// Same block count, but the final block runs half a second long.
	translated.Blocks[1].End = 2500 * time.Millisecond

	track, err := subtitles.Compose(translated, original, subtitles.LayoutBilingual)
	if err == nil {
		t.Fatal("expected alignment error")
	}
	if track != nil {
		t.Fatal("no track must be produced on alignment failure")
	}
	var alignErr *subtitles.AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("expected AlignmentError, got %T", err)
	}
	if alignErr.Index != 2 {
		t.Fatalf("alignment error should name block 2, got %d", alignErr.Index)
	}
}

func TestComposeRejectsCountMismatch(t *testing.T) {
	translated, original := bilingualPair()
	translated.Blocks = translated.Blocks[:1]

	_, err := subtitles.Compose(translated, original, subtitles.LayoutBilingual)
	var alignErr *subtitles.AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("expected AlignmentError, got %v", err)
	}
}

func TestComposeRejectsEmptyPrimaryBlock(t *testing.T) {
	translated, original := bilingualPair()
	translated.Blocks[0].Lines = nil

	_, err := subtitles.Compose(translated, original, subtitles.LayoutBilingual)
	var alignErr *subtitles.AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("expected AlignmentError, got %v", err)
	}
}

func TestComposeSingleLayouts(t *testing.T) {
	translated, original := bilingualPair()

	primaryOnly, err := subtitles.Compose(translated, nil, subtitles.LayoutPrimaryOnly)
	if err != nil {
		t.Fatalf("primary_only: %v", err)
	}
	if len(primaryOnly.Blocks[0].Secondary) != 0 {
		t.Fatal("primary_only track should not carry secondary text")
	}

	secondaryOnly, err := subtitles.Compose(nil, original, subtitles.LayoutSecondaryOnly)
	if err != nil {
		t.Fatalf("secondary_only: %v", err)
	}
	if len(secondaryOnly.Blocks[0].Primary) != 0 {
		t.Fatal("secondary_only track should not carry primary text")
	}

	if _, err := subtitles.Compose(nil, original, subtitles.LayoutBilingual); err == nil {
		t.Fatal("bilingual with missing primary must fail")
	}
}
