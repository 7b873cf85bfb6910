package subtitles_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"subweave/internal/subtitles"
)

func sampleTrack() *subtitles.PresentationTrack {
	return &subtitles.PresentationTrack{
		Layout: subtitles.LayoutBilingual,
		Blocks: []subtitles.PresentationBlock{
			{Index: 1, Start: time.Second, End: 2 * time.Second, Primary: []string{"你好，世界"}, Secondary: []string{"hello world"}},
			{Index: 2, Start: 2 * time.Second, End: 3500 * time.Millisecond, Primary: []string{"第二句"}, Secondary: []string{"second line"}},
		},
	}
}

func TestRenderASSDeterministic(t *testing.T) {
	track := sampleTrack()
	profile := subtitles.DefaultStyleProfile()

	first := subtitles.RenderASS(track, profile)
	second := subtitles.RenderASS(track, profile)
	if !bytes.Equal(first, second) {
		t.Fatal("renderer must be deterministic")
	}
}

func TestRenderASSStructure(t *testing.T) {
	doc := string(subtitles.RenderASS(sampleTrack(), subtitles.DefaultStyleProfile()))

	for _, want := range []string{
		"[Script Info]",
		"PlayResX: 1920",
		"[V4+ Styles]",
		"Style: Primary,KaiTi,60,",
		"Style: Secondary,Arial,36,",
		"[Events]",
		"Dialogue: 0,0:00:01.00,0:00:02.00,Primary,,0,0,0,,",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}

	if !strings.Contains(doc, "你好，世界\\N{\\rSecondary}hello world") {
		t.Fatalf("bilingual event should stack primary over secondary:\n%s", doc)
	}
}

func TestRenderASSBoxStyles(t *testing.T) {
	profile := subtitles.DefaultStyleProfile()

	profile.Box = subtitles.BoxStyleBox
	boxed := string(subtitles.RenderASS(sampleTrack(), profile))
	if !strings.Contains(boxed, ",3,1,0,2,60,60,") {
		t.Fatalf("box style should use BorderStyle 3:\n%s", boxed)
	}

	profile.Box = subtitles.BoxStyleOutline
	outlined := string(subtitles.RenderASS(sampleTrack(), profile))
	if !strings.Contains(outlined, ",1,2,1,2,60,60,") {
		t.Fatalf("outline style should use BorderStyle 1 with outline:\n%s", outlined)
	}
}

func TestRenderASSWrapsLongLines(t *testing.T) {
	track := &subtitles.PresentationTrack{
		Layout: subtitles.LayoutPrimaryOnly,
		Blocks: []subtitles.PresentationBlock{{
			Index:   1,
			Start:   0,
			End:     time.Second,
			Primary: []string{strings.Repeat("长", 50)},
		}},
	}
	profile := subtitles.DefaultStyleProfile()
	profile.MaxLineWidth = 20

	doc := string(subtitles.RenderASS(track, profile))
	if !strings.Contains(doc, strings.Repeat("长", 20)+"\\N") {
		t.Fatalf("expected hard break at width 20:\n%s", doc)
	}
}

func TestRenderASSWordWrap(t *testing.T) {
	track := &subtitles.PresentationTrack{
		Layout: subtitles.LayoutSecondaryOnly,
		Blocks: []subtitles.PresentationBlock{{
			Index:     1,
			Start:     0,
			End:       time.Second,
			Secondary: []string{"one two three four five six seven eight"},
		}},
	}
	profile := subtitles.DefaultStyleProfile()
	profile.MaxLineWidth = 15

	doc := string(subtitles.RenderASS(track, profile))
	line := extractDialogueText(t, doc)
	for _, segment := range strings.Split(line, "\\N") {
		if len([]rune(segment)) > 15 {
			t.Fatalf("segment %q exceeds width", segment)
		}
	}
}

func TestRenderASSSanitizesOverrides(t *testing.T) {
	track := &subtitles.PresentationTrack{
		Layout: subtitles.LayoutPrimaryOnly,
		Blocks: []subtitles.PresentationBlock{{
			Index:   1,
			Start:   0,
			End:     time.Second,
			Primary: []string{`{\b1}bold{\b0}`},
		}},
	}

	doc := string(subtitles.RenderASS(track, subtitles.DefaultStyleProfile()))
	if strings.Contains(extractDialogueText(t, doc), "{") {
		t.Fatalf("braces must not survive sanitization:\n%s", doc)
	}
}

func extractDialogueText(t *testing.T, doc string) string {
	t.Helper()
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "Dialogue: ") {
			parts := strings.SplitN(line, ",,", 2)
			if len(parts) == 2 {
				return strings.TrimPrefix(parts[1], "0,0,0,,")
			}
			fields := strings.SplitN(line, ",", 10)
			if len(fields) == 10 {
				return fields[9]
			}
		}
	}
	t.Fatal("no dialogue line found")
	return ""
}
