package translation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subweave/internal/subtitles"
)

func TestDefaultPersona(t *testing.T) {
	persona, err := DefaultPersona()
	if err != nil {
		t.Fatalf("DefaultPersona: %v", err)
	}

	for _, tone := range []subtitles.Tone{subtitles.ToneCasual, subtitles.ToneFormal, subtitles.ToneEdgy} {
		guide, ok := persona.Tones[string(tone)]
		if !ok {
			t.Fatalf("embedded persona missing tone %q", tone)
		}
		if len(guide.Guidance) == 0 {
			t.Fatalf("tone %q has no guidance lines", tone)
		}
	}
	if len(persona.BannedPhrases) == 0 {
		t.Fatal("embedded persona has no banned phrases")
	}
	if len(persona.Replacements) == 0 {
		t.Fatal("embedded persona has no replacements")
	}
	if len(persona.compiled) != len(persona.Patterns) {
		t.Fatalf("compiled %d patterns, want %d", len(persona.compiled), len(persona.Patterns))
	}
}

func TestDefaultPersonaRulesAreFixedPoints(t *testing.T) {
	persona, err := DefaultPersona()
	if err != nil {
		t.Fatalf("DefaultPersona: %v", err)
	}

	// A replacement whose output still matches a rule would make the style
	// pass rewrite on every run.
	for _, rule := range persona.Replacements {
		for _, other := range persona.Replacements {
			if strings.Contains(rule.To, other.From) {
				t.Fatalf("replacement %q -> %q reintroduces %q", rule.From, rule.To, other.From)
			}
		}
		for _, pattern := range persona.compiled {
			if pattern.re.MatchString(rule.To) {
				t.Fatalf("replacement output %q matches pattern %q", rule.To, pattern.re)
			}
		}
	}
	for _, pattern := range persona.compiled {
		if pattern.re.MatchString(pattern.replace) {
			t.Fatalf("pattern %q matches its own replacement %q", pattern.re, pattern.replace)
		}
	}
}

func TestLoadPersonaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	data := `tones:
  casual:
    description: test tone
    guidance:
      - keep it short
banned_phrases:
  - whatever
replacements:
  - from: foo
    to: bar
patterns:
  - match: "-{2,}"
    replace: ","
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write persona file: %v", err)
	}

	persona, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if persona.Replacements[0].From != "foo" || persona.Replacements[0].To != "bar" {
		t.Fatalf("replacements = %v", persona.Replacements)
	}
	guide := persona.GuidanceFor(subtitles.ToneCasual)
	if len(guide.Guidance) != 1 || guide.Guidance[0] != "keep it short" {
		t.Fatalf("guidance = %v", guide.Guidance)
	}
}

func TestLoadPersonaEmptyPathUsesDefaults(t *testing.T) {
	persona, err := LoadPersona("")
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if len(persona.Tones) == 0 {
		t.Fatal("expected embedded tones")
	}
}

func TestLoadPersonaMissingFile(t *testing.T) {
	_, err := LoadPersona(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParsePersonaBadPattern(t *testing.T) {
	_, err := ParsePersona([]byte("patterns:\n  - match: \"[\"\n    replace: x\n"))
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !strings.Contains(err.Error(), "persona pattern") {
		t.Fatalf("error %q does not name the pattern", err)
	}
}

func TestGuidanceForUnknownToneFallsBack(t *testing.T) {
	persona, err := DefaultPersona()
	if err != nil {
		t.Fatalf("DefaultPersona: %v", err)
	}

	fallback := persona.GuidanceFor(subtitles.Tone("noir"))
	casual := persona.GuidanceFor(subtitles.ToneCasual)
	if fallback.Description != casual.Description {
		t.Fatalf("unknown tone should fall back to casual, got %q", fallback.Description)
	}
}
