package translation

import (
	"testing"

	"subweave/internal/subtitles"
)

func newTestStylist(t *testing.T) *Stylist {
	t.Helper()

	persona, err := DefaultPersona()
	if err != nil {
		t.Fatalf("DefaultPersona: %v", err)
	}
	return NewStylist(subtitles.DefaultStyleProfile(), persona, "zh")
}

func TestStylistApply(t *testing.T) {
	stylist := newTestStylist(t)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "parenthetical original stripped",
			in:   "智能体（Agent）可以调用工具",
			want: "智能体可以调用工具",
		},
		{
			name: "ascii parens stripped",
			in:   "缓存(cache)的命中率",
			want: "缓存的命中率",
		},
		{
			name: "non ascii parenthetical kept",
			in:   "第一（二）章",
			want: "第一（二）章",
		},
		{
			name: "numeric parenthetical kept",
			in:   "共三章（2024）",
			want: "共三章（2024）",
		},
		{
			name: "banned connector replaced",
			in:   "此外，模型还能推理",
			want: "另外，模型还能推理",
		},
		{
			name: "stiff verb replaced",
			in:   "这意味着成本下降",
			want: "这说明成本下降",
		},
		{
			name: "long dash becomes comma",
			in:   "它很快——快得惊人",
			want: "它很快，快得惊人",
		},
		{
			name: "halfwidth punctuation widened",
			in:   "好的,我们开始吧!",
			want: "好的，我们开始吧！",
		},
		{
			name: "whitespace collapsed",
			in:   "  两   个  词  ",
			want: "两 个 词",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stylist.Apply(tc.in)
			if got != tc.want {
				t.Fatalf("Apply(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStylistApplyIsIdempotent(t *testing.T) {
	stylist := newTestStylist(t)

	inputs := []string{
		"智能体（Agent）可以调用工具",
		"此外，它——非常快",
		"好的,总而言之，这不可或缺!",
		"plain ascii text",
		"",
	}
	for _, in := range inputs {
		once := stylist.Apply(in)
		twice := stylist.Apply(once)
		if once != twice {
			t.Fatalf("Apply is not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestStylistKeepsParentheticalsWhenAllowed(t *testing.T) {
	persona, err := DefaultPersona()
	if err != nil {
		t.Fatalf("DefaultPersona: %v", err)
	}
	profile := subtitles.DefaultStyleProfile()
	profile.ForbidParentheticalOriginals = false

	stylist := NewStylist(profile, persona, "zh")
	in := "智能体（Agent）可以调用工具"
	if got := stylist.Apply(in); got != in {
		t.Fatalf("Apply(%q) = %q, want unchanged", in, got)
	}
}

func TestStylistSkipsFullWidthForLatinTargets(t *testing.T) {
	persona, err := DefaultPersona()
	if err != nil {
		t.Fatalf("DefaultPersona: %v", err)
	}
	stylist := NewStylist(subtitles.DefaultStyleProfile(), persona, "fr")

	in := "Bien, on commence!"
	if got := stylist.Apply(in); got != in {
		t.Fatalf("Apply(%q) = %q, want punctuation untouched", in, got)
	}
}
