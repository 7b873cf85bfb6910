package subtitles

// Layout selects which language tracks appear in the composed presentation.
type Layout string

const (
	LayoutBilingual     Layout = "bilingual"
	LayoutPrimaryOnly   Layout = "primary_only"
	LayoutSecondaryOnly Layout = "secondary_only"
)

// ParseLayout normalizes a layout name. Unknown values fall back to bilingual.
func ParseLayout(value string) Layout {
	switch Layout(value) {
	case LayoutPrimaryOnly:
		return LayoutPrimaryOnly
	case LayoutSecondaryOnly:
		return LayoutSecondaryOnly
	default:
		return LayoutBilingual
	}
}

// BoxStyle selects the caption background treatment.
type BoxStyle string

const (
	BoxStyleBox     BoxStyle = "box"
	BoxStyleOutline BoxStyle = "outline"
	BoxStyleNone    BoxStyle = "none"
)

// Tone names the register the stylist rewrites translations into.
type Tone string

const (
	ToneCasual Tone = "casual"
	ToneFormal Tone = "formal"
	ToneEdgy   Tone = "edgy"
)

// StyleProfile carries every presentation and styling decision for one run.
// It is immutable once the run starts; both the stylist and the renderer read
// it, neither writes it.
type StyleProfile struct {
	Tone                         Tone
	ForbidParentheticalOriginals bool
	MaxLineWidth                 int
	Box                          BoxStyle

	PrimaryFont       string
	PrimaryFontSize   int
	PrimaryColour     string
	SecondaryFont     string
	SecondaryFontSize int
	SecondaryColour   string
	MarginVertical    int
	PlayResX          int
	PlayResY          int
}

// DefaultStyleProfile returns the profile used when nothing is configured:
// casual tone, boxed bilingual captions at 1080p.
func DefaultStyleProfile() StyleProfile {
	return StyleProfile{
		Tone:                         ToneCasual,
		ForbidParentheticalOriginals: true,
		MaxLineWidth:                 42,
		Box:                          BoxStyleBox,
		PrimaryFont:                  "KaiTi",
		PrimaryFontSize:              60,
		PrimaryColour:                "&H00FFFFFF",
		SecondaryFont:                "Arial",
		SecondaryFontSize:            36,
		SecondaryColour:              "&H00D0D0D0",
		MarginVertical:               24,
		PlayResX:                     1920,
		PlayResY:                     1080,
	}
}

// normalized fills zero-valued fields from the defaults so the renderer stays
// deterministic for sparse profiles.
func (p StyleProfile) normalized() StyleProfile {
	def := DefaultStyleProfile()
	if p.Tone == "" {
		p.Tone = def.Tone
	}
	if p.MaxLineWidth <= 0 {
		p.MaxLineWidth = def.MaxLineWidth
	}
	if p.Box == "" {
		p.Box = def.Box
	}
	if p.PrimaryFont == "" {
		p.PrimaryFont = def.PrimaryFont
	}
	if p.PrimaryFontSize <= 0 {
		p.PrimaryFontSize = def.PrimaryFontSize
	}
	if p.PrimaryColour == "" {
		p.PrimaryColour = def.PrimaryColour
	}
	if p.SecondaryFont == "" {
		p.SecondaryFont = def.SecondaryFont
	}
	if p.SecondaryFontSize <= 0 {
		p.SecondaryFontSize = def.SecondaryFontSize
	}
	if p.SecondaryColour == "" {
		p.SecondaryColour = def.SecondaryColour
	}
	if p.MarginVertical <= 0 {
		p.MarginVertical = def.MarginVertical
	}
	if p.PlayResX <= 0 {
		p.PlayResX = def.PlayResX
	}
	if p.PlayResY <= 0 {
		p.PlayResY = def.PlayResY
	}
	return p
}
