package translation

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"subweave/internal/subtitles"
)

//go:embed personas.yaml
var defaultPersonaData []byte

// Replacement is a literal phrase substitution applied to translated text.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// PatternRule is a regular-expression rewrite applied to translated text.
type PatternRule struct {
	Match   string `yaml:"match"`
	Replace string `yaml:"replace"`
}

// ToneGuide carries the prompt-side guidance for one tone.
type ToneGuide struct {
	Description string   `yaml:"description"`
	Guidance    []string `yaml:"guidance"`
}

// Persona bundles the tone guidance sent to the backend with the local
// rewrite rules the stylist applies to every translated line. Rules must be
// fixed points of themselves so the style pass stays idempotent across
// resumed runs.
type Persona struct {
	Tones         map[string]ToneGuide `yaml:"tones"`
	BannedPhrases []string             `yaml:"banned_phrases"`
	Replacements  []Replacement        `yaml:"replacements"`
	Patterns      []PatternRule        `yaml:"patterns"`

	compiled []compiledPattern
}

type compiledPattern struct {
	re      *regexp.Regexp
	replace string
}

// DefaultPersona returns the embedded rules.
func DefaultPersona() (*Persona, error) {
	return ParsePersona(defaultPersonaData)
}

// ParsePersona decodes persona rules from YAML and compiles the patterns.
func ParsePersona(data []byte) (*Persona, error) {
	var persona Persona
	if err := yaml.Unmarshal(data, &persona); err != nil {
		return nil, fmt.Errorf("parse persona rules: %w", err)
	}
	if err := persona.compile(); err != nil {
		return nil, err
	}
	return &persona, nil
}

// LoadPersona reads persona rules from a file. An empty path selects the
// embedded defaults.
func LoadPersona(path string) (*Persona, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPersona()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona rules: %w", err)
	}
	persona, err := ParsePersona(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return persona, nil
}

func (p *Persona) compile() error {
	p.compiled = nil
	for _, rule := range p.Patterns {
		re, err := regexp.Compile(rule.Match)
		if err != nil {
			return fmt.Errorf("persona pattern %q: %w", rule.Match, err)
		}
		p.compiled = append(p.compiled, compiledPattern{re: re, replace: rule.Replace})
	}
	return nil
}

// GuidanceFor returns the guidance for a tone, falling back to casual when
// the tone has no entry.
func (p *Persona) GuidanceFor(tone subtitles.Tone) ToneGuide {
	if p == nil || len(p.Tones) == 0 {
		return ToneGuide{}
	}
	if guide, ok := p.Tones[string(tone)]; ok {
		return guide
	}
	return p.Tones[string(subtitles.ToneCasual)]
}
