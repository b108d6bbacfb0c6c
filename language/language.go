// Package language resolves language codes to profiles, localized templates
// and keyword lists, and guesses a language from the script of the input.
package language

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCode = "en"
	DefaultName = "English"
	AutoCode    = "auto"
)

//go:embed profiles.yaml
var profilesYAML []byte

type Profile struct {
	Code      string              `yaml:"code" json:"code"`
	Name      string              `yaml:"name" json:"name"`
	Script    string              `yaml:"script" json:"script"`
	Templates map[string]string   `yaml:"templates" json:"templates,omitempty"`
	Keywords  map[string][]string `yaml:"keywords" json:"keywords,omitempty"`
}

type profileTable struct {
	Default   string    `yaml:"default"`
	Detection []string  `yaml:"detection"`
	Languages []Profile `yaml:"languages"`
}

type scriptDetector struct {
	code  string
	table *unicode.RangeTable
}

// Resolver is read-only after construction and safe for concurrent use.
type Resolver struct {
	profiles  map[string]Profile
	order     []string
	fallback  string
	detectors []scriptDetector
}

// NewResolver loads the embedded language table.
func NewResolver() (*Resolver, error) {
	return parseResolver(profilesYAML)
}

func parseResolver(data []byte) (*Resolver, error) {
	var table profileTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("error parsing language profiles: %w", err)
	}

	r := &Resolver{
		profiles: make(map[string]Profile, len(table.Languages)),
		fallback: table.Default,
	}
	if r.fallback == "" {
		r.fallback = DefaultCode
	}

	for _, p := range table.Languages {
		p.Code = strings.ToLower(p.Code)
		if _, dup := r.profiles[p.Code]; dup {
			return nil, fmt.Errorf("duplicate language profile %q", p.Code)
		}
		r.profiles[p.Code] = p
		r.order = append(r.order, p.Code)
	}

	if _, ok := r.profiles[r.fallback]; !ok {
		return nil, fmt.Errorf("default language %q has no profile", r.fallback)
	}

	for _, code := range table.Detection {
		p, ok := r.profiles[code]
		if !ok {
			return nil, fmt.Errorf("detection language %q has no profile", code)
		}
		rt, ok := unicode.Scripts[p.Script]
		if !ok {
			return nil, fmt.Errorf("unknown script %q for language %q", p.Script, code)
		}
		r.detectors = append(r.detectors, scriptDetector{code: code, table: rt})
	}

	return r, nil
}

// Resolve returns the profile for code, or the default profile on a miss.
func (r *Resolver) Resolve(code string) Profile {
	if p, ok := r.profiles[strings.ToLower(code)]; ok {
		return p
	}
	return r.profiles[r.fallback]
}

// Detect returns the language of the first rune that belongs to a known
// script. Mixed-script text resolves to whichever script appears first.
func (r *Resolver) Detect(text string) string {
	for _, ch := range text {
		for _, d := range r.detectors {
			if unicode.Is(d.table, ch) {
				return d.code
			}
		}
	}
	return r.fallback
}

// Template returns the localized template for key. Missing languages and
// missing keys fall back to the default language; the result may be empty.
func (r *Resolver) Template(code, key string) string {
	p, ok := r.profiles[strings.ToLower(code)]
	if !ok || len(p.Templates) == 0 {
		p = r.profiles[r.fallback]
	}
	if t, ok := p.Templates[key]; ok {
		return t
	}
	return r.profiles[r.fallback].Templates[key]
}

func (r *Resolver) IsSupported(code string) bool {
	_, ok := r.profiles[strings.ToLower(code)]
	return ok
}

func (r *Resolver) Name(code string) string {
	if p, ok := r.profiles[strings.ToLower(code)]; ok {
		return p.Name
	}
	return DefaultName
}

// Supported maps every known code to its display name.
func (r *Resolver) Supported() map[string]string {
	out := make(map[string]string, len(r.profiles))
	for code, p := range r.profiles {
		out[code] = p.Name
	}
	return out
}

// Codes lists the supported codes in table order.
func (r *Resolver) Codes() []string {
	return append([]string(nil), r.order...)
}

// Keywords returns topic keywords for code, falling back to the default language.
func (r *Resolver) Keywords(code string) map[string][]string {
	if p, ok := r.profiles[strings.ToLower(code)]; ok && len(p.Keywords) > 0 {
		return p.Keywords
	}
	return r.profiles[r.fallback].Keywords
}

// ResolveRequested picks the response language for a request. An omitted
// code answers in the default language. "auto" or an unsupported code is
// resolved by detecting the script of text.
func (r *Resolver) ResolveRequested(requested, text string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested == "" {
		return r.fallback
	}
	if requested == AutoCode || !r.IsSupported(requested) {
		return r.Detect(text)
	}
	return requested
}
