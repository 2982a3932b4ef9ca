package triage

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

const defaultFlagNote = "Auto-flagged for urgent review"

// Keywords is the urgent-term table used for pre-screening.
type Keywords struct {
	Version string   `yaml:"version"`
	Note    string   `yaml:"note"`
	Terms   []string `yaml:"keywords"`

	normalized []string
}

func DefaultKeywords() (*Keywords, error) {
	return ParseKeywords(defaultKeywords)
}

// LoadKeywords reads a keyword table. An empty path yields the built-in table.
func LoadKeywords(path string) (*Keywords, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultKeywords()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	k, err := ParseKeywords(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return k, nil
}

func ParseKeywords(data []byte) (*Keywords, error) {
	var k Keywords
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, err
	}
	return NewKeywords(k.Note, k.Terms...)
}

func NewKeywords(note string, terms ...string) (*Keywords, error) {
	k := &Keywords{Note: strings.TrimSpace(note), Terms: terms}
	if k.Note == "" {
		k.Note = defaultFlagNote
	}
	seen := map[string]struct{}{}
	for _, t := range terms {
		n := strings.TrimSpace(normalize(t))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		k.normalized = append(k.normalized, n)
	}
	if len(k.normalized) == 0 {
		return nil, errors.New("keyword table is empty")
	}
	return k, nil
}

// Match returns the terms found in text, in table order.
func (k *Keywords) Match(text string) []string {
	haystack := normalize(text)
	var out []string
	for _, term := range k.normalized {
		if strings.Contains(haystack, " "+term) {
			out = append(out, term)
		}
	}
	return out
}

// normalize lower-cases s and collapses every run of non-alphanumerics
// into one space, with a leading and trailing space.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
