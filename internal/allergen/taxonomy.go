package allergen

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

type taxonomyFile struct {
	Allergens []struct {
		Code     string   `yaml:"code"`
		Label    string   `yaml:"label"`
		Synonyms []string `yaml:"synonyms"`
	} `yaml:"allergens"`
}

// Taxonomy is the closed set of allergen codes plus the spellings that fold
// onto each code.
type Taxonomy struct {
	order     []string
	labels    map[string]string
	canonical map[string]string
	rank      map[string]int
}

// ParseTaxonomy reads a YAML taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var doc taxonomyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if len(doc.Allergens) == 0 {
		return nil, fmt.Errorf("taxonomy defines no allergens")
	}

	t := &Taxonomy{
		labels:    make(map[string]string),
		canonical: make(map[string]string),
		rank:      make(map[string]int),
	}
	for _, entry := range doc.Allergens {
		code := normalizeKey(entry.Code)
		if code == "" {
			return nil, fmt.Errorf("taxonomy entry without code")
		}
		if owner, ok := t.canonical[code]; ok {
			return nil, fmt.Errorf("code %q already maps to %q", code, owner)
		}
		t.rank[code] = len(t.order)
		t.order = append(t.order, code)
		t.labels[code] = entry.Label
		t.canonical[code] = code

		for _, synonym := range entry.Synonyms {
			key := normalizeKey(synonym)
			if key == "" {
				continue
			}
			if owner, ok := t.canonical[key]; ok && owner != code {
				return nil, fmt.Errorf("synonym %q maps to both %q and %q", synonym, owner, code)
			}
			t.canonical[key] = code
		}
	}
	return t, nil
}

var loadDefault = sync.OnceValue(func() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("allergen: embedded taxonomy: %v", err))
	}
	return t
})

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	return loadDefault()
}

func normalizeKey(code string) string {
	key := strings.ToLower(strings.TrimSpace(code))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return key
}

// Canonical maps any known spelling onto its canonical code.
func (t *Taxonomy) Canonical(code string) (string, bool) {
	c, ok := t.canonical[normalizeKey(code)]
	return c, ok
}

// Valid reports whether code is a member of the closed set exactly as given.
func (t *Taxonomy) Valid(code string) bool {
	_, ok := t.rank[code]
	return ok
}

// Codes returns the closed set in declaration order.
func (t *Taxonomy) Codes() []string {
	return append([]string(nil), t.order...)
}

// Label is the display name for a canonical code, "" for unknown codes.
func (t *Taxonomy) Label(code string) string {
	return t.labels[code]
}

// Consolidate folds synonyms onto canonical codes, drops anything outside
// the closed set, removes duplicates and sorts by declaration order. The
// result is never nil.
func (t *Taxonomy) Consolidate(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if c, ok := t.Canonical(code); ok {
			seen[c] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for _, code := range t.order {
		if _, ok := seen[code]; ok {
			out = append(out, code)
		}
	}
	return out
}

// Contains reports whether any of codes consolidates onto target.
func (t *Taxonomy) Contains(codes []string, target string) bool {
	for _, code := range codes {
		if c, ok := t.Canonical(code); ok && c == target {
			return true
		}
	}
	return false
}
