package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LocalizedText maps a lowercase language code (e.g. "en", "nl") to a value.
// Insertion order is irrelevant; consumers resolve by language priority.
type LocalizedText map[string]string

// NewLocalizedText creates a LocalizedText with a single entry
func NewLocalizedText(lang, value string) LocalizedText {
	if value == "" {
		return LocalizedText{}
	}
	return LocalizedText{lang: value}
}

// Resolve returns the value for the first priority language that has a
// non-empty entry. When no priority language matches, any remaining entry is
// returned (smallest language code first, so the pick is stable).
func (t LocalizedText) Resolve(priority []string) string {
	for _, lang := range priority {
		if v, ok := t[lang]; ok && v != "" {
			return v
		}
	}
	langs := make([]string, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if t[lang] != "" {
			return t[lang]
		}
	}
	return ""
}

// IsEmpty reports whether no language carries a value
func (t LocalizedText) IsEmpty() bool {
	for _, v := range t {
		if v != "" {
			return false
		}
	}
	return true
}

// Equal compares two localized texts independent of map iteration order
func (t LocalizedText) Equal(other LocalizedText) bool {
	if len(t) != len(other) {
		return false
	}
	for lang, v := range t {
		if other[lang] != v {
			return false
		}
	}
	return true
}

// PhysicalAttributes holds the physical measurements of a product or variant.
// All values are optional; zero means "not provided by the feed".
type PhysicalAttributes struct {
	WeightKg decimal.Decimal `json:"weight_kg"`
	LengthCm decimal.Decimal `json:"length_cm"`
	WidthCm  decimal.Decimal `json:"width_cm"`
	HeightCm decimal.Decimal `json:"height_cm"`
}

// IsZero reports whether no attribute carries a value
func (p PhysicalAttributes) IsZero() bool {
	return p.WeightKg.IsZero() && p.LengthCm.IsZero() && p.WidthCm.IsZero() && p.HeightCm.IsZero()
}

// Equal compares attributes by numeric value rather than exponent form
func (p PhysicalAttributes) Equal(other PhysicalAttributes) bool {
	return p.WeightKg.Equal(other.WeightKg) &&
		p.LengthCm.Equal(other.LengthCm) &&
		p.WidthCm.Equal(other.WidthCm) &&
		p.HeightCm.Equal(other.HeightCm)
}
