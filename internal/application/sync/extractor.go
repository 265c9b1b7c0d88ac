package syncapp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
)

// langIndependent is the pseudo language key emitted by sources whose values
// carry no language; such values are attributed to the preferred language.
const langIndependent = ""

// localizedSource is one extraction strategy. Sources are evaluated in a
// fixed order; the first source to provide a value for a language wins.
type localizedSource struct {
	name    string
	collect func(doc *feed.Document, field string) map[string]string
}

// documentSources is the fixed precedence for localized field extraction:
// the language-independent unstructured block, the language-independent
// structured block, then the per-language details map.
var documentSources = []localizedSource{
	{
		name: "unstructured",
		collect: func(doc *feed.Document, field string) map[string]string {
			if v := doc.Unstructured().String(field); v != "" {
				return map[string]string{langIndependent: v}
			}
			return nil
		},
	},
	{
		name: "general",
		collect: func(doc *feed.Document, field string) map[string]string {
			if v := doc.General().String(field); v != "" {
				return map[string]string{langIndependent: v}
			}
			return nil
		},
	},
	{
		name: "details",
		collect: func(doc *feed.Document, field string) map[string]string {
			out := make(map[string]string)
			for lang, details := range doc.DetailsByLanguage() {
				if v := details.String(field); v != "" {
					out[lang] = v
				}
			}
			return out
		},
	},
}

// ExtractLocalized pulls a localized field from a product document. It never
// fails on missing data: the result is empty (or carries the fallback) and
// callers apply their own business defaults.
//
// The returned map always contains the first priority language when any
// value was found at all, so a value living only in a language-independent
// block is still addressable through the priority list.
func ExtractLocalized(doc *feed.Document, field string, priority []string, fallback string) catalog.LocalizedText {
	preferred := preferredLanguage(priority)
	result := catalog.LocalizedText{}

	for _, src := range documentSources {
		for lang, value := range src.collect(doc, field) {
			if lang == langIndependent {
				lang = preferred
			}
			if _, taken := result[lang]; !taken {
				result[lang] = value
			}
		}
	}

	primary := primaryValue(result, priority, fallback)
	if primary == "" {
		return result
	}
	if result[preferred] == "" {
		result[preferred] = primary
	}
	return result
}

// primaryValue picks the display value: first non-empty in priority order,
// else the first found at all (stable), else the fallback.
func primaryValue(values catalog.LocalizedText, priority []string, fallback string) string {
	for _, lang := range priority {
		if v := values[lang]; v != "" {
			return v
		}
	}
	langs := make([]string, 0, len(values))
	for lang := range values {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if values[lang] != "" {
			return values[lang]
		}
	}
	return fallback
}

func preferredLanguage(priority []string) string {
	if len(priority) > 0 {
		return priority[0]
	}
	return "en"
}

var (
	lineBreakTags  = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseTags = regexp.MustCompile(`(?i)</(p|div|li|ul|ol|h[1-6]|tr|table)\s*>`)
	anyTag         = regexp.MustCompile(`<[^>]*>`)
	spaceRuns      = regexp.MustCompile("[ \t ]+")
	spacedNewline  = regexp.MustCompile(` ?\n ?`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)

	// single pass, so already-decoded ampersands are not re-expanded
	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
)

// CleanText converts feed HTML to plain text: line-break and block-closing
// tags become newlines, remaining tags are stripped, the five standard
// entities are decoded, whitespace runs collapse to one space while single
// and double newlines survive, and the ends are trimmed.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = lineBreakTags.ReplaceAllString(s, "\n")
	s = blockCloseTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = spacedNewline.ReplaceAllString(s, "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// physicalPaths lists the candidate paths per attribute, tried in order.
// The feed spells these differently per supplier generation.
var physicalPaths = map[string][]string{
	"weight": {"NetWeight", "Weight", "WeightInKg"},
	"length": {"Length", "DimensionLength"},
	"width":  {"Width", "DimensionWidth"},
	"height": {"Height", "DimensionHeight"},
}

// ExtractPhysical pulls the physical attributes from a structured block.
// Missing or malformed values stay zero.
func ExtractPhysical(n feed.Node) catalog.PhysicalAttributes {
	attrs := catalog.PhysicalAttributes{}
	for _, path := range physicalPaths["weight"] {
		if v, ok := n.Number(path); ok {
			attrs.WeightKg = v
			break
		}
	}
	for _, path := range physicalPaths["length"] {
		if v, ok := n.Number(path); ok {
			attrs.LengthCm = v
			break
		}
	}
	for _, path := range physicalPaths["width"] {
		if v, ok := n.Number(path); ok {
			attrs.WidthCm = v
			break
		}
	}
	for _, path := range physicalPaths["height"] {
		if v, ok := n.Number(path); ok {
			attrs.HeightCm = v
			break
		}
	}
	return attrs
}

// ExtractChildLocalized pulls a localized field from a child record's
// per-language details. A child that carries the field only as a flat
// language-independent value gets it filed under the first priority language.
func ExtractChildLocalized(child feed.ChildRecord, field string, priority []string) catalog.LocalizedText {
	result := catalog.LocalizedText{}
	for lang, details := range child.DetailsByLanguage() {
		if v := details.String(field); v != "" {
			result[lang] = v
		}
	}
	if len(result) == 0 {
		if v := child.String(field); v != "" {
			result[preferredLanguage(priority)] = v
		}
	}
	return result
}
