package feed

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
)

// Node is a JSON object with path-based navigation helpers. Lookups never
// panic on missing or mistyped data; callers get the zero value and apply
// their own fallbacks.
type Node map[string]any

// Child returns the object under key, or nil when absent or not an object
func (n Node) Child(key string) Node {
	if n == nil {
		return nil
	}
	if m, ok := n[key].(map[string]any); ok {
		return Node(m)
	}
	return nil
}

// String resolves a dotted path to a string value, trimmed. Numbers are
// rendered in their JSON form.
func (n Node) String(path string) string {
	v := n.lookup(path)
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return decimal.NewFromFloat(s).String()
	}
	return ""
}

// Number resolves a dotted path to a decimal. The feed renders numbers both
// as JSON numbers and as strings, sometimes with a comma decimal separator.
func (n Node) Number(path string) (decimal.Decimal, bool) {
	v := n.lookup(path)
	switch num := v.(type) {
	case float64:
		return decimal.NewFromFloat(num), true
	case json.Number:
		if d, err := decimal.NewFromString(num.String()); err == nil {
			return d, true
		}
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(num, ",", "."))
		if s == "" {
			return decimal.Zero, false
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// Slice returns the array of objects under key
func (n Node) Slice(key string) []Node {
	if n == nil {
		return nil
	}
	arr, ok := n[key].([]any)
	if !ok {
		return nil
	}
	nodes := make([]Node, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			nodes = append(nodes, Node(m))
		}
	}
	return nodes
}

// Strings returns the array of strings under key
func (n Node) Strings(key string) []string {
	if n == nil {
		return nil
	}
	arr, ok := n[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ByLanguage interprets the object under key as a language-keyed map of
// objects. Language codes are lowercased.
func (n Node) ByLanguage(key string) map[string]Node {
	child := n.Child(key)
	if child == nil {
		return nil
	}
	out := make(map[string]Node, len(child))
	for lang, v := range child {
		if m, ok := v.(map[string]any); ok {
			out[strings.ToLower(lang)] = Node(m)
		}
	}
	return out
}

func (n Node) lookup(path string) any {
	cur := n
	parts := strings.Split(path, ".")
	for i, part := range parts {
		if cur == nil {
			return nil
		}
		if i == len(parts)-1 {
			return cur[part]
		}
		cur = cur.Child(part)
	}
	return nil
}

// Document is one parsed top-level product document from the feed
type Document struct {
	Node
	Source string
}

// ParseDocument decodes a raw product document. Malformed JSON or a
// non-object root is a ParseError and is never retried.
func ParseDocument(data []byte, source string) (*Document, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, syncdomain.NewParseError(source, err)
	}
	return &Document{Node: Node(root), Source: source}, nil
}

// Unstructured returns the language-independent unstructured info block
func (d *Document) Unstructured() Node {
	return d.Child("UnstructuredInformation")
}

// General returns the language-independent structured details block
func (d *Document) General() Node {
	return d.Child("GeneralInformation")
}

// DetailsByLanguage returns the per-language details map
func (d *Document) DetailsByLanguage() map[string]Node {
	return d.ByLanguage("ProductDetails")
}

// Children returns the child (variant) records in document order
func (d *Document) Children() []ChildRecord {
	nodes := d.Slice("ChildProducts")
	children := make([]ChildRecord, len(nodes))
	for i, n := range nodes {
		children[i] = ChildRecord{Node: n, Index: i}
	}
	return children
}

// ChildRecord is one child (variant) record of a product document. Index is
// the document-order position, which drives primary-variant selection.
type ChildRecord struct {
	Node
	Index int
}

// SKU returns the child's own SKU, empty when the feed omits it
func (c ChildRecord) SKU() string {
	return c.String("Sku")
}

// DetailsByLanguage returns the per-language child details map
func (c ChildRecord) DetailsByLanguage() map[string]Node {
	return c.ByLanguage("ChildProductDetails")
}

// ConfigurationFields returns the structured configuration field list the
// default color/size resolver scans.
func (c ChildRecord) ConfigurationFields() []ConfigField {
	nodes := c.Slice("ConfigurationFields")
	fields := make([]ConfigField, 0, len(nodes))
	for _, n := range nodes {
		fields = append(fields, ConfigField{node: n})
	}
	return fields
}

// ImageURL returns the child's primary image source URL
func (c ChildRecord) ImageURL() string {
	return c.String("ImageUrl")
}

// GalleryURLs returns additional image source URLs in document order
func (c ChildRecord) GalleryURLs() []string {
	return c.Strings("MediaGalleryImages")
}

// HexColor returns the child's hex color code when present
func (c ChildRecord) HexColor() string {
	return c.String("HexColor")
}

// ConfigField is one entry of a child's configuration field list. Field
// names arrive per language; values are language-independent codes.
type ConfigField struct {
	node Node
}

// Names returns every language rendition of the field name, lowercased
func (f ConfigField) Names() []string {
	switch v := f.node["Name"].(type) {
	case string:
		return []string{strings.ToLower(v)}
	case map[string]any:
		names := make([]string, 0, len(v))
		for _, name := range v {
			if s, ok := name.(string); ok {
				names = append(names, strings.ToLower(s))
			}
		}
		return names
	}
	return nil
}

// Value returns the field value code
func (f ConfigField) Value() string {
	return f.node.String("Value")
}
