package syncapp

import (
	"sort"

	"github.com/catalogsync/backend/internal/infrastructure/feed"
)

// UnknownColor is the sentinel group key for children whose color code
// cannot be decoded.
const UnknownColor = "unknown"

// ColorGroup is the grouping result for one color of a parent product. Only
// the primary member is materialized as a ProductVariant; the other members
// contribute their size to Sizes.
type ColorGroup struct {
	ColorCode       string
	Members         []feed.ChildRecord
	Primary         feed.ChildRecord
	PrimaryIndex    int
	PrimarySize     string
	Sizes           []string
	EmbroiderySizes []string
	IsServiceBase   bool
}

// GroupVariants groups a product's child records by decoded color code.
// Group order is the first-seen order of colors; Sizes is the distinct,
// sorted set of decoded size codes across all members. The profile's primary
// rule and post rule are applied per group.
//
// Grouping is deterministic: identical input yields identical primary
// selection and size lists, and the size set does not depend on the order of
// non-primary siblings.
func GroupVariants(children []feed.ChildRecord, profile *SupplierProfile) []ColorGroup {
	resolver := profile.Resolver
	if resolver == nil {
		resolver = DefaultResolver
	}

	type bucket struct {
		members []feed.ChildRecord
		sizes   []string
	}
	var colorOrder []string
	buckets := make(map[string]*bucket)

	for _, child := range children {
		codes := resolver(child)
		key := codes.Color
		if key == "" {
			key = UnknownColor
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			colorOrder = append(colorOrder, key)
		}
		b.members = append(b.members, child)
		if codes.Size != "" {
			b.sizes = append(b.sizes, codes.Size)
		}
	}

	groups := make([]ColorGroup, 0, len(colorOrder))
	for _, color := range colorOrder {
		b := buckets[color]
		group := ColorGroup{
			ColorCode: color,
			Members:   b.members,
			Sizes:     distinctSorted(b.sizes),
		}

		idx := 0
		if profile.SelectPrimary != nil {
			idx = profile.SelectPrimary(b.members)
			if idx < 0 || idx >= len(b.members) {
				idx = 0
			}
		}
		group.Primary = b.members[idx]
		group.PrimaryIndex = idx

		if profile.PostProcess != nil {
			profile.PostProcess(&group)
		}
		group.PrimarySize = resolver(group.Primary).Size
		groups = append(groups, group)
	}
	return groups
}

// distinctSorted returns the deduplicated, sorted copy of values
func distinctSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
