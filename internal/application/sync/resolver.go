package syncapp

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
)

// VariantCodes are the decoded color and size codes of one child record.
// Either may be empty when the feed carries no such attribute.
type VariantCodes struct {
	Color string
	Size  string
}

// VariantCodeResolver decodes the color/size codes of a child record.
// Resolvers are pure and never fail; missing data yields empty codes.
type VariantCodeResolver func(child feed.ChildRecord) VariantCodes

// PrimaryRule selects the index of the primary member of a color group.
// The default rule keeps the first member in document order.
type PrimaryRule func(members []feed.ChildRecord) int

// PostRule adjusts a finished color group for vendor-specific behavior
// (e.g. embroidery-size aggregation).
type PostRule func(group *ColorGroup)

// SupplierProfile bundles the vendor-specific sync behavior for one
// supplier-code prefix.
type SupplierProfile struct {
	Prefix        string
	DisplayName   string
	Resolver      VariantCodeResolver
	SelectPrimary PrimaryRule
	PostProcess   PostRule
}

// Locale-aware vocabularies the default resolver matches configuration
// field names against.
var (
	colorFieldNames = []string{"color", "colour", "kleur", "couleur"}
	sizeFieldNames  = []string{"size", "maat", "taille", "afmeting"}
)

// DefaultResolver reads the child's structured configuration field list and
// pattern-matches field names against the color/size vocabulary.
func DefaultResolver(child feed.ChildRecord) VariantCodes {
	var codes VariantCodes
	for _, field := range child.ConfigurationFields() {
		value := field.Value()
		if value == "" {
			continue
		}
		for _, name := range field.Names() {
			if codes.Color == "" && matchesAny(name, colorFieldNames) {
				codes.Color = value
			}
			if codes.Size == "" && matchesAny(name, sizeFieldNames) {
				codes.Size = value
			}
		}
	}
	return codes
}

func matchesAny(name string, vocabulary []string) bool {
	for _, word := range vocabulary {
		if strings.Contains(name, word) {
			return true
		}
	}
	return false
}

// skuSegmentPattern matches SKUs with a three-segment numeric suffix; the
// middle segment is the color code and the last one the size code.
var skuSegmentPattern = regexp.MustCompile(`-(\d+)-(\d+)-(\d+)$`)

// SKUSegmentResolver decodes the codes from the SKU string itself, used by
// suppliers that do not populate configuration fields.
func SKUSegmentResolver(child feed.ChildRecord) VariantCodes {
	m := skuSegmentPattern.FindStringSubmatch(child.SKU())
	if m == nil {
		return VariantCodes{}
	}
	return VariantCodes{Color: m[2], Size: m[3]}
}

// FirstInDocumentOrder is the default primary rule
func FirstInDocumentOrder(_ []feed.ChildRecord) int {
	return 0
}

var (
	salesSKUSuffix    = "-SALE"
	embroideryOptions = regexp.MustCompile(`-E(\d+)$`)
)

// EmbroideryPostRule reassigns the primary to the designated sales SKU and
// rolls the numeric suffixes of the option SKU family up into the group's
// embroidery sizes.
func EmbroideryPostRule(group *ColorGroup) {
	sizes := make([]string, 0, len(group.Members))
	seen := make(map[string]struct{})
	for i, member := range group.Members {
		sku := member.SKU()
		if strings.HasSuffix(sku, salesSKUSuffix) {
			group.Primary = member
			group.PrimaryIndex = i
			group.IsServiceBase = true
		}
		if m := embroideryOptions.FindStringSubmatch(sku); m != nil {
			if _, dup := seen[m[1]]; !dup {
				seen[m[1]] = struct{}{}
				sizes = append(sizes, m[1])
			}
		}
	}
	sort.Slice(sizes, func(i, j int) bool {
		if len(sizes[i]) != len(sizes[j]) {
			return len(sizes[i]) < len(sizes[j])
		}
		return sizes[i] < sizes[j]
	})
	group.EmbroiderySizes = sizes
}

// seedProfiles is the built-in bootstrap table. Supplier display names are
// enriched from the Supplier entity at run time; this table only covers
// bootstrap/migration before the store knows a supplier.
func seedProfiles() []*SupplierProfile {
	return []*SupplierProfile{
		{
			Prefix:        "A113",
			DisplayName:   "Clipper Workwear",
			Resolver:      SKUSegmentResolver,
			SelectPrimary: FirstInDocumentOrder,
		},
		{
			Prefix:        "A360",
			DisplayName:   "Stitch & Logo Services",
			Resolver:      DefaultResolver,
			SelectPrimary: FirstInDocumentOrder,
			PostProcess:   EmbroideryPostRule,
		},
	}
}

// ProfileRegistry resolves the supplier profile and display name for a
// supplier code. Profiles use longest-prefix matching; unknown suppliers get
// the default profile.
type ProfileRegistry struct {
	profiles  map[string]*SupplierProfile
	suppliers catalog.SupplierRepository
}

// NewProfileRegistry creates a registry seeded with the built-in profiles.
// suppliers may be nil; then only the seed table backs display names.
func NewProfileRegistry(suppliers catalog.SupplierRepository) *ProfileRegistry {
	r := &ProfileRegistry{
		profiles:  make(map[string]*SupplierProfile),
		suppliers: suppliers,
	}
	for _, p := range seedProfiles() {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a profile for its prefix
func (r *ProfileRegistry) Register(p *SupplierProfile) {
	if p.Resolver == nil {
		p.Resolver = DefaultResolver
	}
	if p.SelectPrimary == nil {
		p.SelectPrimary = FirstInDocumentOrder
	}
	r.profiles[strings.ToUpper(p.Prefix)] = p
}

// ProfileFor returns the profile for a supplier code by longest prefix
// match, falling back to the default profile.
func (r *ProfileRegistry) ProfileFor(supplierCode string) *SupplierProfile {
	supplierCode = strings.ToUpper(supplierCode)
	var best *SupplierProfile
	for prefix, p := range r.profiles {
		if strings.HasPrefix(supplierCode, prefix) {
			if best == nil || len(prefix) > len(best.Prefix) {
				best = p
			}
		}
	}
	if best != nil {
		return best
	}
	return &SupplierProfile{
		Prefix:        supplierCode,
		Resolver:      DefaultResolver,
		SelectPrimary: FirstInDocumentOrder,
	}
}

// DisplayName resolves the supplier display name: the Supplier entity wins,
// then the seed table, then the code itself.
func (r *ProfileRegistry) DisplayName(ctx context.Context, supplierCode string) string {
	if r.suppliers != nil {
		// Lookup failures fall through to the seed table
		if s, err := r.suppliers.FindByCode(ctx, supplierCode); err == nil && s.DisplayName != "" {
			return s.DisplayName
		}
	}
	if p, ok := r.profiles[strings.ToUpper(supplierCode)]; ok && p.DisplayName != "" {
		return p.DisplayName
	}
	return strings.ToUpper(supplierCode)
}
