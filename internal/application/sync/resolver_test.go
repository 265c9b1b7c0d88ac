package syncapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
)

func childFromJSON(t *testing.T, raw string) feed.ChildRecord {
	t.Helper()
	doc := mustDocument(t, `{"ChildProducts": [`+raw+`]}`)
	children := doc.Children()
	require.Len(t, children, 1)
	return children[0]
}

func TestDefaultResolverMatchesVocabulary(t *testing.T) {
	tests := []struct {
		name  string
		child string
		want  VariantCodes
	}{
		{
			"english names",
			`{"ConfigurationFields": [
				{"Name": "Color", "Value": "990"},
				{"Name": "Size", "Value": "M"}
			]}`,
			VariantCodes{Color: "990", Size: "M"},
		},
		{
			"dutch names",
			`{"ConfigurationFields": [
				{"Name": "Kleur", "Value": "110"},
				{"Name": "Maat", "Value": "XL"}
			]}`,
			VariantCodes{Color: "110", Size: "XL"},
		},
		{
			"language-keyed names",
			`{"ConfigurationFields": [
				{"Name": {"en": "Colour", "fr": "Couleur"}, "Value": "200"},
				{"Name": {"fr": "Taille"}, "Value": "38"}
			]}`,
			VariantCodes{Color: "200", Size: "38"},
		},
		{
			"substring match",
			`{"ConfigurationFields": [
				{"Name": "Product color code", "Value": "300"}
			]}`,
			VariantCodes{Color: "300"},
		},
		{
			"unrelated fields",
			`{"ConfigurationFields": [
				{"Name": "Fabric", "Value": "Cotton"}
			]}`,
			VariantCodes{},
		},
		{
			"empty values skipped",
			`{"ConfigurationFields": [
				{"Name": "Color", "Value": ""},
				{"Name": "Kleur", "Value": "400"}
			]}`,
			VariantCodes{Color: "400"},
		},
		{"no fields", `{"Sku": "X"}`, VariantCodes{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultResolver(childFromJSON(t, tt.child)))
		})
	}
}

func TestDefaultResolverFirstMatchWins(t *testing.T) {
	child := childFromJSON(t, `{"ConfigurationFields": [
		{"Name": "Color", "Value": "990"},
		{"Name": "Colour", "Value": "111"}
	]}`)
	assert.Equal(t, VariantCodes{Color: "990"}, DefaultResolver(child))
}

func TestSKUSegmentResolver(t *testing.T) {
	tests := []struct {
		sku  string
		want VariantCodes
	}{
		{"A113-100804-990-3", VariantCodes{Color: "990", Size: "3"}},
		{"A113-100804-110-12", VariantCodes{Color: "110", Size: "12"}},
		{"A113-100804", VariantCodes{}},
		// All three trailing segments must be numeric
		{"A113-ABC-990-3", VariantCodes{}},
		{"", VariantCodes{}},
	}
	for _, tt := range tests {
		t.Run(tt.sku, func(t *testing.T) {
			child := childFromJSON(t, `{"Sku": "`+tt.sku+`"}`)
			assert.Equal(t, tt.want, SKUSegmentResolver(child))
		})
	}
}

func TestEmbroideryPostRule(t *testing.T) {
	doc := mustDocument(t, `{"ChildProducts": [
		{"Sku": "A360-500-E10"},
		{"Sku": "A360-500-E2"},
		{"Sku": "A360-500-SALE"},
		{"Sku": "A360-500-E10"},
		{"Sku": "A360-500-OTHER"}
	]}`)
	members := doc.Children()

	group := ColorGroup{
		Members: members,
		Primary: members[0],
	}
	EmbroideryPostRule(&group)

	// The sales SKU becomes the primary and marks a service base
	assert.Equal(t, "A360-500-SALE", group.Primary.SKU())
	assert.Equal(t, 2, group.PrimaryIndex)
	assert.True(t, group.IsServiceBase)

	// Option suffixes are deduplicated and sorted numerically via
	// length-then-lexicographic ordering
	assert.Equal(t, []string{"2", "10"}, group.EmbroiderySizes)
}

func TestEmbroideryPostRuleWithoutSalesSKU(t *testing.T) {
	doc := mustDocument(t, `{"ChildProducts": [
		{"Sku": "A360-500-E5"},
		{"Sku": "A360-500-E7"}
	]}`)
	members := doc.Children()

	group := ColorGroup{Members: members, Primary: members[0]}
	EmbroideryPostRule(&group)

	// Primary selection stays untouched when no sales SKU exists
	assert.Equal(t, "A360-500-E5", group.Primary.SKU())
	assert.False(t, group.IsServiceBase)
	assert.Equal(t, []string{"5", "7"}, group.EmbroiderySizes)
}

func TestProfileRegistryLongestPrefixWins(t *testing.T) {
	r := NewProfileRegistry(nil)
	r.Register(&SupplierProfile{Prefix: "A1", DisplayName: "Short"})
	r.Register(&SupplierProfile{Prefix: "A113", DisplayName: "Clipper Workwear"})

	assert.Equal(t, "A113", r.ProfileFor("a113").Prefix)
	assert.Equal(t, "A1", r.ProfileFor("A199").Prefix)
}

func TestProfileRegistryDefaultProfile(t *testing.T) {
	r := NewProfileRegistry(nil)
	p := r.ProfileFor("Z999")
	require.NotNil(t, p)
	require.NotNil(t, p.Resolver)
	require.NotNil(t, p.SelectPrimary)
	assert.Nil(t, p.PostProcess)
}

func TestProfileRegistrySeeds(t *testing.T) {
	r := NewProfileRegistry(nil)

	a113 := r.ProfileFor("A113")
	assert.Equal(t, "A113", a113.Prefix)
	assert.Nil(t, a113.PostProcess)

	a360 := r.ProfileFor("A360")
	assert.NotNil(t, a360.PostProcess)
}

func TestDisplayNameResolution(t *testing.T) {
	ctx := context.Background()

	// Stored supplier entity wins
	suppliers := newMemSupplierRepo()
	stored, err := catalog.NewSupplier("A113", "Clipper B.V.")
	require.NoError(t, err)
	require.NoError(t, suppliers.Create(ctx, stored))

	r := NewProfileRegistry(suppliers)
	assert.Equal(t, "Clipper B.V.", r.DisplayName(ctx, "A113"))

	// Seed table backs unknown-to-store suppliers
	assert.Equal(t, "Stitch & Logo Services", r.DisplayName(ctx, "A360"))

	// The code itself is the last resort
	assert.Equal(t, "Z999", r.DisplayName(ctx, "z999"))
}
