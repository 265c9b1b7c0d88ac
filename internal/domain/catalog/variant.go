package catalog

import (
	"context"
	"strings"

	"github.com/catalogsync/backend/internal/domain/shared"
)

// VariantImages holds the media references for a variant. URLs point at the
// externally visible (source) location; the object-storage copy is tracked
// separately on the MediaAsset.
type VariantImages struct {
	Primary *string  `json:"primary"`
	Gallery []string `json:"gallery"`
}

// ServiceFlags carries vendor-specific service attributes attached to a
// variant during post-processing (e.g. embroidery options).
type ServiceFlags struct {
	IsServiceBase   bool     `json:"is_service_base"`
	EmbroiderySizes []string `json:"embroidery_sizes,omitempty"`
}

// ProductVariant is the single representative variant persisted per color
// group of a parent product. Non-primary siblings contribute only their size
// to SizesForColor.
type ProductVariant struct {
	shared.BaseEntity
	SKU               string             `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_variant_sku"`
	ParentSKU         string             `gorm:"type:varchar(100);not null;index"`
	ColorCode         string             `gorm:"type:varchar(50)"`
	ColorName         LocalizedText      `gorm:"serializer:json;type:text"`
	HexColor          string             `gorm:"type:varchar(10)"`
	Size              string             `gorm:"type:varchar(50)"`
	SizesForColor     []string           `gorm:"serializer:json;type:text"`
	IsPrimaryForColor bool               `gorm:"not null;default:false"`
	Material          LocalizedText      `gorm:"serializer:json;type:text"`
	Images            VariantImages      `gorm:"serializer:json;type:text"`
	Physical          PhysicalAttributes `gorm:"serializer:json;type:text"`
	Service           ServiceFlags       `gorm:"serializer:json;type:text"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProductVariant creates a variant under an existing parent product
func NewProductVariant(sku, parentSKU string) (*ProductVariant, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Variant SKU is required")
	}
	parentSKU = strings.TrimSpace(parentSKU)
	if parentSKU == "" {
		return nil, shared.NewDomainError("INVALID_PARENT_SKU", "Parent SKU is required")
	}
	return &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        sku,
		ParentSKU:  parentSKU,
	}, nil
}

// ProductVariantRepository is the natural-key based persistence contract
// for product variants
type ProductVariantRepository interface {
	FindBySKU(ctx context.Context, sku string) (*ProductVariant, error)
	FindByParentSKU(ctx context.Context, parentSKU string) ([]ProductVariant, error)
	Create(ctx context.Context, variant *ProductVariant) error
	Update(ctx context.Context, variant *ProductVariant) error
}
