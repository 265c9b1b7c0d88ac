package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/catalogsync/backend/internal/domain/shared"
)

// ParentProduct represents one top-level product document from the feed.
// The SKU is the stable natural identity; an existing SKU is never
// regenerated. ContentHash is the manifest hash at the last successful sync
// and gates the idempotent skip of the parent pass.
type ParentProduct struct {
	shared.BaseEntity
	SKU          string             `gorm:"type:varchar(100);not null;uniqueIndex:idx_parent_product_sku"`
	ANumber      string             `gorm:"type:varchar(50);index"`
	SupplierCode string             `gorm:"type:varchar(20);not null;index"`
	Brand        string             `gorm:"type:varchar(100)"`
	CategoryCode string             `gorm:"type:varchar(50);index"`
	Name         LocalizedText      `gorm:"serializer:json;type:text"`
	Description  LocalizedText      `gorm:"serializer:json;type:text"`
	ContentHash  string             `gorm:"type:varchar(128);not null"`
	VariantCount int                `gorm:"not null;default:0"`
	Physical     PhysicalAttributes `gorm:"serializer:json;type:text"`
	LastSyncedAt time.Time
}

// TableName returns the table name for GORM
func (ParentProduct) TableName() string {
	return "parent_products"
}

// NewParentProduct creates a parent product for a feed document
func NewParentProduct(sku, supplierCode, contentHash string) (*ParentProduct, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Parent product SKU is required")
	}
	supplierCode = strings.ToUpper(strings.TrimSpace(supplierCode))
	if supplierCode == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_CODE", "Supplier code is required")
	}
	return &ParentProduct{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          sku,
		SupplierCode: supplierCode,
		ContentHash:  contentHash,
		LastSyncedAt: time.Now(),
	}, nil
}

// MarkSynced records a successful sync against the given manifest hash
func (p *ParentProduct) MarkSynced(contentHash string) {
	p.ContentHash = contentHash
	p.LastSyncedAt = time.Now()
	p.Touch()
}

// ParentProductRepository is the natural-key based persistence contract
// for parent products
type ParentProductRepository interface {
	FindBySKU(ctx context.Context, sku string) (*ParentProduct, error)
	// FindHashesBySupplier returns sku -> stored content hash for one supplier,
	// used for the manifest diff at the start of a run.
	FindHashesBySupplier(ctx context.Context, supplierCode string) (map[string]string, error)
	Create(ctx context.Context, product *ParentProduct) error
	Update(ctx context.Context, product *ParentProduct) error
}
