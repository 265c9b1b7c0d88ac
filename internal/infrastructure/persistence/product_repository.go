package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
)

// GormParentProductRepository implements catalog.ParentProductRepository using GORM
type GormParentProductRepository struct {
	db *gorm.DB
}

var _ catalog.ParentProductRepository = (*GormParentProductRepository)(nil)

// NewGormParentProductRepository creates a new GormParentProductRepository
func NewGormParentProductRepository(db *gorm.DB) *GormParentProductRepository {
	return &GormParentProductRepository{db: db}
}

// FindBySKU finds a parent product by its natural SKU
func (r *GormParentProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.ParentProduct, error) {
	var product catalog.ParentProduct
	if err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindHashesBySupplier returns sku -> stored content hash for one supplier
func (r *GormParentProductRepository) FindHashesBySupplier(ctx context.Context, supplierCode string) (map[string]string, error) {
	type row struct {
		SKU         string
		ContentHash string
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&catalog.ParentProduct{}).
		Select("sku", "content_hash").
		Where("supplier_code = ?", supplierCode).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(rows))
	for _, r := range rows {
		hashes[r.SKU] = r.ContentHash
	}
	return hashes, nil
}

// Create inserts a new parent product
func (r *GormParentProductRepository) Create(ctx context.Context, product *catalog.ParentProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update persists changes to an existing parent product
func (r *GormParentProductRepository) Update(ctx context.Context, product *catalog.ParentProduct) error {
	return r.db.WithContext(ctx).Save(product).Error
}
