package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
)

// GormProductVariantRepository implements catalog.ProductVariantRepository using GORM
type GormProductVariantRepository struct {
	db *gorm.DB
}

var _ catalog.ProductVariantRepository = (*GormProductVariantRepository)(nil)

// NewGormProductVariantRepository creates a new GormProductVariantRepository
func NewGormProductVariantRepository(db *gorm.DB) *GormProductVariantRepository {
	return &GormProductVariantRepository{db: db}
}

// FindBySKU finds a variant by its natural SKU
func (r *GormProductVariantRepository) FindBySKU(ctx context.Context, sku string) (*catalog.ProductVariant, error) {
	var variant catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// FindByParentSKU returns all variants of one parent product
func (r *GormProductVariantRepository) FindByParentSKU(ctx context.Context, parentSKU string) ([]catalog.ProductVariant, error) {
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("parent_sku = ?", parentSKU).
		Order("sku ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// Create inserts a new variant
func (r *GormProductVariantRepository) Create(ctx context.Context, variant *catalog.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

// Update persists changes to an existing variant
func (r *GormProductVariantRepository) Update(ctx context.Context, variant *catalog.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}
