package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
)

// GormMediaAssetRepository implements catalog.MediaAssetRepository using GORM
type GormMediaAssetRepository struct {
	db *gorm.DB
}

var _ catalog.MediaAssetRepository = (*GormMediaAssetRepository)(nil)

// NewGormMediaAssetRepository creates a new GormMediaAssetRepository
func NewGormMediaAssetRepository(db *gorm.DB) *GormMediaAssetRepository {
	return &GormMediaAssetRepository{db: db}
}

// FindByName finds a media asset by its logical name
func (r *GormMediaAssetRepository) FindByName(ctx context.Context, name string) (*catalog.MediaAsset, error) {
	var asset catalog.MediaAsset
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// Create inserts a new media asset
func (r *GormMediaAssetRepository) Create(ctx context.Context, asset *catalog.MediaAsset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

// Update persists changes to an existing media asset
func (r *GormMediaAssetRepository) Update(ctx context.Context, asset *catalog.MediaAsset) error {
	return r.db.WithContext(ctx).Save(asset).Error
}
