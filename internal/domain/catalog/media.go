package catalog

import (
	"context"
	"strings"

	"github.com/catalogsync/backend/internal/domain/shared"
)

// MediaAsset is a registered image in the media catalog. URL points at the
// original source (used for display); BackupURL is the object-storage copy.
type MediaAsset struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(200);not null;uniqueIndex:idx_media_asset_name"`
	URL         string `gorm:"type:varchar(2048);not null"`
	BackupURL   string `gorm:"type:varchar(2048)"`
	Extension   string `gorm:"type:varchar(10)"`
	ContentType string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (MediaAsset) TableName() string {
	return "media_assets"
}

// NewMediaAsset registers an ingested image under its logical name
func NewMediaAsset(name, sourceURL, backupURL, extension, contentType string) (*MediaAsset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ASSET_NAME", "Media asset name is required")
	}
	if sourceURL == "" {
		return nil, shared.NewDomainError("INVALID_ASSET_URL", "Media asset source URL is required")
	}
	return &MediaAsset{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		URL:         sourceURL,
		BackupURL:   backupURL,
		Extension:   extension,
		ContentType: contentType,
	}, nil
}

// MediaAssetRepository is the natural-key based persistence contract
// for media assets
type MediaAssetRepository interface {
	FindByName(ctx context.Context, name string) (*MediaAsset, error)
	Create(ctx context.Context, asset *MediaAsset) error
	Update(ctx context.Context, asset *MediaAsset) error
}
