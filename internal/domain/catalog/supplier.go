package catalog

import (
	"context"
	"strings"

	"github.com/catalogsync/backend/internal/domain/shared"
)

// Supplier represents a feed supplier identified by its natural code (e.g. "A113").
// Suppliers are created lazily on first encounter in a manifest.
type Supplier struct {
	shared.BaseEntity
	Code        string `gorm:"type:varchar(20);not null;uniqueIndex:idx_supplier_code"`
	DisplayName string `gorm:"type:varchar(100);not null"`
	IsActive    bool   `gorm:"not null;default:true"`
	AutoImport  bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier. When no display name is known yet the
// code doubles as the name until a better one becomes available.
func NewSupplier(code, displayName string) (*Supplier, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_CODE", "Supplier code is required")
	}
	if displayName == "" {
		displayName = code
	}
	return &Supplier{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		DisplayName: displayName,
		IsActive:    true,
		AutoImport:  false,
	}, nil
}

// Rename replaces the display name when a better one becomes available.
// Returns true when the name actually changed.
func (s *Supplier) Rename(displayName string) bool {
	if displayName == "" || displayName == s.DisplayName || displayName == s.Code {
		return false
	}
	s.DisplayName = displayName
	s.Touch()
	return true
}

// SupplierRepository is the natural-key based persistence contract for suppliers
type SupplierRepository interface {
	FindByCode(ctx context.Context, code string) (*Supplier, error)
	FindAll(ctx context.Context) ([]Supplier, error)
	Create(ctx context.Context, supplier *Supplier) error
	Update(ctx context.Context, supplier *Supplier) error
}
