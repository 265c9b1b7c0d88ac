package catalog

import (
	"context"
	"strings"

	"github.com/catalogsync/backend/internal/domain/shared"
)

// Category represents a product category from the supplier category file.
// The hierarchy is self-referential through the parent's natural code, so
// imports run in two passes: roots first, then children.
type Category struct {
	shared.BaseEntity
	Code       string        `gorm:"type:varchar(50);not null;uniqueIndex:idx_category_code"`
	Name       LocalizedText `gorm:"serializer:json;type:text"`
	ParentCode *string       `gorm:"type:varchar(50);index"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a category; parentCode may be empty for roots
func NewCategory(code string, name LocalizedText, parentCode string) (*Category, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY_CODE", "Category code is required")
	}
	if name.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name is required")
	}
	c := &Category{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
	if parentCode = strings.TrimSpace(parentCode); parentCode != "" {
		c.ParentCode = &parentCode
	}
	return c, nil
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentCode == nil || *c.ParentCode == ""
}

// CategoryRepository is the natural-key based persistence contract for categories
type CategoryRepository interface {
	FindByCode(ctx context.Context, code string) (*Category, error)
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
}
