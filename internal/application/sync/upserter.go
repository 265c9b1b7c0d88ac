package syncapp

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
	"github.com/catalogsync/backend/internal/infrastructure/retry"
)

// UpsertOutcome is the result of one natural-key upsert
type UpsertOutcome int

const (
	OutcomeCreated UpsertOutcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

// Count folds the outcome into a counter set
func (o UpsertOutcome) Count(c *syncdomain.Counters) {
	switch o {
	case OutcomeCreated:
		c.Created++
	case OutcomeUpdated:
		c.Updated++
	case OutcomeSkipped:
		c.Skipped++
	}
}

// Upserter implements the upsert contract against the content store: look up
// by natural key, create when absent, update only when a normalized
// projection of the new data really differs from the stored one (volatile
// fields excluded), else skip. An existing SKU is never regenerated; the
// update path copies fields onto the stored entity.
type Upserter struct {
	suppliers  catalog.SupplierRepository
	categories catalog.CategoryRepository
	products   catalog.ParentProductRepository
	variants   catalog.ProductVariantRepository
	retry      *retry.Policy
	logger     *zap.Logger
}

// NewUpserter creates an Upserter
func NewUpserter(
	suppliers catalog.SupplierRepository,
	categories catalog.CategoryRepository,
	products catalog.ParentProductRepository,
	variants catalog.ProductVariantRepository,
	retryPolicy *retry.Policy,
	logger *zap.Logger,
) *Upserter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryPolicy == nil {
		retryPolicy = retry.DefaultPolicy(logger)
	}
	return &Upserter{
		suppliers:  suppliers,
		categories: categories,
		products:   products,
		variants:   variants,
		retry:      retryPolicy,
		logger:     logger,
	}
}

// UpsertSupplier ensures the supplier exists, updating the display name when
// a better one becomes available.
func (u *Upserter) UpsertSupplier(ctx context.Context, code, displayName string) (UpsertOutcome, *catalog.Supplier, error) {
	existing, err := u.suppliers.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return OutcomeSkipped, nil, err
	}
	if existing == nil {
		supplier, err := catalog.NewSupplier(code, displayName)
		if err != nil {
			return OutcomeSkipped, nil, err
		}
		if err := u.write(ctx, "supplier", code, func() error {
			return u.suppliers.Create(ctx, supplier)
		}); err != nil {
			return OutcomeSkipped, nil, err
		}
		return OutcomeCreated, supplier, nil
	}
	if existing.Rename(displayName) {
		if err := u.write(ctx, "supplier", code, func() error {
			return u.suppliers.Update(ctx, existing)
		}); err != nil {
			return OutcomeSkipped, nil, err
		}
		return OutcomeUpdated, existing, nil
	}
	return OutcomeSkipped, existing, nil
}

// UpsertCategory upserts one category by code. Parent resolution is the
// importer's job; the candidate arrives with its parent code already set.
func (u *Upserter) UpsertCategory(ctx context.Context, candidate *catalog.Category) (UpsertOutcome, error) {
	existing, err := u.categories.FindByCode(ctx, candidate.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return OutcomeSkipped, err
	}
	if existing == nil {
		if err := u.write(ctx, "category", candidate.Code, func() error {
			return u.categories.Create(ctx, candidate)
		}); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeCreated, nil
	}
	if categoryEqual(existing, candidate) {
		return OutcomeSkipped, nil
	}
	existing.Name = candidate.Name
	existing.ParentCode = candidate.ParentCode
	existing.Touch()
	if err := u.write(ctx, "category", candidate.Code, func() error {
		return u.categories.Update(ctx, existing)
	}); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

// UpsertParentProduct upserts one parent product by SKU
func (u *Upserter) UpsertParentProduct(ctx context.Context, candidate *catalog.ParentProduct) (UpsertOutcome, error) {
	existing, err := u.products.FindBySKU(ctx, candidate.SKU)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return OutcomeSkipped, err
	}
	if existing == nil {
		if err := u.write(ctx, "parent product", candidate.SKU, func() error {
			return u.products.Create(ctx, candidate)
		}); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeCreated, nil
	}
	if parentProductEqual(existing, candidate) {
		return OutcomeSkipped, nil
	}
	existing.ANumber = candidate.ANumber
	existing.SupplierCode = candidate.SupplierCode
	existing.Brand = candidate.Brand
	existing.CategoryCode = candidate.CategoryCode
	existing.Name = candidate.Name
	existing.Description = candidate.Description
	existing.VariantCount = candidate.VariantCount
	existing.Physical = candidate.Physical
	existing.MarkSynced(candidate.ContentHash)
	if err := u.write(ctx, "parent product", candidate.SKU, func() error {
		return u.products.Update(ctx, existing)
	}); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

// UpsertVariant upserts one product variant by SKU
func (u *Upserter) UpsertVariant(ctx context.Context, candidate *catalog.ProductVariant) (UpsertOutcome, error) {
	existing, err := u.variants.FindBySKU(ctx, candidate.SKU)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return OutcomeSkipped, err
	}
	if existing == nil {
		if err := u.write(ctx, "variant", candidate.SKU, func() error {
			return u.variants.Create(ctx, candidate)
		}); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeCreated, nil
	}
	if variantEqual(existing, candidate) {
		return OutcomeSkipped, nil
	}
	existing.ParentSKU = candidate.ParentSKU
	existing.ColorCode = candidate.ColorCode
	existing.ColorName = candidate.ColorName
	existing.HexColor = candidate.HexColor
	existing.Size = candidate.Size
	existing.SizesForColor = candidate.SizesForColor
	existing.IsPrimaryForColor = candidate.IsPrimaryForColor
	existing.Material = candidate.Material
	existing.Images = candidate.Images
	existing.Physical = candidate.Physical
	existing.Service = candidate.Service
	existing.Touch()
	if err := u.write(ctx, "variant", candidate.SKU, func() error {
		return u.variants.Update(ctx, existing)
	}); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeUpdated, nil
}

// write runs one store write with a single retry; the final failure surfaces
// as a RepositoryConflict.
func (u *Upserter) write(ctx context.Context, entityKind, key string, op func() error) error {
	if err := u.retry.DoOnce(ctx, entityKind+" write", op); err != nil {
		u.logger.Warn("Catalog write failed",
			zap.String("entity", entityKind),
			zap.String("key", key),
			zap.Error(err),
		)
		return syncdomain.NewRepositoryConflict(entityKind, key, err)
	}
	return nil
}

// The projection comparisons below are deep and independent of map/field
// order; volatile fields (IDs, timestamps, LastSyncedAt) are excluded.

func categoryEqual(a, b *catalog.Category) bool {
	return a.Name.Equal(b.Name) && stringPtrEqual(a.ParentCode, b.ParentCode)
}

func parentProductEqual(a, b *catalog.ParentProduct) bool {
	return a.ANumber == b.ANumber &&
		a.SupplierCode == b.SupplierCode &&
		a.Brand == b.Brand &&
		a.CategoryCode == b.CategoryCode &&
		a.Name.Equal(b.Name) &&
		a.Description.Equal(b.Description) &&
		a.ContentHash == b.ContentHash &&
		a.VariantCount == b.VariantCount &&
		a.Physical.Equal(b.Physical)
}

func variantEqual(a, b *catalog.ProductVariant) bool {
	return a.ParentSKU == b.ParentSKU &&
		a.ColorCode == b.ColorCode &&
		a.ColorName.Equal(b.ColorName) &&
		a.HexColor == b.HexColor &&
		a.Size == b.Size &&
		stringSliceEqual(a.SizesForColor, b.SizesForColor) &&
		a.IsPrimaryForColor == b.IsPrimaryForColor &&
		a.Material.Equal(b.Material) &&
		stringPtrEqual(a.Images.Primary, b.Images.Primary) &&
		stringSliceEqual(a.Images.Gallery, b.Images.Gallery) &&
		a.Physical.Equal(b.Physical) &&
		a.Service.IsServiceBase == b.Service.IsServiceBase &&
		stringSliceEqual(a.Service.EmbroiderySizes, b.Service.EmbroiderySizes)
}

// nil and pointer-to-empty compare equal; the feed does not distinguish them
func stringPtrEqual(a, b *string) bool {
	return derefOrEmpty(a) == derefOrEmpty(b)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
