package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite exists per connection; pin the pool to one
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&catalog.Supplier{},
		&catalog.Category{},
		&catalog.ParentProduct{},
		&catalog.ProductVariant{},
		&catalog.MediaAsset{},
	))
	return db
}

func TestSupplierRepository(t *testing.T) {
	repo := NewGormSupplierRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.FindByCode(ctx, "A113")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	supplier, err := catalog.NewSupplier("A113", "Clipper Workwear")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, supplier))

	found, err := repo.FindByCode(ctx, "A113")
	require.NoError(t, err)
	assert.Equal(t, supplier.ID, found.ID)
	assert.Equal(t, "Clipper Workwear", found.DisplayName)

	found.Rename("Clipper Workwear B.V.")
	require.NoError(t, repo.Update(ctx, found))
	renamed, err := repo.FindByCode(ctx, "A113")
	require.NoError(t, err)
	assert.Equal(t, "Clipper Workwear B.V.", renamed.DisplayName)

	other, err := catalog.NewSupplier("A360", "Stitch & Logo Services")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCategoryRepository(t *testing.T) {
	repo := NewGormCategoryRepository(newTestDB(t))
	ctx := context.Background()

	root, err := catalog.NewCategory("CAT-1", catalog.NewLocalizedText("en", "Workwear"), "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, root))

	child, err := catalog.NewCategory("CAT-1-1", catalog.NewLocalizedText("en", "Jackets"), "CAT-1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, child))

	found, err := repo.FindByCode(ctx, "CAT-1-1")
	require.NoError(t, err)
	require.NotNil(t, found.ParentCode)
	assert.Equal(t, "CAT-1", *found.ParentCode)
	assert.Equal(t, "Jackets", found.Name.Resolve([]string{"en"}))
	assert.False(t, found.IsRoot())

	_, err = repo.FindByCode(ctx, "CAT-9")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestParentProductRepository(t *testing.T) {
	repo := NewGormParentProductRepository(newTestDB(t))
	ctx := context.Background()

	product, err := catalog.NewParentProduct("A113-100804", "A113", "HASH-1")
	require.NoError(t, err)
	product.Name = catalog.LocalizedText{"en": "Pilot Jacket", "nl": "Pilotenjas"}
	product.Brand = "Clipper"
	product.Physical = catalog.PhysicalAttributes{
		WeightKg: decimal.RequireFromString("0.75"),
		LengthCm: decimal.NewFromInt(30),
	}
	require.NoError(t, repo.Create(ctx, product))

	found, err := repo.FindBySKU(ctx, "A113-100804")
	require.NoError(t, err)
	assert.Equal(t, "Pilotenjas", found.Name.Resolve([]string{"nl"}))
	assert.True(t, found.Physical.WeightKg.Equal(decimal.RequireFromString("0.75")))

	found.MarkSynced("HASH-2")
	require.NoError(t, repo.Update(ctx, found))

	resynced, err := repo.FindBySKU(ctx, "A113-100804")
	require.NoError(t, err)
	assert.Equal(t, "HASH-2", resynced.ContentHash)
	assert.False(t, resynced.LastSyncedAt.IsZero())
}

func TestFindHashesBySupplier(t *testing.T) {
	repo := NewGormParentProductRepository(newTestDB(t))
	ctx := context.Background()

	for _, spec := range []struct{ sku, supplier, hash string }{
		{"A113-100804", "A113", "HASH-1"},
		{"A113-200101", "A113", "HASH-2"},
		{"A360-500", "A360", "HASH-3"},
	} {
		p, err := catalog.NewParentProduct(spec.sku, spec.supplier, spec.hash)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, p))
	}

	hashes, err := repo.FindHashesBySupplier(ctx, "A113")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"A113-100804": "HASH-1",
		"A113-200101": "HASH-2",
	}, hashes)

	empty, err := repo.FindHashesBySupplier(ctx, "Z999")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProductVariantRepository(t *testing.T) {
	repo := NewGormProductVariantRepository(newTestDB(t))
	ctx := context.Background()

	variant, err := catalog.NewProductVariant("A113-100804-990-3", "A113-100804")
	require.NoError(t, err)
	variant.ColorCode = "990"
	variant.ColorName = catalog.NewLocalizedText("en", "Navy")
	variant.SizesForColor = []string{"3", "4"}
	variant.IsPrimaryForColor = true
	primary := "http://img/1.jpg"
	variant.Images = catalog.VariantImages{Primary: &primary, Gallery: []string{"http://img/2.jpg"}}
	variant.Service = catalog.ServiceFlags{IsServiceBase: true, EmbroiderySizes: []string{"2", "10"}}
	require.NoError(t, repo.Create(ctx, variant))

	found, err := repo.FindBySKU(ctx, "A113-100804-990-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, found.SizesForColor)
	require.NotNil(t, found.Images.Primary)
	assert.Equal(t, "http://img/1.jpg", *found.Images.Primary)
	assert.True(t, found.Service.IsServiceBase)
	assert.Equal(t, []string{"2", "10"}, found.Service.EmbroiderySizes)

	sibling, err := catalog.NewProductVariant("A113-100804-110-3", "A113-100804")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sibling))

	byParent, err := repo.FindByParentSKU(ctx, "A113-100804")
	require.NoError(t, err)
	assert.Len(t, byParent, 2)

	_, err = repo.FindBySKU(ctx, "A113-999999-000-0")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMediaAssetRepository(t *testing.T) {
	repo := NewGormMediaAssetRepository(newTestDB(t))
	ctx := context.Background()

	asset, err := catalog.NewMediaAsset("A113-100804-990-3-primary",
		"http://feed/img/990.png", "https://cdn/990.png", "png", "image/png")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, asset))

	found, err := repo.FindByName(ctx, "A113-100804-990-3-primary")
	require.NoError(t, err)
	assert.Equal(t, "http://feed/img/990.png", found.URL)
	assert.Equal(t, "https://cdn/990.png", found.BackupURL)

	found.URL = "http://feed/img/990-v2.png"
	found.Touch()
	require.NoError(t, repo.Update(ctx, found))
	updated, err := repo.FindByName(ctx, "A113-100804-990-3-primary")
	require.NoError(t, err)
	assert.Equal(t, "http://feed/img/990-v2.png", updated.URL)

	_, err = repo.FindByName(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
