package syncapp

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
)

// CategoryImporter upserts the supplier category tree. Children reference
// their parent by natural code, so records are imported in two passes: roots
// first, then children. A child whose parent is still missing fails as a
// single record, never the run.
type CategoryImporter struct {
	upserter   *Upserter
	categories catalog.CategoryRepository
	languages  []string
	logger     *zap.Logger
}

// NewCategoryImporter creates a CategoryImporter
func NewCategoryImporter(upserter *Upserter, categories catalog.CategoryRepository, languages []string, logger *zap.Logger) *CategoryImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryImporter{
		upserter:   upserter,
		categories: categories,
		languages:  languages,
		logger:     logger,
	}
}

// Import upserts all category records into the store. Per-record failures
// are accumulated on the report; the returned error is reserved for context
// cancellation.
func (i *CategoryImporter) Import(ctx context.Context, records []feed.CategoryRecord, report *syncdomain.RunReport) error {
	// Roots first so children can resolve their parent by code
	for _, rec := range records {
		if rec.ParentCode != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		i.importRecord(ctx, rec, report)
	}
	for _, rec := range records {
		if rec.ParentCode == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		i.importRecord(ctx, rec, report)
	}
	i.logger.Debug("Category import finished",
		zap.Int("records", len(records)),
		zap.Int("created", report.Counts.Categories.Created),
		zap.Int("updated", report.Counts.Categories.Updated),
	)
	return nil
}

func (i *CategoryImporter) importRecord(ctx context.Context, rec feed.CategoryRecord, report *syncdomain.RunReport) {
	if rec.ParentCode != "" {
		if _, err := i.categories.FindByCode(ctx, rec.ParentCode); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				report.AddFailure(syncdomain.ItemFailure{
					ProductCode: rec.Code,
					Message:     fmt.Sprintf("category parent %q not found", rec.ParentCode),
				})
			} else {
				report.AddFailure(syncdomain.ItemFailure{
					ProductCode: rec.Code,
					Message:     fmt.Sprintf("category parent lookup failed: %v", err),
				})
			}
			return
		}
	}

	name := catalog.LocalizedText(rec.Names)
	if name.IsEmpty() {
		name = catalog.NewLocalizedText(preferredLanguage(i.languages), rec.Name)
	}
	candidate, err := catalog.NewCategory(rec.Code, name, rec.ParentCode)
	if err != nil {
		report.AddFailure(syncdomain.ItemFailure{
			ProductCode: rec.Code,
			Message:     err.Error(),
		})
		return
	}

	outcome, err := i.upserter.UpsertCategory(ctx, candidate)
	if err != nil {
		report.AddFailure(syncdomain.ItemFailure{
			ProductCode: rec.Code,
			Message:     err.Error(),
		})
		return
	}
	outcome.Count(&report.Counts.Categories)
}
