// Package syncapp implements the catalog synchronization engine: manifest
// diffing, document extraction, variant grouping, image ingestion and
// natural-key upserts, driven per supplier by the Orchestrator.
package syncapp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/catalogsync/backend/internal/domain/catalog"
	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
	"github.com/catalogsync/backend/internal/infrastructure/logger"
	"github.com/catalogsync/backend/internal/infrastructure/status"
)

// ConnectionStatus is the result of a connectivity probe against the feed
type ConnectionStatus struct {
	Status         string   `json:"status"`
	SuppliersFound int      `json:"suppliers_found"`
	Suppliers      []string `json:"suppliers,omitempty"`
}

// Orchestrator drives the end-to-end sync run per supplier. Runs for
// different suppliers are independent and safe to execute concurrently; all
// shared state lives in the content store and object storage.
type Orchestrator struct {
	feed      *feed.Client
	upserter  *Upserter
	importer  *CategoryImporter
	ingestor  *ImageIngestor
	products  catalog.ParentProductRepository
	registry  *ProfileRegistry
	tracker   status.Tracker
	languages []string
	workers   int
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator. workers bounds the number of
// product documents in flight within one run; 1 processes sequentially.
func NewOrchestrator(
	feedClient *feed.Client,
	upserter *Upserter,
	importer *CategoryImporter,
	ingestor *ImageIngestor,
	products catalog.ParentProductRepository,
	registry *ProfileRegistry,
	tracker status.Tracker,
	languages []string,
	workers int,
	log *zap.Logger,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	if tracker == nil {
		tracker = status.NewMemoryTracker()
	}
	return &Orchestrator{
		feed:      feedClient,
		upserter:  upserter,
		importer:  importer,
		ingestor:  ingestor,
		products:  products,
		registry:  registry,
		tracker:   tracker,
		languages: languages,
		workers:   workers,
		logger:    log,
	}
}

// runContext carries all mutable state of one run. Nothing outlives the run,
// so concurrent supplier runs stay isolated.
type runContext struct {
	mu      sync.Mutex
	report  *syncdomain.RunReport
	profile *SupplierProfile
	hashes  map[string]string
	logger  *zap.Logger
}

func (rc *runContext) fail(productCode, url string, err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.report.AddFailure(syncdomain.ItemFailure{
		ProductCode: productCode,
		URL:         url,
		Message:     err.Error(),
	})
}

func (rc *runContext) count(kind func(*syncdomain.EntityCounts) *syncdomain.Counters, outcome UpsertOutcome) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	outcome.Count(kind(&rc.report.Counts))
}

// SyncSupplier runs the full synchronization for one supplier. The report is
// always returned; only manifest acquisition failure is run-fatal and even
// that surfaces as a failed report, never as a panic or error to the caller.
func (o *Orchestrator) SyncSupplier(ctx context.Context, supplierCode string) *syncdomain.RunReport {
	report := syncdomain.NewRunReport(supplierCode)
	ctx, runLogger := logger.WithRun(ctx, o.logger, report.RunID.String(), supplierCode)

	report.Transition(syncdomain.StateFetchingManifest)
	o.publish(ctx, report)

	manifest, err := o.feed.FetchManifest(ctx, supplierCode)
	if err != nil {
		runLogger.Error("Manifest acquisition failed", zap.Error(err))
		report.Message = err.Error()
		report.Transition(syncdomain.StateFailed)
		o.publish(ctx, report)
		return report
	}

	if len(manifest.Entries) == 0 {
		runLogger.Info("Manifest contains no products for supplier")
		report.Transition(syncdomain.StateNoProducts)
		o.publish(ctx, report)
		return report
	}

	report.Transition(syncdomain.StateProcessing)
	o.publish(ctx, report)

	rc := &runContext{
		report:  report,
		profile: o.registry.ProfileFor(supplierCode),
		logger:  runLogger,
	}

	// Supplier entity first so later lookups can resolve the display name
	displayName := o.registry.DisplayName(ctx, supplierCode)
	if outcome, _, err := o.upserter.UpsertSupplier(ctx, supplierCode, displayName); err != nil {
		rc.fail(supplierCode, "", err)
	} else {
		rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Suppliers }, outcome)
	}

	if manifest.CategoriesURL != "" {
		o.importCategories(ctx, manifest.CategoriesURL, rc)
	}

	hashes, err := o.products.FindHashesBySupplier(ctx, supplierCode)
	if err != nil {
		// Degrade to "everything changed": projection comparison still keeps
		// unchanged entities from being rewritten.
		runLogger.Warn("Stored hash lookup failed, treating all products as changed", zap.Error(err))
		hashes = map[string]string{}
	}
	rc.hashes = hashes

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, entry := range manifest.Entries {
		if groupCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Cooperative cancellation between products; in-flight work
			// finishes cleanly.
			if err := groupCtx.Err(); err != nil {
				return err
			}
			o.processEntry(groupCtx, entry, rc)
			return nil
		})
	}
	err = g.Wait()

	if err != nil || ctx.Err() != nil {
		report.Message = "run cancelled"
		report.Transition(syncdomain.StateFailed)
	} else {
		report.Transition(syncdomain.StateCompleted)
	}
	o.publish(ctx, report)
	runLogger.Info("Sync run finished",
		zap.String("state", string(report.State)),
		zap.Int("products", report.Counts.Products.Total()),
		zap.Int("variants", report.Counts.Variants.Total()),
		zap.Int("failures", report.TotalFailures),
	)
	return report
}

// SyncAll discovers every supplier in the manifest and runs them in
// parallel. Each supplier gets its own isolated run and report.
func (o *Orchestrator) SyncAll(ctx context.Context) []*syncdomain.RunReport {
	manifest, err := o.feed.FetchManifest(ctx, "")
	if err != nil {
		report := syncdomain.NewRunReport("")
		report.Transition(syncdomain.StateFetchingManifest)
		report.Message = err.Error()
		report.Transition(syncdomain.StateFailed)
		return []*syncdomain.RunReport{report}
	}

	codes := feed.DiscoverSuppliers(manifest.Entries)
	reports := make([]*syncdomain.RunReport, len(codes))
	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = o.SyncSupplier(ctx, code)
		}()
	}
	wg.Wait()

	sort.Slice(reports, func(i, j int) bool { return reports[i].SupplierCode < reports[j].SupplierCode })
	return reports
}

// TestConnection probes the feed and reports the suppliers found
func (o *Orchestrator) TestConnection(ctx context.Context) (*ConnectionStatus, error) {
	manifest, err := o.feed.FetchManifest(ctx, "")
	if err != nil {
		return &ConnectionStatus{Status: "unreachable"}, err
	}
	suppliers := feed.DiscoverSuppliers(manifest.Entries)
	return &ConnectionStatus{
		Status:         "ok",
		SuppliersFound: len(suppliers),
		Suppliers:      suppliers,
	}, nil
}

// Status returns the latest run snapshots from the tracker
func (o *Orchestrator) Status(ctx context.Context) ([]status.RunStatus, error) {
	return o.tracker.List(ctx)
}

func (o *Orchestrator) importCategories(ctx context.Context, fileURL string, rc *runContext) {
	records, err := o.feed.FetchCategories(ctx, fileURL)
	if err != nil {
		// Category file failure is not run-fatal; products can still sync
		rc.fail("categories", fileURL, err)
		return
	}
	if err := o.importer.Import(ctx, records, rc.report); err != nil {
		rc.logger.Warn("Category import interrupted", zap.Error(err))
	}
}

// processEntry handles one manifest entry end to end. Every failure is
// caught here at the smallest scope and accumulated; a single product can
// never abort the run.
func (o *Orchestrator) processEntry(ctx context.Context, entry feed.ManifestEntry, rc *runContext) {
	defer func() {
		if r := recover(); r != nil {
			rc.fail(entry.ProductCode, entry.DocumentURL, fmt.Errorf("panic while processing product: %v", r))
		}
	}()

	storedHash, known := rc.hashes[entry.ProductCode]
	parentUnchanged := known && storedHash == entry.ContentHash

	// The document is fetched even when the parent hash is unchanged:
	// variant-level data can change independently in the source feed, so
	// children are always re-walked.
	doc, err := o.feed.FetchDocument(ctx, entry.DocumentURL)
	if err != nil {
		rc.fail(entry.ProductCode, entry.DocumentURL, err)
		return
	}

	children := doc.Children()

	if parentUnchanged {
		rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Products }, OutcomeSkipped)
	} else {
		candidate, err := o.buildParent(entry, doc, len(children))
		if err != nil {
			rc.fail(entry.ProductCode, entry.DocumentURL, err)
			return
		}
		outcome, err := o.upserter.UpsertParentProduct(ctx, candidate)
		if err != nil {
			rc.fail(entry.ProductCode, entry.DocumentURL, err)
			return
		}
		rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Products }, outcome)
	}

	for _, group := range GroupVariants(children, rc.profile) {
		if err := ctx.Err(); err != nil {
			return
		}
		o.processGroup(ctx, entry, group, rc)
	}
}

// buildParent maps the document onto a parent product candidate
func (o *Orchestrator) buildParent(entry feed.ManifestEntry, doc *feed.Document, variantCount int) (*catalog.ParentProduct, error) {
	candidate, err := catalog.NewParentProduct(entry.ProductCode, entry.SupplierCode, entry.ContentHash)
	if err != nil {
		return nil, err
	}
	general := doc.General()
	candidate.ANumber = general.String("ANumber")
	candidate.Brand = ExtractLocalized(doc, "Brand", o.languages, "").Resolve(o.languages)
	candidate.CategoryCode = general.String("CategoryCode")
	if candidate.CategoryCode == "" {
		candidate.CategoryCode = general.String("Category")
	}
	candidate.Name = ExtractLocalized(doc, "Name", o.languages, entry.ProductCode)
	candidate.Description = cleanAll(ExtractLocalized(doc, "Description", o.languages, ""))
	candidate.VariantCount = variantCount
	candidate.Physical = ExtractPhysical(general)
	return candidate, nil
}

// processGroup persists the primary variant of one color group
func (o *Orchestrator) processGroup(ctx context.Context, entry feed.ManifestEntry, group ColorGroup, rc *runContext) {
	sku := group.Primary.SKU()
	if sku == "" {
		rc.fail(entry.ProductCode, entry.DocumentURL,
			syncdomain.NewValidationGap("variant sku", fmt.Sprintf("no derivable SKU for color group %q", group.ColorCode)))
		return
	}

	candidate, err := catalog.NewProductVariant(sku, entry.ProductCode)
	if err != nil {
		rc.fail(entry.ProductCode, entry.DocumentURL, err)
		return
	}
	candidate.ColorCode = group.ColorCode
	candidate.ColorName = ExtractChildLocalized(group.Primary, "ColorName", o.languages)
	candidate.HexColor = group.Primary.HexColor()
	candidate.Size = group.PrimarySize
	candidate.SizesForColor = group.Sizes
	candidate.IsPrimaryForColor = true
	candidate.Material = ExtractChildLocalized(group.Primary, "Material", o.languages)
	candidate.Physical = ExtractPhysical(group.Primary.Node)
	candidate.Service = catalog.ServiceFlags{
		IsServiceBase:   group.IsServiceBase,
		EmbroiderySizes: group.EmbroiderySizes,
	}
	candidate.Images = o.ingestImages(ctx, group.Primary, sku, rc)

	outcome, err := o.upserter.UpsertVariant(ctx, candidate)
	if err != nil {
		rc.fail(entry.ProductCode, entry.DocumentURL, err)
		return
	}
	rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Variants }, outcome)
}

// ingestImages ingests the primary and gallery images of a variant. An image
// that exhausts its retry budget is simply absent; the variant still syncs
// and no run-level failure is recorded.
func (o *Orchestrator) ingestImages(ctx context.Context, child feed.ChildRecord, variantSKU string, rc *runContext) catalog.VariantImages {
	images := catalog.VariantImages{}

	if src := child.ImageURL(); src != "" {
		if asset, outcome, err := o.ingestor.Ingest(ctx, src, PrimaryImageName(variantSKU)); err != nil {
			rc.logger.Warn("Primary image ingestion failed",
				zap.String("variant_sku", variantSKU),
				zap.String("url", src),
				zap.Error(err),
			)
			rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Images }, OutcomeSkipped)
		} else {
			url := asset.URL
			images.Primary = &url
			rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Images }, outcome)
		}
	}

	for n, src := range child.GalleryURLs() {
		if asset, outcome, err := o.ingestor.Ingest(ctx, src, GalleryImageName(variantSKU, n+1)); err != nil {
			rc.logger.Warn("Gallery image ingestion failed",
				zap.String("variant_sku", variantSKU),
				zap.String("url", src),
				zap.Error(err),
			)
			rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Images }, OutcomeSkipped)
		} else {
			images.Gallery = append(images.Gallery, asset.URL)
			rc.count(func(c *syncdomain.EntityCounts) *syncdomain.Counters { return &c.Images }, outcome)
		}
	}
	return images
}

// cleanAll applies CleanText to every language rendition
func cleanAll(text catalog.LocalizedText) catalog.LocalizedText {
	out := make(catalog.LocalizedText, len(text))
	for lang, v := range text {
		if cleaned := CleanText(v); cleaned != "" {
			out[lang] = cleaned
		}
	}
	return out
}

// publish pushes the current report snapshot to the status tracker
func (o *Orchestrator) publish(ctx context.Context, report *syncdomain.RunReport) {
	snapshot := status.RunStatus{
		SupplierCode:  report.SupplierCode,
		RunID:         report.RunID.String(),
		State:         report.State,
		StartedAt:     report.StartedAt,
		Counts:        report.Counts,
		TotalFailures: report.TotalFailures,
		Message:       report.Message,
	}
	if err := o.tracker.Set(ctx, snapshot); err != nil {
		o.logger.Warn("Failed to publish run status", zap.Error(err))
	}
}
