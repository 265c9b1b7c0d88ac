package syncapp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
	"github.com/catalogsync/backend/internal/infrastructure/retry"
)

// ObjectStorage is the narrow object-storage contract the ingestor needs
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// BinaryFetcher downloads an image and reports its content type
type BinaryFetcher interface {
	DownloadBinary(ctx context.Context, url string) ([]byte, string, error)
}

// ImageIngestor downloads feed images and re-uploads them to object storage
// under a deterministic naming scheme, registering each one in the media
// catalog. The externally visible URL stays the original source URL; the
// object-storage copy is recorded as backup metadata.
type ImageIngestor struct {
	fetcher BinaryFetcher
	storage ObjectStorage
	media   catalog.MediaAssetRepository
	retry   *retry.Policy
	logger  *zap.Logger
}

// NewImageIngestor creates an ImageIngestor
func NewImageIngestor(
	fetcher BinaryFetcher,
	storage ObjectStorage,
	media catalog.MediaAssetRepository,
	retryPolicy *retry.Policy,
	logger *zap.Logger,
) *ImageIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryPolicy == nil {
		retryPolicy = retry.DefaultPolicy(logger)
	}
	return &ImageIngestor{
		fetcher: fetcher,
		storage: storage,
		media:   media,
		retry:   retryPolicy,
		logger:  logger,
	}
}

// Ingest downloads sourceURL and stores it under "{logicalName}.{ext}".
// Failures after the retry budget surface as an error; a missing image is
// never fatal to the product that references it, so callers log and proceed.
// The outcome reports whether the media catalog entry was actually written,
// so unchanged images do not count as fresh work on a re-run.
func (i *ImageIngestor) Ingest(ctx context.Context, sourceURL, logicalName string) (*catalog.MediaAsset, UpsertOutcome, error) {
	data, contentType, err := i.fetcher.DownloadBinary(ctx, sourceURL)
	if err != nil {
		return nil, OutcomeSkipped, fmt.Errorf("download %s: %w", sourceURL, err)
	}

	ext := inferExtension(contentType, sourceURL)
	key := logicalName + "." + ext

	var backupURL string
	err = i.retry.Do(ctx, "storage put", func() error {
		var putErr error
		backupURL, putErr = i.storage.Put(ctx, key, data, contentType)
		return putErr
	})
	if err != nil {
		return nil, OutcomeSkipped, fmt.Errorf("upload %s: %w", key, err)
	}

	asset, outcome, err := i.register(ctx, logicalName, sourceURL, backupURL, ext, contentType)
	if err != nil {
		return nil, OutcomeSkipped, fmt.Errorf("register %s: %w", logicalName, err)
	}
	if outcome != OutcomeSkipped {
		i.logger.Debug("Image stored",
			zap.String("name", logicalName),
			zap.String("key", key),
		)
	}
	return asset, outcome, nil
}

// register upserts the media catalog entry by logical name
func (i *ImageIngestor) register(ctx context.Context, name, sourceURL, backupURL, ext, contentType string) (*catalog.MediaAsset, UpsertOutcome, error) {
	existing, err := i.media.FindByName(ctx, name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, OutcomeSkipped, err
	}
	if existing == nil {
		asset, err := catalog.NewMediaAsset(name, sourceURL, backupURL, ext, contentType)
		if err != nil {
			return nil, OutcomeSkipped, err
		}
		if err := i.retry.DoOnce(ctx, "media create", func() error {
			return i.media.Create(ctx, asset)
		}); err != nil {
			return nil, OutcomeSkipped, err
		}
		return asset, OutcomeCreated, nil
	}

	if existing.URL == sourceURL && existing.BackupURL == backupURL &&
		existing.Extension == ext && existing.ContentType == contentType {
		return existing, OutcomeSkipped, nil
	}
	existing.URL = sourceURL
	existing.BackupURL = backupURL
	existing.Extension = ext
	existing.ContentType = contentType
	existing.Touch()
	if err := i.retry.DoOnce(ctx, "media update", func() error {
		return i.media.Update(ctx, existing)
	}); err != nil {
		return nil, OutcomeSkipped, err
	}
	return existing, OutcomeUpdated, nil
}

// PrimaryImageName returns the deterministic logical name of a variant's
// primary image.
func PrimaryImageName(variantSKU string) string {
	return variantSKU + "-primary"
}

// GalleryImageName returns the deterministic logical name of the n-th
// gallery image of a variant.
func GalleryImageName(variantSKU string, n int) string {
	return fmt.Sprintf("%s-gallery-%d", variantSKU, n)
}

// inferExtension derives the file extension from the content type, with a
// URL-suffix fallback; anything unrecognized is stored as jpg.
func inferExtension(contentType, sourceURL string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/jpeg", "image/jpg":
		return "jpg"
	}
	if u, err := url.Parse(sourceURL); err == nil {
		switch strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")) {
		case "png":
			return "png"
		case "gif":
			return "gif"
		case "webp":
			return "webp"
		}
	}
	return "jpg"
}
