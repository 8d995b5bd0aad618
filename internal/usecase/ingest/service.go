// Package ingest runs the product indexing flow: register metadata, embed
// images, and mirror the product into both indexes. The flow is idempotent;
// re-running it after a partial failure only processes what is missing.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/metrics"
)

// Status describes the outcome of one indexing pass.
type Status string

const (
	// StatusIndexed means every image now has an index entry.
	StatusIndexed Status = "indexed"
	// StatusAlreadyIndexed means nothing was missing.
	StatusAlreadyIndexed Status = "already_indexed"
	// StatusNothingToIndex means all missing images failed to download;
	// the product stays not-fully-indexed and a re-run is safe.
	StatusNothingToIndex Status = "nothing_to_index"
)

// Service orchestrates registration and indexing.
type Service struct {
	meta    MetadataStore
	vectors VectorIndex
	texts   TextIndex
	fetcher ImageFetcher
	encoder ImageEncoder
	logger  *zap.Logger
}

// New creates an ingestion service.
func New(
	meta MetadataStore, vectors VectorIndex, texts TextIndex,
	fetcher ImageFetcher, encoder ImageEncoder, logger *zap.Logger,
) *Service {
	return &Service{
		meta:    meta,
		vectors: vectors,
		texts:   texts,
		fetcher: fetcher,
		encoder: encoder,
		logger:  logger,
	}
}

// Register validates and stores a new product, then runs the indexing flow.
// A duplicate id fails with domain.ErrAlreadyExists before any index write.
func (s *Service) Register(ctx context.Context, metadata map[string]any) (*domain.Product, Status, error) {
	p, err := domain.NewProduct(metadata)
	if err != nil {
		return nil, "", err
	}

	if err := s.meta.Insert(ctx, p); err != nil {
		return nil, "", err
	}

	status, err := s.Index(ctx, p)
	if err != nil {
		// Metadata is saved; indexing can be retried later.
		return p, "", err
	}
	return p, status, nil
}

// Reindex re-runs the indexing flow for an already registered product.
func (s *Service) Reindex(ctx context.Context, id string) (Status, error) {
	p, err := s.meta.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Index(ctx, p)
}

// Index brings the indexes in line with the product's current image set.
// Images that already have a vector entry are skipped; download failures are
// logged and skipped; one batch encodes everything that remains.
func (s *Service) Index(ctx context.Context, p *domain.Product) (Status, error) {
	start := time.Now()
	status, err := s.index(ctx, p)
	if err != nil {
		metrics.IngestProductsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.IngestProductsTotal.WithLabelValues(string(status)).Inc()
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	return status, nil
}

func (s *Service) index(ctx context.Context, p *domain.Product) (Status, error) {
	allIDs := p.ImageRecordIDs()

	existing, err := s.vectors.FetchIDs(ctx, allIDs)
	if err != nil {
		return "", fmt.Errorf("%w: fetch existing ids: %w", domain.ErrIndexing, err)
	}

	existingSet := make(map[string]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}

	var missing []string
	for _, id := range allIDs {
		if existingSet[id] {
			metrics.IngestImagesTotal.WithLabelValues("skipped_existing").Inc()
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		if !p.RecentlyIndexed() {
			if err := s.meta.MarkIndexed(ctx, p.ID()); err != nil {
				return "", fmt.Errorf("%w: mark indexed: %w", domain.ErrIndexing, err)
			}
		}
		return StatusAlreadyIndexed, nil
	}

	images, fetchedIDs := s.fetchImages(ctx, p.ID(), missing)
	if len(images) == 0 {
		s.logger.Warn("no images could be fetched",
			zap.String("product_id", p.ID()),
			zap.Int("missing", len(missing)),
		)
		return StatusNothingToIndex, nil
	}

	vectors, err := s.encoder.EncodeImages(ctx, images)
	if err != nil {
		return "", fmt.Errorf("%w: encode images: %w", domain.ErrIndexing, err)
	}

	snapshot := p.MetadataSnapshot()
	records := make([]domain.ImageRecord, len(vectors))
	for i, vec := range vectors {
		records[i] = domain.ImageRecord{
			ID:        fetchedIDs[i],
			ProductID: p.ID(),
			Vector:    vec,
			Metadata:  snapshot,
		}
		metrics.IngestImagesTotal.WithLabelValues("embedded").Inc()
	}

	if err := s.vectors.Upsert(ctx, records); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrIndexing, err)
	}

	if err := s.texts.Upsert(ctx, []*domain.Product{p}); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrIndexing, err)
	}

	// Mark only when every image is covered; a partial pass keeps the
	// product eligible for re-indexing.
	if len(existing)+len(records) == len(allIDs) {
		if err := s.meta.MarkIndexed(ctx, p.ID()); err != nil {
			return "", fmt.Errorf("%w: mark indexed: %w", domain.ErrIndexing, err)
		}
	}

	return StatusIndexed, nil
}

// fetchImages downloads the missing images, skipping failures. Returned
// slices are parallel: images[i] belongs to compositeIDs[i].
func (s *Service) fetchImages(ctx context.Context, productID string, compositeIDs []string) ([][]byte, []string) {
	images := make([][]byte, 0, len(compositeIDs))
	fetched := make([]string, 0, len(compositeIDs))

	for _, id := range compositeIDs {
		_, url, ok := domain.SplitCompositeID(id)
		if !ok {
			continue
		}

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			metrics.IngestImagesTotal.WithLabelValues("fetch_failed").Inc()
			s.logger.Warn("image fetch failed, skipping",
				zap.String("product_id", productID),
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}

		images = append(images, body)
		fetched = append(fetched, id)
	}

	return images, fetched
}
