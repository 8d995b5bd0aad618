package ingest

import (
	"context"

	"github.com/shoplens/shoplens/internal/domain"
)

// MetadataStore persists the catalog source of truth.
type MetadataStore interface {
	Insert(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	MarkIndexed(ctx context.Context, id string) error
}

// VectorIndex stores per-image embedding records.
type VectorIndex interface {
	FetchIDs(ctx context.Context, compositeIDs []string) ([]string, error)
	Upsert(ctx context.Context, records []domain.ImageRecord) error
}

// TextIndex mirrors products for keyword search.
type TextIndex interface {
	Upsert(ctx context.Context, products []*domain.Product) error
}

// ImageFetcher downloads raw image bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageEncoder vectorizes a batch of images in one model invocation.
type ImageEncoder interface {
	EncodeImages(ctx context.Context, images [][]byte) ([][]float32, error)
}
