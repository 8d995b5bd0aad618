package query

import (
	"context"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
)

// MetadataStore resolves ranked product ids into full products.
type MetadataStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	MostRecentlyIndexed(ctx context.Context, limit int) ([]*domain.Product, error)
}

// VectorIndex runs ANN queries over per-image embeddings.
type VectorIndex interface {
	Query(ctx context.Context, vec []float32, f *filter.Filter, topK int) ([]domain.VectorHit, error)
}

// TextIndex runs BM25 keyword queries.
type TextIndex interface {
	Search(ctx context.Context, keyword string, f *filter.Filter, topK int) ([]domain.KeywordHit, error)
}

// TextEncoder vectorizes the query into the shared embedding space.
type TextEncoder interface {
	EncodeText(ctx context.Context, text string) ([]float32, error)
}
