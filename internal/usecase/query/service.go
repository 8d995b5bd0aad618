// Package query serves search requests: semantic search over image
// embeddings with mean-rank fusion, and keyword search over the text mirror.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
)

// imageOverscan widens the ANN candidate pool so that topK distinct products
// survive fusion even when single products dominate the image ranking.
const imageOverscan = 5

// DefaultTopK applies when the caller does not bound the result size.
const DefaultTopK = 10

// Service executes product search.
type Service struct {
	meta    MetadataStore
	vectors VectorIndex
	texts   TextIndex
	encoder TextEncoder
	logger  *zap.Logger
}

// New creates a query service.
func New(
	meta MetadataStore, vectors VectorIndex, texts TextIndex,
	encoder TextEncoder, logger *zap.Logger,
) *Service {
	return &Service{
		meta:    meta,
		vectors: vectors,
		texts:   texts,
		encoder: encoder,
		logger:  logger,
	}
}

// Search embeds the query, ranks products by fused image similarity, and
// resolves the ranking into full products. An empty query skips the model
// and falls back to the most recently indexed products.
func (s *Service) Search(ctx context.Context, query string, f *filter.Filter, topK int) ([]*domain.Product, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		products, err := s.meta.MostRecentlyIndexed(ctx, topK)
		if err != nil {
			return nil, fmt.Errorf("recently indexed fallback: %w", err)
		}
		return products, nil
	}

	vec, err := s.encoder.EncodeText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.vectors.Query(ctx, vec, f, topK*imageOverscan)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	ranked := fuseByMeanRank(hits)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	products, err := s.meta.GetByIDs(ctx, ranked)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	s.logger.Debug("semantic search served",
		zap.Int("image_hits", len(hits)),
		zap.Int("products", len(products)),
	)
	return products, nil
}

// Keyword runs a BM25 search over the text mirror and resolves the hits.
func (s *Service) Keyword(ctx context.Context, keyword string, f *filter.Filter, topK int) ([]*domain.Product, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	hits, err := s.texts.Search(ctx, keyword, f, topK)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ProductID
	}

	products, err := s.meta.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	return products, nil
}
