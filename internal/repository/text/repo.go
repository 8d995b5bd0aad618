// Package text adapts products onto the RediSearch keyword index: a flat
// hash per product plus an FT index over the searchable attributes.
package text

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shoplens/shoplens/internal/db"
	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
)

const (
	keyPrefix = "shoplens:product:"
	indexName = "shoplens:products:idx"

	// titleWeight boosts title matches over the rest of the content blob.
	titleWeight = 5
)

// store is the consumer interface for text index operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the keyword side of search and ingestion.
type Repo struct {
	store store
}

// New creates a text index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the product FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}

	builder := db.NewIndex(indexName).
		Prefix(keyPrefix).
		TextWithWeight(domain.AttrTitle, titleWeight).
		Text(contentField)
	for _, name := range tagFields {
		builder = builder.Tag(name)
	}
	for _, name := range numericFields {
		builder = builder.Numeric(name)
	}
	builder = builder.Numeric(domain.AttrUpdateDate)

	def, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Lost race against another instance creating the same index.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// Upsert mirrors products into the text index, one hash per product.
func (r *Repo) Upsert(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(products))
	for i, p := range products {
		items[i] = db.HashSetItem{
			Key:    keyPrefix + p.ID(),
			Fields: flattenProduct(p),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: text upsert: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// Search runs a BM25 keyword query with optional filtering and returns
// product-level hits in descending relevance order.
func (r *Repo) Search(ctx context.Context, keyword string, f *filter.Filter, topK int) ([]domain.KeywordHit, error) {
	q := &db.TextQuery{
		IndexName:    indexName,
		Query:        BuildQuery(keyword, f),
		TopK:         topK,
		ReturnFields: []string{contentField},
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: text search: %v", domain.ErrIndexRead, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	hits := make([]domain.KeywordHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, domain.KeywordHit{
			ProductID: strings.TrimPrefix(entry.Key, keyPrefix),
			Score:     entry.Score,
		})
	}
	return hits, nil
}
