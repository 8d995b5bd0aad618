package text

import (
	"context"
	"testing"

	"github.com/shoplens/shoplens/internal/db"
	"github.com/shoplens/shoplens/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testProduct(t *testing.T, id string, extra map[string]any) *domain.Product {
	t.Helper()
	metadata := map[string]any{
		domain.AttrID:     id,
		domain.AttrImages: []string{"https://img.example/" + id + ".jpg"},
	}
	for k, v := range extra {
		metadata[k] = v
	}
	p, err := domain.NewProduct(metadata)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	return p
}

func f64(v float64) *float64 { return &v }
