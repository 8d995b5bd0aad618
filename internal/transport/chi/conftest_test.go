package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
	enumsuc "github.com/shoplens/shoplens/internal/usecase/enums"
	ingestuc "github.com/shoplens/shoplens/internal/usecase/ingest"
)

type mockIngest struct {
	registerFn func(ctx context.Context, metadata map[string]any) (*domain.Product, ingestuc.Status, error)
	reindexFn  func(ctx context.Context, id string) (ingestuc.Status, error)
}

func (m *mockIngest) Register(ctx context.Context, metadata map[string]any) (*domain.Product, ingestuc.Status, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, metadata)
	}
	p, err := domain.NewProduct(metadata)
	if err != nil {
		return nil, "", err
	}
	return p, ingestuc.StatusIndexed, nil
}

func (m *mockIngest) Reindex(ctx context.Context, id string) (ingestuc.Status, error) {
	if m.reindexFn != nil {
		return m.reindexFn(ctx, id)
	}
	return ingestuc.StatusAlreadyIndexed, nil
}

type mockQuery struct {
	searchFn  func(ctx context.Context, query string, f *filter.Filter, topK int) ([]*domain.Product, error)
	keywordFn func(ctx context.Context, keyword string, f *filter.Filter, topK int) ([]*domain.Product, error)
}

func (m *mockQuery) Search(ctx context.Context, query string, f *filter.Filter, topK int) ([]*domain.Product, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, f, topK)
	}
	return nil, nil
}

func (m *mockQuery) Keyword(ctx context.Context, keyword string, f *filter.Filter, topK int) ([]*domain.Product, error) {
	if m.keywordFn != nil {
		return m.keywordFn(ctx, keyword, f, topK)
	}
	return nil, nil
}

type mockEnums struct {
	getFn func(ctx context.Context) (*enumsuc.Enums, error)
}

func (m *mockEnums) Get(ctx context.Context) (*enumsuc.Enums, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return &enumsuc.Enums{
		Categories: []string{"shoes"},
		Shops:      []string{},
		Currencies: []string{},
		Regions:    []string{},
	}, nil
}

type testDeps struct {
	ingest *mockIngest
	query  *mockQuery
	enums  *mockEnums
	health map[string]HealthCheck
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()
	d := &testDeps{
		ingest: &mockIngest{},
		query:  &mockQuery{},
		enums:  &mockEnums{},
		health: map[string]HealthCheck{},
	}
	return NewServer(d.ingest, d.query, d.enums, d.health, zap.NewNop()), d
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func testProduct(id string) *domain.Product {
	return domain.Reconstruct(id, []string{"https://img/" + id + ".jpg"}, map[string]any{
		domain.AttrID:    id,
		domain.AttrTitle: "product " + id,
	}, true)
}
