package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
	ingestuc "github.com/shoplens/shoplens/internal/usecase/ingest"
)

func TestRegisterProduct_Created(t *testing.T) {
	s, d := newTestServer(t)

	var gotMetadata map[string]any
	d.ingest.registerFn = func(_ context.Context, metadata map[string]any) (*domain.Product, ingestuc.Status, error) {
		gotMetadata = metadata
		return testProduct("42"), ingestuc.StatusIndexed, nil
	}

	rr := doJSON(t, s, http.MethodPost, "/products", map[string]any{
		"id":     "42",
		"images": []string{"https://img/a.jpg"},
		"title":  "red shoes",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if rr.Header().Get("Location") != "/products/42" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
	if gotMetadata["title"] != "red shoes" {
		t.Errorf("metadata = %v", gotMetadata)
	}

	resp := decodeBody[registerResponse](t, rr)
	if resp.ID != "42" || resp.Status != string(ingestuc.StatusIndexed) {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRegisterProduct_InvalidBody(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/products", "not an object")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRegisterProduct_ValidationError(t *testing.T) {
	s, d := newTestServer(t)

	d.ingest.registerFn = func(_ context.Context, _ map[string]any) (*domain.Product, ingestuc.Status, error) {
		return nil, "", fmt.Errorf("%w: id is required", domain.ErrValidation)
	}

	rr := doJSON(t, s, http.MethodPost, "/products", map[string]any{"title": "no id"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeBody[errorResponse](t, rr)
	if resp.Code != codeValidationFailed {
		t.Errorf("code = %q, want %q", resp.Code, codeValidationFailed)
	}
}

func TestRegisterProduct_Duplicate(t *testing.T) {
	s, d := newTestServer(t)

	d.ingest.registerFn = func(_ context.Context, _ map[string]any) (*domain.Product, ingestuc.Status, error) {
		return nil, "", domain.ErrAlreadyExists
	}

	rr := doJSON(t, s, http.MethodPost, "/products", map[string]any{"id": "42"})
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestRegisterProduct_IndexingFailure(t *testing.T) {
	s, d := newTestServer(t)

	d.ingest.registerFn = func(_ context.Context, _ map[string]any) (*domain.Product, ingestuc.Status, error) {
		return nil, "", fmt.Errorf("%w: encode images: boom", domain.ErrIndexing)
	}

	rr := doJSON(t, s, http.MethodPost, "/products", map[string]any{"id": "42"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
	resp := decodeBody[errorResponse](t, rr)
	if resp.Code != codeIndexingFailed {
		t.Errorf("code = %q, want %q", resp.Code, codeIndexingFailed)
	}
}

func TestReindexProduct(t *testing.T) {
	s, d := newTestServer(t)

	var gotID string
	d.ingest.reindexFn = func(_ context.Context, id string) (ingestuc.Status, error) {
		gotID = id
		return ingestuc.StatusIndexed, nil
	}

	rr := doJSON(t, s, http.MethodPost, "/products/42/reindex", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if gotID != "42" {
		t.Errorf("id = %q, want 42", gotID)
	}
}

func TestReindexProduct_NotFound(t *testing.T) {
	s, d := newTestServer(t)

	d.ingest.reindexFn = func(_ context.Context, _ string) (ingestuc.Status, error) {
		return "", domain.ErrNotFound
	}

	rr := doJSON(t, s, http.MethodPost, "/products/missing/reindex", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSearchProducts_MapsFilterAndTopK(t *testing.T) {
	s, d := newTestServer(t)

	var gotQuery string
	var gotFilter *filter.Filter
	var gotTopK int
	d.query.searchFn = func(_ context.Context, query string, f *filter.Filter, topK int) ([]*domain.Product, error) {
		gotQuery, gotFilter, gotTopK = query, f, topK
		return []*domain.Product{testProduct("42"), testProduct("7")}, nil
	}

	rr := doJSON(t, s, http.MethodPost, "/search", map[string]any{
		"query": "red shoes",
		"top_k": 5,
		"filter": map[string]any{
			"category_name":     "shoes",
			"currency":          "USD",
			"min_current_price": 10,
			"max_current_price": 50,
			"status":            "IN_STOCK",
			"update_date":       "2026-01-01",
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if gotQuery != "red shoes" || gotTopK != 5 {
		t.Errorf("query = %q, topK = %d", gotQuery, gotTopK)
	}
	if gotFilter == nil || gotFilter.Category != "shoes" || gotFilter.Currency != "USD" {
		t.Fatalf("filter = %+v", gotFilter)
	}
	if gotFilter.MinPrice == nil || *gotFilter.MinPrice != 10 {
		t.Errorf("min price = %v", gotFilter.MinPrice)
	}
	if gotFilter.UpdatedAfter != "2026-01-01" {
		t.Errorf("updated after = %q", gotFilter.UpdatedAfter)
	}

	resp := decodeBody[searchResponse](t, rr)
	if resp.Total != 2 || len(resp.Items) != 2 || resp.Items[0].ID != "42" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchProducts_NoFilter(t *testing.T) {
	s, d := newTestServer(t)

	d.query.searchFn = func(_ context.Context, _ string, f *filter.Filter, _ int) ([]*domain.Product, error) {
		if f != nil {
			t.Errorf("filter = %+v, want nil", f)
		}
		return nil, nil
	}

	rr := doJSON(t, s, http.MethodPost, "/search", map[string]any{"query": "q"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[searchResponse](t, rr)
	if resp.Total != 0 || resp.Items == nil {
		t.Errorf("resp = %+v, want empty items array", resp)
	}
}

func TestSearchProducts_TopKOutOfRange(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/search", map[string]any{
		"query": "q",
		"top_k": maxTopK + 1,
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearchProducts_InvalidFilter(t *testing.T) {
	s, d := newTestServer(t)

	d.query.searchFn = func(_ context.Context, _ string, _ *filter.Filter, _ int) ([]*domain.Product, error) {
		return nil, fmt.Errorf("%w: currency is required with price bounds", domain.ErrInvalidFilter)
	}

	rr := doJSON(t, s, http.MethodPost, "/search", map[string]any{
		"query":  "q",
		"filter": map[string]any{"min_current_price": 10},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearchProducts_EncoderFailure(t *testing.T) {
	s, d := newTestServer(t)

	d.query.searchFn = func(_ context.Context, _ string, _ *filter.Filter, _ int) ([]*domain.Product, error) {
		return nil, fmt.Errorf("vectorize query: %w", domain.ErrEmbedding)
	}

	rr := doJSON(t, s, http.MethodPost, "/search", map[string]any{"query": "q"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
	resp := decodeBody[errorResponse](t, rr)
	if resp.Code != codeEncoderError {
		t.Errorf("code = %q, want %q", resp.Code, codeEncoderError)
	}
}

func TestSearchProducts_UnknownErrorIs500(t *testing.T) {
	s, d := newTestServer(t)

	d.query.searchFn = func(_ context.Context, _ string, _ *filter.Filter, _ int) ([]*domain.Product, error) {
		return nil, errors.New("surprise")
	}

	rr := doJSON(t, s, http.MethodPost, "/search", map[string]any{"query": "q"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	resp := decodeBody[errorResponse](t, rr)
	if resp.Message != "internal error" {
		t.Errorf("message = %q, internals must not leak", resp.Message)
	}
}

func TestKeywordSearch(t *testing.T) {
	s, d := newTestServer(t)

	var gotKeyword string
	d.query.keywordFn = func(_ context.Context, keyword string, _ *filter.Filter, topK int) ([]*domain.Product, error) {
		gotKeyword = keyword
		if topK != 7 {
			t.Errorf("topK = %d, want 7", topK)
		}
		return []*domain.Product{testProduct("9")}, nil
	}

	rr := doJSON(t, s, http.MethodPost, "/keyword-search", map[string]any{
		"keyword": "sweater",
		"top_k":   7,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if gotKeyword != "sweater" {
		t.Errorf("keyword = %q", gotKeyword)
	}
}

func TestKeywordSearch_EmptyKeyword(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/keyword-search", map[string]any{"keyword": ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetEnums(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/enums", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[map[string][]string](t, rr)
	if len(resp["categories"]) != 1 || resp["categories"][0] != "shoes" {
		t.Errorf("categories = %v", resp["categories"])
	}
	for _, key := range []string{"shops", "currencies", "regions"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("missing %q in response", key)
		}
	}
}

func TestHealthCheck_Healthy(t *testing.T) {
	s, d := newTestServer(t)
	d.health["postgres"] = func(_ context.Context) error { return nil }
	d.health["redis"] = func(_ context.Context) error { return nil }

	rr := doJSON(t, s, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	resp := decodeBody[healthResponse](t, rr)
	if resp.Status != "healthy" || resp.Checks["postgres"] != "healthy" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	s, d := newTestServer(t)
	d.health["postgres"] = func(_ context.Context) error { return nil }
	d.health["redis"] = func(_ context.Context) error { return errors.New("down") }

	rr := doJSON(t, s, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}

	resp := decodeBody[healthResponse](t, rr)
	if resp.Status != "unhealthy" || resp.Checks["redis"] != "unhealthy" || resp.Checks["postgres"] != "healthy" {
		t.Errorf("resp = %+v", resp)
	}
}
