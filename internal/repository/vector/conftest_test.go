package vector

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

// mockClient implements the consumer interface for tests.
type mockClient struct {
	upsertFn           func(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	queryFn            func(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	getFn              func(ctx context.Context, req *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	collectionExistsFn func(ctx context.Context, name string) (bool, error)
	createCollectionFn func(ctx context.Context, req *qdrant.CreateCollection) error
}

func (m *mockClient) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, req)
	}
	return &qdrant.UpdateResult{}, nil
}

func (m *mockClient) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, req)
	}
	return nil, nil
}

func (m *mockClient) Get(ctx context.Context, req *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error) {
	if m.getFn != nil {
		return m.getFn(ctx, req)
	}
	return nil, nil
}

func (m *mockClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	if m.collectionExistsFn != nil {
		return m.collectionExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockClient) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	if m.createCollectionFn != nil {
		return m.createCollectionFn(ctx, req)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockClient) {
	t.Helper()
	mc := &mockClient{}
	return New(mc, "products", 512), mc
}

func scoredPoint(compositeID, productID string, score float32) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{
		Id:    qdrant.NewIDUUID(pointID(compositeID)),
		Score: score,
		Payload: qdrant.NewValueMap(map[string]any{
			payloadCompositeID: compositeID,
			payloadProductID:   productID,
		}),
	}
}

func f64(v float64) *float64 { return &v }
