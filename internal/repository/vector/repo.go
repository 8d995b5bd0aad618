// Package vector adapts image embedding records onto a Qdrant collection.
// Qdrant point ids must be UUIDs, so each composite id maps to a
// deterministic SHA1 UUID; the composite id itself lives in the payload.
package vector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
)

// Payload keys owned by this adapter, next to the product metadata snapshot.
const (
	payloadCompositeID = "composite_id"
	payloadProductID   = "product_id"
)

// pointNamespace seeds the deterministic composite-id to UUID mapping.
// Changing it orphans every existing point.
var pointNamespace = uuid.MustParse("5e0a6f2c-8a4b-4f3e-9d37-1c2b6a78d901")

// pointsClient is the consumer interface over *qdrant.Client (ISP).
type pointsClient interface {
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Get(ctx context.Context, req *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
}

// Repo implements the embedding side of ingestion and search.
type Repo struct {
	client     pointsClient
	collection string
	vectorSize uint64
}

// New creates a vector index repository over an established Qdrant client.
func New(client pointsClient, collection string, vectorSize uint64) *Repo {
	return &Repo{
		client:     client,
		collection: collection,
		vectorSize: vectorSize,
	}
}

// EnsureCollection creates the cosine-distance collection if absent.
func (r *Repo) EnsureCollection(ctx context.Context) error {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("probe collection %s: %w", r.collection, err)
	}
	if exists {
		return nil
	}

	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     r.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}
	return nil
}

// Upsert writes embedding records. Re-running with the same composite ids
// overwrites in place, which keeps ingestion idempotent.
func (r *Repo) Upsert(ctx context.Context, records []domain.ImageRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(rec.ID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(buildPayload(rec)),
		})
	}

	if _, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	}); err != nil {
		return fmt.Errorf("%w: vector upsert: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// FetchIDs returns the subset of the given composite ids that already have a
// point in the collection.
func (r *Repo) FetchIDs(ctx context.Context, compositeIDs []string) ([]string, error) {
	if len(compositeIDs) == 0 {
		return nil, nil
	}

	ids := make([]*qdrant.PointId, len(compositeIDs))
	for i, id := range compositeIDs {
		ids[i] = qdrant.NewIDUUID(pointID(id))
	}

	points, err := r.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: r.collection,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayloadInclude(payloadCompositeID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector fetch: %v", domain.ErrIndexRead, err)
	}

	existing := make([]string, 0, len(points))
	for _, p := range points {
		if id := p.GetPayload()[payloadCompositeID].GetStringValue(); id != "" {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// Query runs an ANN search and returns per-image hits in similarity order.
func (r *Repo) Query(ctx context.Context, vec []float32, f *filter.Filter, topK int) ([]domain.VectorHit, error) {
	limit := uint64(topK)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(vec...),
		Filter:         buildFilter(f),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayloadInclude(payloadCompositeID, payloadProductID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", domain.ErrIndexRead, err)
	}

	hits := make([]domain.VectorHit, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		compositeID := payload[payloadCompositeID].GetStringValue()
		productID := payload[payloadProductID].GetStringValue()
		if productID == "" {
			// Legacy points without a product_id payload fall back to
			// splitting the composite id.
			productID, _, _ = domain.SplitCompositeID(compositeID)
		}
		hits = append(hits, domain.VectorHit{
			ID:        compositeID,
			ProductID: productID,
			Score:     p.GetScore(),
		})
	}
	return hits, nil
}

// pointID derives the stable UUID point id for a composite id.
func pointID(compositeID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(compositeID)).String()
}

// buildPayload copies the metadata snapshot and adds the adapter keys.
// update_date is stored as unix seconds so range filters apply.
func buildPayload(rec domain.ImageRecord) map[string]any {
	payload := make(map[string]any, len(rec.Metadata)+2)
	for k, v := range rec.Metadata {
		payload[k] = v
	}
	payload[payloadCompositeID] = rec.ID
	payload[payloadProductID] = rec.ProductID

	if s, ok := payload[domain.AttrUpdateDate].(string); ok {
		if t, err := time.Parse(domain.UpdateDateLayout, s); err == nil {
			payload[domain.AttrUpdateDate] = t.Unix()
		}
	}

	// Numeric attributes arriving as strings are normalized so range
	// filters keep matching.
	for _, name := range []string{domain.AttrPrice, domain.AttrDiscount} {
		if s, ok := payload[name].(string); ok {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				payload[name] = v
			}
		}
	}

	return payload
}
