package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// compositeSep joins a product id and an image URL into a vector-store entry
// id. Product ids never contain '#'; image URLs may, so splitting cuts at the
// first separator only.
const compositeSep = "#"

// CompositeID builds the vector-store entry id for one product image.
func CompositeID(productID, imageURL string) string {
	return productID + compositeSep + imageURL
}

// SplitCompositeID recovers the product id and image URL from a composite id.
func SplitCompositeID(id string) (productID, imageURL string, ok bool) {
	return strings.Cut(id, compositeSep)
}

// ImageRecord is one image's embedding entry: composite id, unit vector, and
// a snapshot of the owning product's metadata taken at embedding time.
// Records are never mutated in place; a changed image set produces new
// records under new composite ids.
type ImageRecord struct {
	ID        string
	ProductID string
	Vector    []float32
	Metadata  map[string]any
}

// TextEncoder vectorizes a free-text query into the shared embedding space.
type TextEncoder interface {
	EncodeText(ctx context.Context, text string) ([]float32, error)
}

// ImageEncoder vectorizes a batch of raw images in one model invocation.
// Output order is 1:1 with input order.
type ImageEncoder interface {
	EncodeImages(ctx context.Context, images [][]byte) ([][]float32, error)
}

// Normalize scales v to unit L2 norm in place. A zero vector cannot be
// normalized and fails with ErrEmbedding instead of dividing by zero.
func Normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return fmt.Errorf("%w: zero vector", ErrEmbedding)
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return nil
}
