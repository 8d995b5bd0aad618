package domain

// VectorHit is one approximate-nearest-neighbor match from the vector index,
// identified by composite id. Rank order is the backend's similarity order.
type VectorHit struct {
	ID        string
	ProductID string
	Score     float32
}

// KeywordHit is one BM25 match from the text index.
type KeywordHit struct {
	ProductID string
	Score     float64
}
