package query

import (
	"sort"

	"github.com/shoplens/shoplens/internal/domain"
)

// fuseByMeanRank collapses per-image hits into a product ranking. A product's
// score is the arithmetic mean of the 0-based rank positions of its images;
// lower is better. Ties keep first-occurrence order.
func fuseByMeanRank(hits []domain.VectorHit) []string {
	if len(hits) == 0 {
		return nil
	}

	type agg struct {
		rankSum int
		count   int
	}

	byProduct := make(map[string]*agg, len(hits))
	order := make([]string, 0, len(hits))

	for rank, h := range hits {
		a, ok := byProduct[h.ProductID]
		if !ok {
			a = &agg{}
			byProduct[h.ProductID] = a
			order = append(order, h.ProductID)
		}
		a.rankSum += rank
		a.count++
	}

	meanRank := func(id string) float64 {
		a := byProduct[id]
		return float64(a.rankSum) / float64(a.count)
	}

	// order is already in first-occurrence order; a stable sort keeps it
	// that way for equal means.
	sort.SliceStable(order, func(i, j int) bool {
		return meanRank(order[i]) < meanRank(order[j])
	})

	return order
}
