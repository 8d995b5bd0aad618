package vector

import (
	"github.com/qdrant/go-client/qdrant"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
)

// buildFilter translates the generic filter into the Qdrant dialect. Every
// filtered field gets existence guards so entries missing the field are
// excluded instead of silently passing the condition.
func buildFilter(f *filter.Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var must []*qdrant.Condition
	var mustNot []*qdrant.Condition

	guard := func(field string) {
		mustNot = append(mustNot,
			qdrant.NewIsEmpty(field),
			qdrant.NewIsNull(field),
		)
	}

	match := func(field, value string) {
		if value == "" {
			return
		}
		must = append(must, qdrant.NewMatchKeyword(field, value))
		guard(field)
	}

	match(domain.AttrCategory, f.Category)
	match(domain.AttrShop, f.Shop)
	match(domain.AttrStatus, f.Status)
	match(domain.AttrRegion, f.Region)

	if f.MinPrice != nil || f.MaxPrice != nil {
		match(domain.AttrCurrency, f.Currency)
		must = append(must, qdrant.NewRange(domain.AttrPrice, &qdrant.Range{
			Gte: f.MinPrice,
			Lte: f.MaxPrice,
		}))
		guard(domain.AttrPrice)
	} else if f.Currency != "" {
		match(domain.AttrCurrency, f.Currency)
	}

	if f.MinDiscount != nil {
		must = append(must, qdrant.NewRange(domain.AttrDiscount, &qdrant.Range{
			Gte: f.MinDiscount,
		}))
		guard(domain.AttrDiscount)
	}

	if ts, ok := f.UpdatedAfterUnix(); ok {
		bound := float64(ts)
		must = append(must, qdrant.NewRange(domain.AttrUpdateDate, &qdrant.Range{
			Gte: &bound,
		}))
		guard(domain.AttrUpdateDate)
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must, MustNot: mustNot}
}
