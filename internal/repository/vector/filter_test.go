package vector

import (
	"testing"

	"github.com/shoplens/shoplens/internal/domain/filter"
)

func TestBuildFilter_Empty(t *testing.T) {
	if got := buildFilter(nil); got != nil {
		t.Errorf("filter = %+v, want nil", got)
	}
	if got := buildFilter(&filter.Filter{}); got != nil {
		t.Errorf("filter = %+v, want nil", got)
	}
}

func TestBuildFilter_MatchConditions(t *testing.T) {
	f := &filter.Filter{Category: "shoes", Region: "EU"}
	got := buildFilter(f)

	if got == nil {
		t.Fatal("expected a filter")
	}
	if len(got.Must) != 2 {
		t.Fatalf("must count = %d, want 2", len(got.Must))
	}
	// One IsEmpty plus one IsNull guard per filtered field.
	if len(got.MustNot) != 4 {
		t.Fatalf("mustNot count = %d, want 4", len(got.MustNot))
	}

	first := got.Must[0].GetField()
	if first.GetKey() != "category_name" {
		t.Errorf("key = %q, want category_name", first.GetKey())
	}
	if first.GetMatch().GetKeyword() != "shoes" {
		t.Errorf("match = %q, want shoes", first.GetMatch().GetKeyword())
	}
}

func TestBuildFilter_PriceRangeIncludesCurrency(t *testing.T) {
	f := &filter.Filter{
		Currency: "USD",
		MinPrice: f64(10),
		MaxPrice: f64(50),
	}
	got := buildFilter(f)

	if got == nil {
		t.Fatal("expected a filter")
	}

	var sawCurrency, sawRange bool
	for _, cond := range got.Must {
		field := cond.GetField()
		if field == nil {
			continue
		}
		switch field.GetKey() {
		case "currency":
			sawCurrency = field.GetMatch().GetKeyword() == "USD"
		case "current_price":
			r := field.GetRange()
			sawRange = r.GetGte() == 10 && r.GetLte() == 50
		}
	}
	if !sawCurrency {
		t.Error("missing currency condition")
	}
	if !sawRange {
		t.Error("missing price range condition")
	}
}

func TestBuildFilter_UpdateDateUnixBound(t *testing.T) {
	f := &filter.Filter{UpdatedAfter: "2026-01-01"}
	got := buildFilter(f)

	if got == nil || len(got.Must) != 1 {
		t.Fatalf("filter = %+v, want one must condition", got)
	}
	r := got.Must[0].GetField().GetRange()
	if r.GetGte() != 1767225600 {
		t.Errorf("gte = %g, want 1767225600", r.GetGte())
	}
}

func TestBuildFilter_DiscountLowerBoundOnly(t *testing.T) {
	f := &filter.Filter{MinDiscount: f64(30)}
	got := buildFilter(f)

	if got == nil || len(got.Must) != 1 {
		t.Fatalf("filter = %+v, want one must condition", got)
	}
	field := got.Must[0].GetField()
	if field.GetKey() != "off_percent" {
		t.Errorf("key = %q, want off_percent", field.GetKey())
	}
	r := field.GetRange()
	if r.GetGte() != 30 {
		t.Errorf("gte = %g, want 30", r.GetGte())
	}
	if r.Lte != nil {
		t.Errorf("lte = %v, want unset", r.Lte)
	}
}
