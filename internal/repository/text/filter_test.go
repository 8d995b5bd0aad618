package text

import (
	"strings"
	"testing"

	"github.com/shoplens/shoplens/internal/domain/filter"
)

func TestBuildQuery_KeywordOnly(t *testing.T) {
	q := BuildQuery("red sneakers", nil)
	want := "@__content:(red sneakers)"
	if q != want {
		t.Errorf("query = %q, want %q", q, want)
	}
}

func TestBuildQuery_EmptyEverything(t *testing.T) {
	if q := BuildQuery("", nil); q != "*" {
		t.Errorf("query = %q, want *", q)
	}
}

func TestBuildQuery_EscapesSpecialCharacters(t *testing.T) {
	q := BuildQuery(`50% off (today)`, nil)
	if !strings.Contains(q, `\%`) || !strings.Contains(q, `\(`) {
		t.Errorf("query not escaped: %q", q)
	}
}

func TestBuildQuery_TagClauses(t *testing.T) {
	f := &filter.Filter{
		Category: "shoes",
		Shop:     "acme store",
		Status:   "IN_STOCK",
		Region:   "EU",
	}
	q := BuildQuery("", f)

	for _, want := range []string{
		"@category_name:{shoes}",
		`@shop_name:{acme\ store}`,
		"@status:{IN_STOCK}",
		"@region:{EU}",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestBuildQuery_PriceRangeWithCurrency(t *testing.T) {
	f := &filter.Filter{
		Currency: "USD",
		MinPrice: f64(10),
		MaxPrice: f64(50),
	}
	q := BuildQuery("", f)

	if !strings.Contains(q, "@currency:{USD}") {
		t.Errorf("query %q missing currency clause", q)
	}
	if !strings.Contains(q, "@current_price:[10 50]") {
		t.Errorf("query %q missing price clause", q)
	}
}

func TestBuildQuery_OpenEndedPrice(t *testing.T) {
	f := &filter.Filter{
		Currency: "EUR",
		MinPrice: f64(5),
	}
	q := BuildQuery("", f)

	if !strings.Contains(q, "@current_price:[5 +inf]") {
		t.Errorf("query %q missing open-ended price clause", q)
	}
}

func TestBuildQuery_DiscountBound(t *testing.T) {
	f := &filter.Filter{MinDiscount: f64(30)}
	q := BuildQuery("", f)

	if !strings.Contains(q, "@off_percent:[30 +inf]") {
		t.Errorf("query %q missing discount clause", q)
	}
}

func TestBuildQuery_UpdateDateBecomesUnix(t *testing.T) {
	f := &filter.Filter{UpdatedAfter: "2026-01-01"}
	q := BuildQuery("", f)

	// 2026-01-01T00:00:00Z
	if !strings.Contains(q, "@update_date:[1767225600 +inf]") {
		t.Errorf("query %q missing update_date clause", q)
	}
}

func TestBuildQuery_FilterAndKeywordCombined(t *testing.T) {
	f := &filter.Filter{Category: "shoes"}
	q := BuildQuery("boots", f)

	if !strings.HasPrefix(q, "@category_name:{shoes}") {
		t.Errorf("filter should precede keyword clause: %q", q)
	}
	if !strings.HasSuffix(q, "@__content:(boots)") {
		t.Errorf("keyword clause missing: %q", q)
	}
}
