// Package filter holds the backend-agnostic product filter. Each index
// adapter translates it into its own dialect; validation happens here, once,
// before any backend is called.
package filter

import (
	"fmt"
	"time"

	"github.com/shoplens/shoplens/internal/domain"
)

// Filter is the generic structured filter over product attributes.
// Zero value means "no filter". Unset numeric bounds are nil.
type Filter struct {
	Category string
	Shop     string
	Status   string
	Region   string

	// Price bounds are interpreted in Currency; Currency is mandatory
	// whenever either bound is set.
	Currency string
	MinPrice *float64
	MaxPrice *float64

	// MinDiscount keeps products with off_percent >= the given value.
	MinDiscount *float64

	// UpdatedAfter keeps products with update_date >= the given day
	// (YYYY-MM-DD).
	UpdatedAfter string
}

// IsEmpty reports whether no condition is set.
func (f *Filter) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.Category == "" && f.Shop == "" && f.Status == "" && f.Region == "" &&
		f.Currency == "" && f.MinPrice == nil && f.MaxPrice == nil &&
		f.MinDiscount == nil && f.UpdatedAfter == ""
}

// Validate checks cross-field invariants. It must pass before translation;
// all violations surface as domain.ErrInvalidFilter.
func (f *Filter) Validate() error {
	if f.IsEmpty() {
		return nil
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		if f.Currency == "" {
			return fmt.Errorf("%w: currency is required with price bounds", domain.ErrInvalidFilter)
		}
		if f.MinPrice != nil && *f.MinPrice < 0 {
			return fmt.Errorf("%w: min price cannot be negative", domain.ErrInvalidFilter)
		}
		if f.MaxPrice != nil && *f.MaxPrice < 0 {
			return fmt.Errorf("%w: max price cannot be negative", domain.ErrInvalidFilter)
		}
		if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
			return fmt.Errorf("%w: min price %g exceeds max price %g",
				domain.ErrInvalidFilter, *f.MinPrice, *f.MaxPrice)
		}
	}

	if f.Status != "" && f.Status != domain.StatusInStock && f.Status != domain.StatusOutOfStock {
		return fmt.Errorf("%w: status must be %s or %s",
			domain.ErrInvalidFilter, domain.StatusInStock, domain.StatusOutOfStock)
	}

	if f.MinDiscount != nil && (*f.MinDiscount < 0 || *f.MinDiscount > 100) {
		return fmt.Errorf("%w: discount must be between 0 and 100", domain.ErrInvalidFilter)
	}

	if f.UpdatedAfter != "" {
		if _, err := time.Parse(domain.UpdateDateLayout, f.UpdatedAfter); err != nil {
			return fmt.Errorf("%w: update date must be YYYY-MM-DD", domain.ErrInvalidFilter)
		}
	}

	return nil
}

// UpdatedAfterUnix returns the UpdatedAfter bound as unix seconds. Both index
// dialects store update_date numerically so it can be range-filtered.
func (f *Filter) UpdatedAfterUnix() (int64, bool) {
	if f == nil || f.UpdatedAfter == "" {
		return 0, false
	}
	t, err := time.Parse(domain.UpdateDateLayout, f.UpdatedAfter)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}
