package domain

import (
	"fmt"
	"time"
)

// Well-known metadata attribute names. The metadata mapping is open-ended;
// these are the attributes the engine filters and aggregates on.
const (
	AttrID          = "id"
	AttrImages      = "images"
	AttrTitle       = "title"
	AttrDescription = "description"
	AttrCategory    = "category_name"
	AttrShop        = "shop_name"
	AttrCurrency    = "currency"
	AttrPrice       = "current_price"
	AttrStatus      = "status"
	AttrRegion      = "region"
	AttrDiscount    = "off_percent"
	AttrUpdateDate  = "update_date"
)

// Stock status values accepted by the status filter.
const (
	StatusInStock    = "IN_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// UpdateDateLayout is the wire format for the update_date attribute.
const UpdateDateLayout = "2006-01-02"

// Product is a catalog entry. The full attribute mapping is kept open-ended;
// id and images are mandatory and mirrored into typed fields.
type Product struct {
	id              string
	images          []string
	metadata        map[string]any
	recentlyIndexed bool
}

// NewProduct validates the attribute mapping and builds a Product.
// id and images are mandatory; everything else is carried verbatim.
func NewProduct(metadata map[string]any) (*Product, error) {
	id, ok := metadata[AttrID].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}

	images, err := imageURLs(metadata[AttrImages])
	if err != nil {
		return nil, err
	}

	return &Product{
		id:       id,
		images:   images,
		metadata: metadata,
	}, nil
}

// Reconstruct rebuilds a Product from storage without re-validation.
func Reconstruct(id string, images []string, metadata map[string]any, recentlyIndexed bool) *Product {
	return &Product{
		id:              id,
		images:          images,
		metadata:        metadata,
		recentlyIndexed: recentlyIndexed,
	}
}

// ID returns the caller-supplied globally unique id.
func (p *Product) ID() string { return p.id }

// Images returns the ordered image URLs.
func (p *Product) Images() []string { return p.images }

// Metadata returns the live attribute mapping.
func (p *Product) Metadata() map[string]any { return p.metadata }

// RecentlyIndexed reports whether all images have a vector-store entry.
func (p *Product) RecentlyIndexed() bool { return p.recentlyIndexed }

// MetadataSnapshot returns a shallow copy of the attribute mapping, so that
// records embedded now are not affected by later metadata edits.
func (p *Product) MetadataSnapshot() map[string]any {
	snap := make(map[string]any, len(p.metadata))
	for k, v := range p.metadata {
		snap[k] = v
	}
	return snap
}

// ImageRecordIDs returns the composite vector-store ids for all images,
// in image order.
func (p *Product) ImageRecordIDs() []string {
	ids := make([]string, len(p.images))
	for i, url := range p.images {
		ids[i] = CompositeID(p.id, url)
	}
	return ids
}

// StringAttr returns a string attribute, or "" if absent or not a string.
func (p *Product) StringAttr(name string) string {
	s, _ := p.metadata[name].(string)
	return s
}

// NumericAttr returns a numeric attribute. JSON decoding yields float64;
// int is accepted for records built in code.
func (p *Product) NumericAttr(name string) (float64, bool) {
	switch v := p.metadata[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// UpdateDate parses the update_date attribute, if present.
func (p *Product) UpdateDate() (time.Time, bool) {
	s := p.StringAttr(AttrUpdateDate)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(UpdateDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// imageURLs coerces the images attribute into []string. JSON decoding yields
// []any; []string is accepted for products built in code.
func imageURLs(v any) ([]string, error) {
	switch imgs := v.(type) {
	case []string:
		return imgs, nil
	case []any:
		urls := make([]string, 0, len(imgs))
		for _, e := range imgs {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: images must be strings", ErrValidation)
			}
			urls = append(urls, s)
		}
		return urls, nil
	case nil:
		return nil, fmt.Errorf("%w: images is required", ErrValidation)
	}
	return nil, fmt.Errorf("%w: images must be a list of URLs", ErrValidation)
}
