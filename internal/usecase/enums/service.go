// Package enums aggregates the distinct filterable attribute values so
// clients can render filter controls without guessing.
package enums

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shoplens/shoplens/internal/domain"
)

// MetadataStore aggregates distinct attribute values.
type MetadataStore interface {
	DistinctValues(ctx context.Context, attr string) ([]string, error)
}

// Enums is one snapshot of the filterable value sets.
type Enums struct {
	Categories []string `json:"categories"`
	Shops      []string `json:"shops"`
	Currencies []string `json:"currencies"`
	Regions    []string `json:"regions"`
}

type cacheEntry struct {
	enums   *Enums
	expires time.Time
}

// Service serves enum snapshots with a TTL cache. Reads are lock-free; a
// stale snapshot may be served while a concurrent request refreshes.
type Service struct {
	meta  MetadataStore
	ttl   time.Duration
	cache atomic.Pointer[cacheEntry]
	now   func() time.Time
}

// New creates an enums service. ttl <= 0 disables caching.
func New(meta MetadataStore, ttl time.Duration) *Service {
	return &Service{
		meta: meta,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the current enum snapshot, refreshing it when expired.
func (s *Service) Get(ctx context.Context) (*Enums, error) {
	if entry := s.cache.Load(); entry != nil && s.now().Before(entry.expires) {
		return entry.enums, nil
	}

	enums, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		s.cache.Store(&cacheEntry{
			enums:   enums,
			expires: s.now().Add(s.ttl),
		})
	}
	return enums, nil
}

func (s *Service) load(ctx context.Context) (*Enums, error) {
	var enums Enums
	for _, part := range []struct {
		attr string
		dst  *[]string
	}{
		{domain.AttrCategory, &enums.Categories},
		{domain.AttrShop, &enums.Shops},
		{domain.AttrCurrency, &enums.Currencies},
		{domain.AttrRegion, &enums.Regions},
	} {
		values, err := s.meta.DistinctValues(ctx, part.attr)
		if err != nil {
			return nil, fmt.Errorf("load %s values: %w", part.attr, err)
		}
		if values == nil {
			values = []string{}
		}
		*part.dst = values
	}
	return &enums, nil
}
