package discovery

import (
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"
)

// CachingService deduplicates Discover calls keyed on the sorted, joined set
// of underlying vt_symbols, so callers whose calls for the same underlyings
// overlap in time share one backing-store round trip. Results are not kept
// once that call returns.
type CachingService struct {
	inner *Service
	group singleflight.Group
}

// NewCaching wraps inner with singleflight-based call deduplication.
func NewCaching(inner *Service) *CachingService {
	return &CachingService{inner: inner}
}

// Discover is Service.Discover, deduplicated across concurrent callers
// requesting the same underlying set.
func (c *CachingService) Discover(underlyingVtSymbols []string) []string {
	key := cacheKey(underlyingVtSymbols)
	result, _, _ := c.group.Do(key, func() (interface{}, error) {
		return c.inner.Discover(underlyingVtSymbols), nil
	})
	return result.([]string)
}

func cacheKey(underlyingVtSymbols []string) string {
	sorted := append([]string(nil), underlyingVtSymbols...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
