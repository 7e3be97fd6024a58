package cache

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Stats holds cache metrics.
type Stats struct {
	Capacity  int64 // bytes
	Size      int64 // bytes
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d items, %s of %s, %.0f%% hits",
		s.Items,
		humanize.IBytes(uint64(s.Size)),
		humanize.IBytes(uint64(s.Capacity)),
		s.HitRate()*100)
}
