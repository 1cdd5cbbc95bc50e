package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Locator maps a Unix timestamp to a block number by binary search over block
// timestamps. It issues one node request per step and caches nothing.
type Locator struct {
	source TimestampSource
}

func NewLocator(source TimestampSource) *Locator {
	return &Locator{source: source}
}

// Locate returns the smallest block in [0, head] whose timestamp is >= target,
// or head+1 when every block is older than target. Timestamps must be
// non-decreasing in block number. Any node failure aborts the search.
func (l *Locator) Locate(ctx context.Context, target, head uint64) (uint64, error) {
	if head == math.MaxUint64 {
		return 0, errors.New("locate: head out of range")
	}

	lo, hi := uint64(0), head+1
	for lo < hi {
		mid := lo + (hi-lo)/2
		ts, err := l.source.BlockTimestamp(ctx, mid)
		if err != nil {
			return 0, fmt.Errorf("locate timestamp %d: %w", target, err)
		}
		if ts < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}
