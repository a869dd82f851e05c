package aggregate

import (
	"context"
	"fmt"
	"sync"
)

// DecimalsSource resolves an asset's decimals.
type DecimalsSource interface {
	AssetDecimals(ctx context.Context, asset string) (uint8, error)
}

// DecimalsCache memoizes lookups, including failed ones, for the life of a run.
type DecimalsCache struct {
	source DecimalsSource

	mu     sync.RWMutex
	data   map[string]uint8
	failed map[string]error
}

func NewDecimalsCache(source DecimalsSource) *DecimalsCache {
	return &DecimalsCache{
		source: source,
		data:   make(map[string]uint8),
		failed: make(map[string]error),
	}
}

func (c *DecimalsCache) Get(ctx context.Context, asset string) (uint8, error) {
	c.mu.RLock()
	decimals, ok := c.data[asset]
	failure := c.failed[asset]
	c.mu.RUnlock()
	if ok {
		return decimals, nil
	}
	if failure != nil {
		return 0, failure
	}
	if c.source == nil {
		return 0, fmt.Errorf("no decimals source for %s", asset)
	}

	decimals, err := c.source.AssetDecimals(ctx, asset)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed[asset] = err
		return 0, err
	}
	c.data[asset] = decimals
	return decimals, nil
}
