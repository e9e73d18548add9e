package coverage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
)

// DefaultCacheCapacity bounds the number of walked files kept in memory.
const DefaultCacheCapacity = 4096

// UnitCache memoizes walker output by file path and content hash, so repeated runs
// (watch mode, MCP calls) only re-parse files that changed.
type UnitCache struct {
	cache otter.Cache[string, []extraction.Unit]
}

// NewUnitCache creates a cache holding at most capacity files.
func NewUnitCache(capacity int) (*UnitCache, error) {
	cache, err := otter.MustBuilder[string, []extraction.Unit](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build unit cache: %w", err)
	}
	return &UnitCache{cache: cache}, nil
}

// Get returns a copy of the cached units for path and source.
func (c *UnitCache) Get(path string, source []byte) ([]extraction.Unit, bool) {
	units, ok := c.cache.Get(cacheKey(path, source))
	if !ok {
		return nil, false
	}
	out := make([]extraction.Unit, len(units))
	copy(out, units)
	return out, true
}

// Set stores the walker output for path and source.
func (c *UnitCache) Set(path string, source []byte, units []extraction.Unit) {
	stored := make([]extraction.Unit, len(units))
	copy(stored, units)
	c.cache.Set(cacheKey(path, source), stored)
}

// Close releases the cache's background resources.
func (c *UnitCache) Close() {
	c.cache.Close()
}

func cacheKey(path string, source []byte) string {
	sum := sha256.Sum256(source)
	return path + "\x00" + hex.EncodeToString(sum[:])
}
