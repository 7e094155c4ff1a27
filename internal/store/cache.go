package store

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru"

	"numerox/internal/data"
)

// Compile-time interface check.
var _ DataStore = (*CachedStore)(nil)

// CachedStore keeps recently loaded datasets in memory. Entries are keyed
// by file path, size and modification time, so a file rewritten behind the
// store's back is read again. Cached datasets are shared between callers.
type CachedStore struct {
	inner *ParquetStore
	cache *lru.Cache
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64 // unix nanoseconds
}

// NewCachedStore wraps inner with an LRU cache holding up to size datasets.
func NewCachedStore(inner *ParquetStore, size int) (*CachedStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating dataset cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: c}, nil
}

// SaveData writes through to the underlying store.
func (c *CachedStore) SaveData(ctx context.Context, path string, d *data.Data, compress bool) error {
	return c.inner.SaveData(ctx, path, d, compress)
}

// LoadData returns the cached dataset for path if the file is unchanged.
func (c *CachedStore) LoadData(ctx context.Context, path string) (*data.Data, error) {
	full := c.inner.Path(path)
	st, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	key := cacheKey{path: full, size: st.Size(), modTime: st.ModTime().UnixNano()}
	if v, ok := c.cache.Get(key); ok {
		return v.(*data.Data), nil
	}
	d, err := c.inner.LoadData(ctx, path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, d)
	return d, nil
}

// Len returns the number of cached datasets.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
