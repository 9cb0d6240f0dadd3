package repository

import (
	"context"
	"sync"

	"grade-platform/internal/models"
)

// CachedRepository memoizes per-scale maps and snapshots of another repository until Reset
type CachedRepository struct {
	inner GradeScaleRepository

	mu       sync.Mutex
	cache    map[string]map[int]string
	snapshot GradeScaleRepository
}

var (
	_ GradeScaleRepository = (*CachedRepository)(nil)
	_ ColumnLister         = (*CachedRepository)(nil)
	_ Snapshotter          = (*CachedRepository)(nil)
)

// NewCachedRepository wraps inner with a per-scale cache
func NewCachedRepository(inner GradeScaleRepository) *CachedRepository {
	return &CachedRepository{
		inner: inner,
		cache: make(map[string]map[int]string),
	}
}

// IndexToGradeMap returns a copy of the cached map, loading it on first use.
// Errors are not cached.
func (r *CachedRepository) IndexToGradeMap(ctx context.Context, scaleID string) (map[int]string, error) {
	key := models.CanonicalScaleID(scaleID)

	r.mu.Lock()
	cells, ok := r.cache[key]
	r.mu.Unlock()

	if !ok {
		loaded, err := r.inner.IndexToGradeMap(ctx, key)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[key] = loaded
		r.mu.Unlock()
		cells = loaded
	}

	out := make(map[int]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out, nil
}

// Columns delegates to the wrapped repository when it can list columns
func (r *CachedRepository) Columns(ctx context.Context) ([]string, error) {
	lister, ok := r.inner.(ColumnLister)
	if !ok {
		return nil, nil
	}
	return lister.Columns(ctx)
}

// Snapshot returns the wrapped repository's snapshot, taken once and reused
// until Reset. Repositories that cannot snapshot are served through the cache.
func (r *CachedRepository) Snapshot(ctx context.Context) (GradeScaleRepository, error) {
	s, ok := r.inner.(Snapshotter)
	if !ok {
		return r, nil
	}

	r.mu.Lock()
	snap := r.snapshot
	r.mu.Unlock()
	if snap != nil {
		return snap, nil
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()
	return snap, nil
}

// Reset drops every cached scale and snapshot
func (r *CachedRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]map[int]string)
	r.snapshot = nil
}
