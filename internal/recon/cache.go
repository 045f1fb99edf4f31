package recon

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "upsync_cache_refreshes_total",
	Help: "Incremental sync cache refreshes, labeled by cache name",
}, []string{"cache"})

// defaultWindow is how far back a fresh cache syncs when it has no
// better information about the age of the key it missed on.
const defaultWindow = 4 * 24 * time.Hour

// RefreshFunc fetches every entry changed since serverKnowledge within
// the window starting at since, returning the entries keyed by their
// correlation field and the server's new knowledge token.
type RefreshFunc[V any] func(ctx context.Context, since time.Time, serverKnowledge int64) (map[string]V, int64, error)

// Cache is a lazily refreshed local mirror of one listing endpoint of
// the destination ledger. Entries are never evicted; refreshes only
// layer newer information on top. The mutex guards map and cursor
// integrity only — concurrent Lookup calls for the same absent key can
// still both miss and both act on it.
type Cache[V any] struct {
	name    string
	refresh RefreshFunc[V]
	now     func() time.Time

	mu          sync.Mutex
	entries     map[string]V
	knowledge   int64
	windowStart time.Time
}

func NewCache[V any](name string, refresh RefreshFunc[V]) *Cache[V] {
	return &Cache[V]{
		name:    name,
		refresh: refresh,
		now:     time.Now,
		entries: make(map[string]V),
	}
}

// Lookup returns the value for key, refreshing the mirror first when
// the key is absent locally. A non-zero hint earlier than the current
// sync window widens the window to include it. Absence after a refresh
// is a negative result, not an error: the key may simply not exist in
// the destination ledger yet.
func (c *Cache[V]) Lookup(ctx context.Context, key string, hint time.Time) (V, bool, error) {
	c.mu.Lock()
	v, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return v, true, nil
	}

	if err := c.Refresh(ctx, hint); err != nil {
		var zero V
		return zero, false, err
	}

	c.mu.Lock()
	v, ok = c.entries[key]
	c.mu.Unlock()
	return v, ok, nil
}

// Refresh pulls changes from the destination ledger into the local
// mirror. The window start only ever moves earlier; when it does, the
// knowledge token is reset because a delta resync against the old token
// would miss entries before the previous window start.
func (c *Cache[V]) Refresh(ctx context.Context, hint time.Time) error {
	c.mu.Lock()
	since := c.windowStart
	if since.IsZero() {
		since = c.now().Add(-defaultWindow)
	}
	knowledge := c.knowledge
	if !hint.IsZero() && hint.Before(since) {
		since = hint
		knowledge = 0
	}
	c.mu.Unlock()

	fresh, newKnowledge, err := c.refresh(ctx, since, knowledge)
	if err != nil {
		return err
	}
	cacheRefreshTotal.WithLabelValues(c.name).Inc()

	c.mu.Lock()
	for k, v := range fresh {
		c.entries[k] = v
	}
	c.knowledge = newKnowledge
	if c.windowStart.IsZero() || since.Before(c.windowStart) {
		c.windowStart = since
	}
	c.mu.Unlock()
	return nil
}

// Insert writes through a value created by this process, so subsequent
// lookups in the same run do not re-create it.
func (c *Cache[V]) Insert(key string, v V) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Cursor exposes the cache's sync state: the last server knowledge
// token and the earliest synced date.
func (c *Cache[V]) Cursor() (int64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.knowledge, c.windowStart
}
