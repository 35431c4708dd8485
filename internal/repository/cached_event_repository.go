package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/ol-results/internal/metrics"
	"github.com/yourusername/ol-results/internal/models"
)

// CachedEventRepository serves FindByID from an in-memory cache and drops
// cached entries on every write that goes through it. A miss only fills the
// cache if no write to the same id finished while it was loading.
type CachedEventRepository struct {
	next      EventRepository
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64

	mu          sync.Mutex
	generations map[models.EventID]uint64
}

// NewCachedEventRepository wraps next with a read-through cache
func NewCachedEventRepository(next EventRepository, ttl time.Duration) *CachedEventRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedEventRepository{
		next:        next,
		cache:       cache.New(ttl, ttl*2),
		ttl:         ttl,
		generations: make(map[models.EventID]uint64),
	}
}

// Save implements EventRepository
func (c *CachedEventRepository) Save(ctx context.Context, event *models.Event) (*models.Event, error) {
	stored, err := c.next.Save(ctx, event)
	if err != nil {
		return nil, err
	}
	c.invalidate(stored.ID)
	return stored, nil
}

// FindAll implements EventRepository. Snapshots are not cached.
func (c *CachedEventRepository) FindAll(ctx context.Context) ([]*models.Event, error) {
	return c.next.FindAll(ctx)
}

// FindByID implements EventRepository
func (c *CachedEventRepository) FindByID(ctx context.Context, id models.EventID) (*models.Event, bool, error) {
	if cached, found := c.cache.Get(id.String()); found {
		if e, ok := cached.(*models.Event); ok {
			c.hitCount.Add(1)
			metrics.RecordCacheHit()
			return e.Clone(), true, nil
		}
	}

	c.missCount.Add(1)
	metrics.RecordCacheMiss()

	gen := c.generation(id)
	e, found, err := c.next.FindByID(ctx, id)
	if err != nil || !found {
		return e, found, err
	}
	c.fill(id, gen, e)
	return e, true, nil
}

// FindOrCreate implements EventRepository
func (c *CachedEventRepository) FindOrCreate(ctx context.Context, event *models.Event) (*models.Event, bool, error) {
	stored, created, err := c.next.FindOrCreate(ctx, event)
	if err != nil {
		return nil, false, err
	}
	if created {
		c.invalidate(stored.ID)
	}
	return stored, created, nil
}

// ReplaceClassResults implements EventRepository
func (c *CachedEventRepository) ReplaceClassResults(ctx context.Context, event *models.Event) error {
	if event != nil {
		defer c.invalidate(event.ID)
	}
	return c.next.ReplaceClassResults(ctx, event)
}

// AppendClassResults implements EventRepository
func (c *CachedEventRepository) AppendClassResults(ctx context.Context, id models.EventID, classResults []models.ClassResult) error {
	defer c.invalidate(id)
	return c.next.AppendClassResults(ctx, id, classResults)
}

// Stats returns cache hits, misses and hit ratio
func (c *CachedEventRepository) Stats() (hits, misses uint64, ratio float64) {
	hits, misses = c.hitCount.Load(), c.missCount.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return hits, misses, ratio
}

func (c *CachedEventRepository) generation(id models.EventID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id]
}

func (c *CachedEventRepository) fill(id models.EventID, gen uint64, e *models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[id] != gen {
		return
	}
	c.cache.Set(id.String(), e.Clone(), c.ttl)
}

func (c *CachedEventRepository) invalidate(id models.EventID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[id]++
	c.cache.Delete(id.String())
}
