package catalog

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Clark-Hu/cinerank/internal/cache"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/metrics"
)

// Cache keys.
const (
	TopListKey      = "top_movies"
	EntityKeyPrefix = "movie:"
)

// EntityKey returns the per-movie cache key.
func EntityKey(id int64) string {
	return EntityKeyPrefix + strconv.FormatInt(id, 10)
}

// MovieCache is the read-through, write-invalidate view over the record
// store. It is never authoritative: every failure falls back to the store.
type MovieCache struct {
	store    MovieStore
	backend  cache.Backend
	ttl      time.Duration
	topLimit int
	logger   zerolog.Logger
	fills    singleflight.Group

	// generations counts invalidations per key. A fill that started before an
	// invalidation must not write its result back.
	generations sync.Map // string -> *atomic.Uint64
}

// NewMovieCache builds the cache layer.
func NewMovieCache(store MovieStore, backend cache.Backend, ttl time.Duration, topLimit int, logger zerolog.Logger) *MovieCache {
	return &MovieCache{
		store:    store,
		backend:  backend,
		ttl:      ttl,
		topLimit: topLimit,
		logger:   logging.WithComponent(logger, "movie-cache"),
	}
}

// TopList returns the cached ranked list or recomputes it from the store.
func (c *MovieCache) TopList(ctx context.Context) ([]domain.Movie, error) {
	var cached []domain.Movie
	if c.lookup(ctx, TopListKey, metrics.KindList, &cached) {
		return cached, nil
	}

	// Concurrent misses share one store query. The fill is detached from the
	// first caller's cancellation so it cannot fail the others.
	v, err, _ := c.fills.Do(TopListKey, func() (any, error) {
		fillCtx := context.WithoutCancel(ctx)
		gen := c.generation(TopListKey)
		movies, err := c.store.TopByRating(fillCtx, c.topLimit)
		if err != nil {
			return nil, err
		}
		c.populate(fillCtx, TopListKey, gen, movies)
		return movies, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Movie)), nil
}

// ByID returns the cached movie or loads it from the store.
func (c *MovieCache) ByID(ctx context.Context, id int64) (domain.Movie, error) {
	key := EntityKey(id)
	var cached domain.Movie
	if c.lookup(ctx, key, metrics.KindEntity, &cached) {
		return cached, nil
	}

	gen := c.generation(key)
	movie, err := c.store.GetByID(ctx, id)
	if err != nil {
		return domain.Movie{}, err
	}
	c.populate(ctx, key, gen, movie)
	return movie, nil
}

// InvalidateList drops the ranked list entry. Readers arriving afterwards
// start a new fill instead of joining one that read the store earlier.
func (c *MovieCache) InvalidateList(ctx context.Context) {
	c.invalidate(ctx, TopListKey)
	c.fills.Forget(TopListKey)
}

// InvalidateEntity drops the entry for one movie.
func (c *MovieCache) InvalidateEntity(ctx context.Context, id int64) {
	c.invalidate(ctx, EntityKey(id))
}

// HealthCheck reports backend reachability. Callers treat failure as degraded,
// not down.
func (c *MovieCache) HealthCheck(ctx context.Context) error {
	return c.backend.HealthCheck(ctx)
}

func (c *MovieCache) lookup(ctx context.Context, key, kind string, dst any) bool {
	payload, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
			c.logger.Info().Err(err).Str(logging.FieldCacheKey, key).Msg("cache get failed, falling back to store")
		}
		metrics.CacheMissesTotal.WithLabelValues(kind).Inc()
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("decode").Inc()
		metrics.CacheMissesTotal.WithLabelValues(kind).Inc()
		c.logger.Warn().Err(err).Str(logging.FieldCacheKey, key).Msg("discarding undecodable cache entry")
		c.invalidate(ctx, key)
		return false
	}
	metrics.CacheHitsTotal.WithLabelValues(kind).Inc()
	return true
}

func (c *MovieCache) counter(key string) *atomic.Uint64 {
	if v, ok := c.generations.Load(key); ok {
		return v.(*atomic.Uint64)
	}
	v, _ := c.generations.LoadOrStore(key, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

func (c *MovieCache) generation(key string) uint64 {
	return c.counter(key).Load()
}

// populate writes value under key unless key was invalidated after gen was
// taken. The generation is checked again after the write: an invalidation
// whose Delete ran before our Add removes the entry here instead.
func (c *MovieCache) populate(ctx context.Context, key string, gen uint64, value any) {
	if c.generation(key) != gen {
		c.logger.Debug().Str(logging.FieldCacheKey, key).Msg("skipping fill invalidated mid-flight")
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str(logging.FieldCacheKey, key).Msg("cache encode failed")
		return
	}
	added, err := c.backend.Add(ctx, key, payload, c.ttl)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("add").Inc()
		c.logger.Info().Err(err).Str(logging.FieldCacheKey, key).Msg("cache add failed")
		return
	}
	if added && c.generation(key) != gen {
		c.invalidate(ctx, key)
	}
}

func (c *MovieCache) invalidate(ctx context.Context, key string) {
	c.counter(key).Add(1)
	if err := c.backend.Delete(ctx, key); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("delete").Inc()
		c.logger.Info().Err(err).Str(logging.FieldCacheKey, key).Msg("cache delete failed, entry expires with its TTL")
		return
	}
	c.logger.Debug().Str(logging.FieldCacheKey, key).Msg("cache entry invalidated")
}
