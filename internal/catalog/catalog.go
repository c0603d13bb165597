// Package catalog implements the movie operations exposed to the HTTP layer:
// the cached top list and movie lookups, title-deduplicated ingestion, and
// transactional rating aggregation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/cache"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/repository"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTTL      = 30 * time.Second
	DefaultTopLimit = 80
)

// MovieStore is the record store the catalog reads from and writes to.
// *repository.MoviesRepository satisfies it.
type MovieStore interface {
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
	GetByTitle(ctx context.Context, title string) (domain.Movie, error)
	TopByRating(ctx context.Context, limit int) ([]domain.Movie, error)
	Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, bool, error)
	UpdateRating(ctx context.Context, id int64, mutate repository.RatingMutator) (domain.Movie, error)
}

// Options tunes the catalog.
type Options struct {
	TTL      time.Duration
	TopLimit int
	Logger   zerolog.Logger
}

// Service is the entry point used by the HTTP layer.
type Service struct {
	store    MovieStore
	cache    *MovieCache
	logger   zerolog.Logger
	validate *validator.Validate
}

// New wires a Service over store with backend as its cache.
func New(store MovieStore, backend cache.Backend, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = DefaultTopLimit
	}
	return &Service{
		store:    store,
		cache:    NewMovieCache(store, backend, opts.TTL, opts.TopLimit, opts.Logger),
		logger:   opts.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Cache exposes the cache layer, mainly for health checks.
func (s *Service) Cache() *MovieCache {
	return s.cache
}

// ListTopMovies returns the ranked list, served from cache when possible.
func (s *Service) ListTopMovies(ctx context.Context) ([]domain.Movie, error) {
	movies, err := s.cache.TopList(ctx)
	if err != nil {
		return nil, storageError("list top movies", err)
	}
	return movies, nil
}

// GetMovie returns one movie, served from cache when possible.
func (s *Service) GetMovie(ctx context.Context, id int64) (domain.Movie, error) {
	movie, err := s.cache.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Movie{}, err
		}
		return domain.Movie{}, storageError("get movie", err)
	}
	return movie, nil
}

func storageError(op string, err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
