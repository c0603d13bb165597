package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/repository"
)

var errStoreDown = errors.New("connection refused")

// memStore is an in-memory MovieStore that counts store round-trips.
type memStore struct {
	mu     sync.Mutex
	movies map[int64]domain.Movie
	nextID int64
	down   atomic.Bool

	getCalls atomic.Int64
	topCalls atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{movies: make(map[int64]domain.Movie)}
}

func (s *memStore) GetByID(_ context.Context, id int64) (domain.Movie, error) {
	s.getCalls.Add(1)
	if s.down.Load() {
		return domain.Movie{}, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return m, nil
}

func (s *memStore) GetByTitle(_ context.Context, title string) (domain.Movie, error) {
	if s.down.Load() {
		return domain.Movie{}, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movies {
		if m.Title == title {
			return m, nil
		}
	}
	return domain.Movie{}, repository.ErrNotFound
}

func (s *memStore) TopByRating(_ context.Context, limit int) ([]domain.Movie, error) {
	s.topCalls.Add(1)
	if s.down.Load() {
		return nil, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].AverageRating(), out[j].AverageRating()
		if ai != aj {
			return ai > aj
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, params repository.MovieCreateParams) (domain.Movie, bool, error) {
	if s.down.Load() {
		return domain.Movie{}, false, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movies {
		if m.Title == params.Title {
			return m, false, nil
		}
	}
	s.nextID++
	m := domain.Movie{
		ID:         s.nextID,
		Title:      params.Title,
		Overview:   params.Overview,
		TrailerURL: params.TrailerURL,
		PosterURL:  params.PosterURL,
		CreatedAt:  time.Now().UTC(),
	}
	s.movies[m.ID] = m
	return m, true, nil
}

func (s *memStore) UpdateRating(_ context.Context, id int64, mutate repository.RatingMutator) (domain.Movie, error) {
	if s.down.Load() {
		return domain.Movie{}, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	if err := mutate(&m); err != nil {
		return domain.Movie{}, err
	}
	s.movies[id] = m
	return m, nil
}

// brokenBackend fails every operation, like an unreachable cache server.
type brokenBackend struct{}

var errCacheDown = errors.New("dial tcp: connection refused")

func (brokenBackend) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (brokenBackend) Add(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errCacheDown
}
func (brokenBackend) Delete(context.Context, string) error { return errCacheDown }
func (brokenBackend) HealthCheck(context.Context) error { return errCacheDown }
func (brokenBackend) Close() error { return nil }

// stallingStore pauses the next armed read after it has taken its snapshot,
// so a test can commit writes while a cache fill is still in flight.
type stallingStore struct {
	*memStore
	stallTop atomic.Bool
	stallGet atomic.Bool
	reached  chan struct{}
	release  chan struct{}
}

func newStallingStore() *stallingStore {
	return &stallingStore{
		memStore: newMemStore(),
		reached:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (s *stallingStore) TopByRating(ctx context.Context, limit int) ([]domain.Movie, error) {
	out, err := s.memStore.TopByRating(ctx, limit)
	if s.stallTop.CompareAndSwap(true, false) {
		s.reached <- struct{}{}
		<-s.release
	}
	return out, err
}

func (s *stallingStore) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	m, err := s.memStore.GetByID(ctx, id)
	if s.stallGet.CompareAndSwap(true, false) {
		s.reached <- struct{}{}
		<-s.release
	}
	return m, err
}
