package catalog

import (
	"context"
	"errors"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/metrics"
)

// RateMovie folds one rating into the movie's totals. The read-modify-write
// runs against the locked store row, never the cache, and both the entity and
// the list entries are invalidated after commit.
func (s *Service) RateMovie(ctx context.Context, id int64, value int) (domain.Movie, error) {
	if err := domain.ValidateRating(value); err != nil {
		return domain.Movie{}, err
	}

	movie, err := s.store.UpdateRating(ctx, id, func(m *domain.Movie) error {
		m.ApplyRating(value)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Movie{}, err
		}
		return domain.Movie{}, storageError("rate movie", err)
	}

	// The write is committed; a client hanging up must not skip invalidation.
	invCtx := context.WithoutCancel(ctx)
	s.cache.InvalidateEntity(invCtx, id)
	s.cache.InvalidateList(invCtx)

	metrics.RatingsAppliedTotal.Inc()
	s.logger.Debug().
		Int64(logging.FieldMovieID, id).
		Int("rating", value).
		Int64("average", movie.AverageRating()).
		Msg("rating applied")
	return movie, nil
}
