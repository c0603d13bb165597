package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// RatingMutator changes the rating fields of a locked movie row. Returning an
// error rolls the transaction back.
type RatingMutator func(movie *domain.Movie) error

// UpdateRating loads the movie with a row lock, applies mutate and persists
// the new totals in the same transaction. Concurrent calls for the same id are
// serialized by the lock; other ids are unaffected.
func (r *MoviesRepository) UpdateRating(ctx context.Context, id int64, mutate RatingMutator) (movie domain.Movie, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.Movie{}, fmt.Errorf("begin rating tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1 FOR UPDATE`, movieColumns)
	movie, err = scanMovie(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}

	if err = mutate(&movie); err != nil {
		return domain.Movie{}, err
	}

	const update = `
        UPDATE movies
        SET total_rating = $2,
            num_ratings = $3
        WHERE id = $1
    `
	if _, err = tx.Exec(ctx, update, id, movie.TotalRating, movie.NumRatings); err != nil {
		return domain.Movie{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Movie{}, fmt.Errorf("commit rating tx: %w", err)
	}
	return movie, nil
}
