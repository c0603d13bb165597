package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id,
    title,
    overview,
    trailer_url,
    poster_url,
    total_rating,
    num_ratings,
    created_at
`

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title      string
	Overview   string
	TrailerURL string
	PosterURL  string
}

// Create inserts a new movie row with zeroed rating totals. When a row with
// the same title already exists (including one inserted concurrently) that row
// is returned and created is false.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (title, overview, trailer_url, poster_url)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (title) DO NOTHING
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.Title, params.Overview, params.TrailerURL, params.PosterURL)
	movie, err := scanMovie(row)
	if err == nil {
		return movie, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Movie{}, false, err
	}

	existing, err := r.GetByTitle(ctx, params.Title)
	if err != nil {
		return domain.Movie{}, false, err
	}
	return existing, false, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// GetByTitle fetches the movie whose title matches exactly.
func (r *MoviesRepository) GetByTitle(ctx context.Context, title string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE title = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// TopByRating returns up to limit movies ordered by average rating, highest
// first. Equal averages keep insertion order (lowest id first).
func (r *MoviesRepository) TopByRating(ctx context.Context, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		return []domain.Movie{}, nil
	}
	query := fmt.Sprintf(`
        SELECT %s FROM movies
        ORDER BY average_rating DESC, id ASC
        LIMIT $1
    `, movieColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0, limit)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Overview,
		&movie.TrailerURL,
		&movie.PosterURL,
		&movie.TotalRating,
		&movie.NumRatings,
		&movie.CreatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
