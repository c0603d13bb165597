package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/metrics"
	"github.com/Clark-Hu/cinerank/internal/repository"
)

// Submission is a candidate movie from the submit form or a search result.
type Submission struct {
	Title      string `validate:"required"`
	Overview   string `validate:"required"`
	PosterURL  string `validate:"required"`
	TrailerURL string `validate:"required"`
}

func (s Submission) normalized() Submission {
	return Submission{
		Title:      strings.TrimSpace(s.Title),
		Overview:   strings.TrimSpace(s.Overview),
		PosterURL:  strings.TrimSpace(s.PosterURL),
		TrailerURL: strings.TrimSpace(s.TrailerURL),
	}
}

// SubmissionFromCandidate converts a search result into a Submission.
func SubmissionFromCandidate(c domain.Candidate) Submission {
	return Submission{
		Title:      c.Title,
		Overview:   c.Overview,
		PosterURL:  c.PosterURL,
		TrailerURL: c.TrailerURL,
	}
}

// SubmitMovie creates a movie unless one with the same title exists. It
// returns the id of the found or created record and whether it was created.
// Existing records are never modified.
func (s *Service) SubmitMovie(ctx context.Context, sub Submission) (int64, bool, error) {
	sub = sub.normalized()
	if err := s.validate.Struct(sub); err != nil {
		return 0, false, invalidSubmission(err)
	}

	existing, err := s.store.GetByTitle(ctx, sub.Title)
	if err == nil {
		metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Debug().Int64(logging.FieldMovieID, existing.ID).Str(logging.FieldTitle, sub.Title).Msg("submission matches existing title")
		return existing.ID, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, false, storageError("lookup title", err)
	}

	movie, created, err := s.store.Create(ctx, repository.MovieCreateParams{
		Title:      sub.Title,
		Overview:   sub.Overview,
		TrailerURL: sub.TrailerURL,
		PosterURL:  sub.PosterURL,
	})
	if err != nil {
		return 0, false, storageError("create movie", err)
	}
	if !created {
		// Lost a race with a concurrent submission of the same title.
		metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
		return movie.ID, false, nil
	}

	metrics.SubmissionsTotal.WithLabelValues("created").Inc()
	s.cache.InvalidateList(context.WithoutCancel(ctx))
	s.logger.Info().Int64(logging.FieldMovieID, movie.ID).Str(logging.FieldTitle, movie.Title).Msg("movie created")
	return movie.ID, true, nil
}

func invalidSubmission(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return fmt.Errorf("%w: missing required fields: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
