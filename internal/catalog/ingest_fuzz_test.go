package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/cache"
	"github.com/Clark-Hu/cinerank/internal/domain"
)

func FuzzSubmitCandidate(f *testing.F) {
	f.Add("Inception", "dreams", "https://image.tmdb.org/t/p/w500/x.jpg", "https://www.youtube.com/embed/abc")
	f.Add("  ", "o", "p", "t")
	f.Add("Heat", "", "p", "t")

	f.Fuzz(func(t *testing.T, title, overview, poster, trailer string) {
		backend := cache.NewMemoryBackend(time.Minute)
		defer backend.Close()
		svc := New(newMemStore(), backend, Options{Logger: zerolog.Nop()})

		sub := SubmissionFromCandidate(domain.Candidate{
			Title:      title,
			Overview:   overview,
			PosterURL:  poster,
			TrailerURL: trailer,
		})
		id, created, err := svc.SubmitMovie(context.Background(), sub)

		blank := false
		for _, v := range []string{title, overview, poster, trailer} {
			if strings.TrimSpace(v) == "" {
				blank = true
			}
		}
		if blank {
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input for blank field, got %v", err)
			}
			return
		}
		if err != nil || !created || id <= 0 {
			t.Fatalf("SubmitMovie() = (%d, %v, %v), want fresh id", id, created, err)
		}

		again, created, err := svc.SubmitMovie(context.Background(), sub)
		if err != nil || created || again != id {
			t.Fatalf("resubmit = (%d, %v, %v), want (%d, false, nil)", again, created, err, id)
		}
	})
}
