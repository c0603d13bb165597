package httpserver

import (
	"errors"
	"net/http"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/tmdb"
)

type searchResponse struct {
	Results []domain.Candidate `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Movie search is not configured")
		return
	}

	results, err := s.search.Search(r.Context(), r.URL.Query().Get("movie_name"))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	case errors.Is(err, tmdb.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Movie search is temporarily unavailable")
		return
	default:
		s.logger.Error().Err(err).Msg("movie search failed")
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Movie search failed")
		return
	}

	if len(results) == 0 {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "No results found")
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse{Results: results})
}
