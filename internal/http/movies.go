package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/logging"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type movieCreateRequest struct {
	Title      string `json:"title"`
	Overview   string `json:"overview"`
	PosterURL  string `json:"posterUrl"`
	TrailerURL string `json:"trailerUrl"`
}

type movieCreateResponse struct {
	ID      int64 `json:"id"`
	Created bool  `json:"created"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
}

type movieResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Overview      string    `json:"overview"`
	PosterURL     string    `json:"posterUrl"`
	TrailerURL    string    `json:"trailerUrl"`
	AverageRating int64     `json:"averageRating"`
	TotalRating   int64     `json:"totalRating"`
	NumRatings    int64     `json:"numRatings"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ratingRequest accepts the rating as a JSON number or a numeric string.
type ratingRequest struct {
	Rating json.Number `json:"rating"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.catalog.ListTopMovies(r.Context())
	if err != nil {
		s.respondServiceError(w, err, "list movies")
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items})
}

func (s *Server) handleSubmitMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	id, created, err := s.catalog.SubmitMovie(r.Context(), catalog.Submission{
		Title:      req.Title,
		Overview:   req.Overview,
		PosterURL:  req.PosterURL,
		TrailerURL: req.TrailerURL,
	})
	if err != nil {
		s.respondServiceError(w, err, "submit movie")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d", id))
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, movieCreateResponse{ID: id, Created: created})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
		return
	}

	movie, err := s.catalog.GetMovie(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err, "get movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(r)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	value, err := domain.ParseRating(req.Rating.String())
	if err != nil {
		s.respondServiceError(w, err, "rate movie")
		return
	}

	movie, err := s.catalog.RateMovie(r.Context(), id, value)
	if err != nil {
		s.respondServiceError(w, err, "rate movie")
		return
	}
	s.logger.Debug().Int64(logging.FieldMovieID, id).Int("rating", value).Msg("rating accepted")
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func movieIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// respondServiceError maps catalog errors onto the JSON error envelope.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
	case errors.Is(err, domain.ErrInvalidInput):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		s.logger.Error().Err(err).Str("op", op).Msg("request failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		ID:            movie.ID,
		Title:         movie.Title,
		Overview:      movie.Overview,
		PosterURL:     movie.PosterURL,
		TrailerURL:    movie.TrailerURL,
		AverageRating: movie.AverageRating(),
		TotalRating:   movie.TotalRating,
		NumRatings:    movie.NumRatings,
		CreatedAt:     movie.CreatedAt,
	}
}
