package domain

import "time"

// Movie represents the canonical movie entity in the database/service.
// The average rating is always derived from TotalRating and NumRatings.
type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	TrailerURL  string    `json:"trailerUrl"`
	PosterURL   string    `json:"posterUrl"`
	TotalRating int64     `json:"totalRating"`
	NumRatings  int64     `json:"numRatings"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AverageRating returns TotalRating / NumRatings truncated toward zero, or 0
// for a movie that has never been rated.
func (m Movie) AverageRating() int64 {
	if m.NumRatings <= 0 {
		return 0
	}
	return m.TotalRating / m.NumRatings
}

// Candidate is a normalized movie descriptor produced by the search
// integration. It carries everything needed for a submission.
type Candidate struct {
	ExternalID int64  `json:"externalId"`
	Title      string `json:"title"`
	Overview   string `json:"overview"`
	PosterURL  string `json:"posterUrl"`
	TrailerURL string `json:"trailerUrl"`
}
