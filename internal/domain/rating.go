package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Accepted star rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 10
)

// ParseRating converts raw user input into a rating value.
func ParseRating(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: rating must be an integer", ErrInvalidInput)
	}
	if err := ValidateRating(value); err != nil {
		return 0, err
	}
	return value, nil
}

// ValidateRating rejects values outside [MinRating, MaxRating].
func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, MinRating, MaxRating)
	}
	return nil
}

// ApplyRating folds one rating into the running totals.
func (m *Movie) ApplyRating(value int) {
	m.TotalRating += int64(value)
	m.NumRatings++
}
