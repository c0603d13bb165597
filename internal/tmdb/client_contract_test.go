package tmdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestHTTPClientSmoke checks that the client can parse at least one candidate
// from a live or mock service.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("TMDB_URL")
	if baseURL == "" {
		t.Skip("TMDB_URL not provided")
	}
	client, err := NewHTTPClient(baseURL, os.Getenv("TMDB_API_KEY"), Options{Timeout: 3 * time.Second, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := client.Search(ctx, "Inception")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 || results[0].TrailerURL == "" {
		t.Fatalf("unexpected search payload: %+v", results)
	}
}
