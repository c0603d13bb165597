package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// mockEntry is one fixture movie; Trailer is the YouTube key returned by the
// videos endpoint.
type mockEntry struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Overview   string `json:"overview"`
	PosterPath string `json:"poster_path"`
	Trailer    string `json:"trailer"`
}

func main() {
	var (
		port = flag.String("port", "9099", "port to listen on")
		data = flag.String("data", "mock-tmdb.json", "path to mock data file")
		key  = flag.String("api-key", "", "require this api_key query parameter when set")
	)
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "tmdb-mock").Logger()

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("read mock data")
	}

	var entries []mockEntry
	if err := json.Unmarshal(file, &entries); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}
	byID := make(map[int64]mockEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	authorized := func(r *http.Request) bool {
		return *key == "" || r.URL.Query().Get("api_key") == *key
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/3/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
		results := make([]mockEntry, 0)
		for _, e := range entries {
			if query != "" && strings.Contains(strings.ToLower(e.Title), query) {
				results = append(results, e)
			}
		}
		writeJSON(w, map[string]any{"results": results})
	})
	mux.HandleFunc("/3/movie/", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/3/movie/"), "/videos")
		id, err := strconv.ParseInt(raw, 10, 64)
		entry, ok := byID[id]
		if err != nil || !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		videos := make([]map[string]string, 0, 1)
		if entry.Trailer != "" {
			videos = append(videos, map[string]string{"key": entry.Trailer, "site": "YouTube", "type": "Trailer"})
		}
		writeJSON(w, map[string]any{"id": entry.ID, "results": videos})
	})

	addr := ":" + *port
	logger.Info().Str("addr", addr).Int("entries", len(entries)).Msg("mock tmdb listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
