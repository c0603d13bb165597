// Package tmdb searches The Movie Database and normalizes results into
// submission candidates with a resolved trailer URL.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

const (
	posterBaseURL  = "https://image.tmdb.org/t/p/w500"
	trailerBaseURL = "https://www.youtube.com/embed/"
)

// ErrUnavailable is returned while the upstream is failing and the circuit
// breaker is open.
var ErrUnavailable = errors.New("tmdb: upstream unavailable")

// Client defines the contract for querying the movie database.
type Client interface {
	Search(ctx context.Context, query string) ([]domain.Candidate, error)
}

// Options tunes the HTTP client.
type Options struct {
	Timeout          time.Duration
	FailureThreshold uint32        // consecutive failures before the breaker opens
	OpenTimeout      time.Duration // how long the breaker stays open
	Logger           zerolog.Logger
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]domain.Candidate]
	logger  zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed movie database client.
func NewHTTPClient(baseURL, apiKey string, opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse tmdb url: %q is not absolute", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	logger := opts.Logger
	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]domain.Candidate](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("tmdb: circuit breaker state changed")
		},
	})

	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   opts.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   opts.Timeout,
				ResponseHeaderTimeout: opts.Timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Search queries the movie database and returns candidates that have both a
// poster and a trailer. An empty slice means nothing usable was found.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}

	results, err := c.breaker.Execute(func() ([]domain.Candidate, error) {
		return c.search(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return results, err
}

func (c *HTTPClient) search(ctx context.Context, query string) ([]domain.Candidate, error) {
	var payload searchResponse
	if err := c.getJSON(ctx, "/3/search/movie", url.Values{"query": {query}}, &payload); err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(payload.Results))
	for _, item := range payload.Results {
		candidate, ok := c.normalize(ctx, item)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (c *HTTPClient) normalize(ctx context.Context, item movieResult) (domain.Candidate, bool) {
	if item.PosterPath == "" {
		return domain.Candidate{}, false
	}
	title := item.Title
	if title == "" {
		title = item.OriginalTitle
	}

	trailer, err := c.trailerURL(ctx, item.ID)
	if err != nil {
		c.logger.Debug().Err(err).Int64("external_id", item.ID).Msg("tmdb: skipping result without trailer")
		return domain.Candidate{}, false
	}

	return domain.Candidate{
		ExternalID: item.ID,
		Title:      title,
		Overview:   item.Overview,
		PosterURL:  posterBaseURL + item.PosterPath,
		TrailerURL: trailer,
	}, true
}

func (c *HTTPClient) trailerURL(ctx context.Context, externalID int64) (string, error) {
	var payload videosResponse
	path := "/3/movie/" + strconv.FormatInt(externalID, 10) + "/videos"
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return "", err
	}
	if len(payload.Results) == 0 || payload.Results[0].Key == "" {
		return "", errNoVideos
	}
	return trailerBaseURL + payload.Results[0].Key, nil
}

var errNoVideos = errors.New("tmdb: no videos")

// maxResponseBody caps how much of an upstream response is decoded.
const maxResponseBody = 1 << 20

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	rel := &url.URL{Path: c.baseURL.Path + path, RawQuery: params.Encode()}
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(dst); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

type searchResponse struct {
	Results []movieResult `json:"results"`
}

type movieResult struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Overview      string `json:"overview"`
	PosterPath    string `json:"poster_path"`
}

type videosResponse struct {
	Results []struct {
		Key  string `json:"key"`
		Site string `json:"site"`
		Type string `json:"type"`
	} `json:"results"`
}
