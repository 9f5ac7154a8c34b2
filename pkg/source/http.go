package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodyBytes caps the size of a menu response.
	DefaultMaxBodyBytes = 8 << 20
)

// HTTPSource fetches the menu from the menu tree API.
type HTTPSource struct {
	endpoint string
	token    string
	client   *http.Client
	maxBody  int64
	breaker  *gobreaker.CircuitBreaker
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithToken sets the bearer token sent in the Authorization header.
func WithToken(token string) HTTPOption {
	return func(s *HTTPSource) { s.token = token }
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithTimeout sets the per-fetch timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.client.Timeout = d }
}

// WithMaxBodyBytes caps the response size. Larger responses fail with
// ErrTooLarge.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(s *HTTPSource) { s.maxBody = n }
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(st gobreaker.Settings) HTTPOption {
	return func(s *HTTPSource) { s.breaker = gobreaker.NewCircuitBreaker(st) }
}

// DefaultBreakerSettings opens the breaker after five consecutive failures
// and probes again after 30 seconds.
func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "menu-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}
}

// NewHTTPSource returns a source for endpoint.
func NewHTTPSource(endpoint string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBody:  DefaultMaxBodyBytes,
		breaker:  gobreaker.NewCircuitBreaker(DefaultBreakerSettings()),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch performs one GET against the endpoint. It is not retried; an open
// breaker fails fast with gobreaker.ErrOpenState.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}

	return out.([]byte), nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu tree: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read menu response: %w", err)
	}

	if int64(len(body)) > s.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, s.maxBody, s.endpoint)
	}

	slog.Debug("menu fetched",
		"url", s.endpoint,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s from %s", ErrStatus, resp.Status, s.endpoint)
	}

	return Unwrap(body)
}
