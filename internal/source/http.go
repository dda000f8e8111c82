package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// ErrCircuitOpen is returned while the breaker rejects requests after
// repeated failures.
var ErrCircuitOpen = errors.New("table source circuit open")

// HTTP fetches CSV tables with a GET request.
type HTTP struct {
	httpClient *http.Client
	baseURL    string
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewHTTP creates an HTTP source. Relative paths passed to FetchTable are
// resolved against baseURL; absolute URLs are fetched as is.
func NewHTTP(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTP {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "table-source",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &HTTP{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		circuit: cb,
		logger:  logger,
	}
}

func (h *HTTP) FetchTable(ctx context.Context, path string) ([]map[string]string, error) {
	fullURL := h.resolve(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.LoadError{Path: fullURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	result, err := h.circuit.Execute(func() (interface{}, error) {
		return h.fetch(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.LoadError{Path: fullURL, Err: fmt.Errorf("%w: %v", ErrCircuitOpen, err)}
	}
	if err != nil {
		return nil, &domain.LoadError{Path: fullURL, Err: err}
	}

	rows, _ := result.([]map[string]string)
	h.logger.Debug("table fetched", "url", fullURL, "rows", len(rows), "duration", time.Since(start))
	return rows, nil
}

func (h *HTTP) fetch(req *http.Request) ([]map[string]string, error) {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return ReadTable(resp.Body)
}

func (h *HTTP) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if h.baseURL == "" {
		return path
	}
	return h.baseURL + "/" + strings.TrimLeft(path, "/")
}
