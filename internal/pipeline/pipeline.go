// Package pipeline loads the dataset into the session factory, retrying a
// failing source with exponential backoff until it succeeds.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Sink receives the dataset once it has been loaded.
type Sink interface {
	SetDataset(ds domain.Dataset)
}

// Pipeline runs the fetch-parse-publish cycle for one table.
type Pipeline struct {
	source  chart.TableSource
	path    string
	sink    Sink
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	loaded  bool
	lastErr error
}

// New creates a Pipeline that reads path from source into sink.
func New(source chart.TableSource, path string, sink Sink, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		path:    path,
		sink:    sink,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the dataset has been loaded. Before that it
// reports the last load failure, if any.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}
	if p.lastErr != nil {
		return fmt.Errorf("dataset not loaded: %w", p.lastErr)
	}
	return errors.New("dataset not loaded yet")
}

// Run loads the dataset, retrying until it succeeds or ctx is cancelled.
// It returns nil on success and on cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("dataset load started", "path", p.path)

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		ds, err := chart.Load(ctx, p.source, p.path, p.logger, p.metrics)
		if err == nil {
			p.sink.SetDataset(ds)
			p.setResult(true, nil)
			return nil
		}
		if ctx.Err() != nil {
			p.logger.Info("dataset load stopping", "reason", ctx.Err())
			return nil
		}

		p.setResult(false, err)
		p.logger.Error("dataset load failed", "attempt", attempt, "retry_in", backoff, "error", err)
		if !sleepWithContext(ctx, p.clock, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) setResult(loaded bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = loaded
	p.lastErr = err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
