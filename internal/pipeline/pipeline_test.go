package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
	"github.com/couchcryptid/station-bubble-chart/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

// flakySource fails the first `failures` fetches.
type flakySource struct {
	failures int
	calls    atomic.Int64
}

func (s *flakySource) FetchTable(_ context.Context, _ string) ([]map[string]string, error) {
	if int(s.calls.Add(1)) <= s.failures {
		return nil, errors.New("connection refused")
	}
	return []map[string]string{
		{"station": "GUAM INTL AP", "state": "GU", "date": "20230115", "TAVG": "80", "AWND": "5", "WSF5": "20"},
		{"station": "GUAM INTL AP", "state": "GU", "date": "20230116", "TAVG": "x", "AWND": "6", "WSF5": "22"},
	}, nil
}

type recordingSink struct {
	mu  sync.Mutex
	got []domain.Dataset
}

func (s *recordingSink) SetDataset(ds domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ds)
}

func (s *recordingSink) datasets() []domain.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Dataset(nil), s.got...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	src := &flakySource{}
	sink := &recordingSink{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(src, "stations.csv", sink, clockwork.NewFakeClock(), discardLogger(), metrics)

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sink.datasets(), 1)
	assert.Equal(t, 2, sink.datasets()[0].Len())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Loads.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CoercionWarnings), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DatasetRows), 0)
}

func TestPipeline_Run_RetriesWithBackoff(t *testing.T) {
	src := &flakySource{failures: 2}
	sink := &recordingSink{}
	clock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(src, "stations.csv", sink, clock, discardLogger(), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// First failure sleeps 200ms, the second 400ms.
	for _, wait := range []time.Duration{200 * time.Millisecond, 400 * time.Millisecond} {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		err := p.CheckReadiness(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		clock.Advance(wait)
	}

	require.NoError(t, <-done)
	assert.Equal(t, int64(3), src.calls.Load())
	assert.Len(t, sink.datasets(), 1)
	assert.NoError(t, p.CheckReadiness(ctx))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Loads.WithLabelValues("error")), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	src := &flakySource{failures: 1000}
	sink := &recordingSink{}
	clock := clockwork.NewFakeClock()
	p := pipeline.New(src, "stations.csv", sink, clock, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cancel()

	require.NoError(t, <-done)
	assert.Empty(t, sink.datasets())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_BackoffCaps(t *testing.T) {
	src := &flakySource{failures: 10}
	clock := clockwork.NewFakeClock()
	p := pipeline.New(src, "stations.csv", &recordingSink{}, clock, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// 200ms doubling reaches the 30s cap on the ninth retry; advancing by the
	// cap always wakes the sleeper.
	for range 10 {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(30 * time.Second)
	}
	require.NoError(t, <-done)
	assert.Equal(t, int64(11), src.calls.Load())
}
