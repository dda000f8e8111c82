// Package session manages per-viewer chart sessions: each one owns a
// controller, its retained scene and its controls.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
	"github.com/couchcryptid/station-bubble-chart/internal/ui"
)

// ErrNotReady is returned while the dataset has not been loaded.
var ErrNotReady = errors.New("dataset not loaded")

// ErrNotFound is returned for unknown or evicted session ids.
var ErrNotFound = errors.New("session not found")

// Session is one viewer's chart.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *chart.Controller
	Scene      *chart.Scene
	Controls   *ui.Controls
}

// Publisher fans a session's frames out beyond the process.
type Publisher interface {
	ForSession(id string) chart.Renderer
}

// Factory creates sessions over the shared dataset.
type Factory struct {
	dataset   atomic.Pointer[domain.Dataset]
	defaults  domain.Selection
	opts      chart.Options
	clock     clockwork.Clock
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFactory creates a factory. publisher may be nil.
func NewFactory(defaults domain.Selection, opts chart.Options, clock clockwork.Clock, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Factory {
	return &Factory{
		defaults:  defaults,
		opts:      opts,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// SetDataset publishes ds to new sessions.
func (f *Factory) SetDataset(ds domain.Dataset) {
	f.dataset.Store(&ds)
}

// Dataset returns the loaded dataset, if any.
func (f *Factory) Dataset() (domain.Dataset, bool) {
	ds := f.dataset.Load()
	if ds == nil {
		return domain.Dataset{}, false
	}
	return *ds, true
}

// CheckReadiness reports ready once a dataset has been loaded.
func (f *Factory) CheckReadiness(_ context.Context) error {
	if f.dataset.Load() == nil {
		return ErrNotReady
	}
	return nil
}

// New creates a session, binds its controls and renders the initial frame.
func (f *Factory) New(ctx context.Context) (*Session, chart.Frame, error) {
	ds, ok := f.Dataset()
	if !ok {
		return nil, chart.Frame{}, ErrNotReady
	}

	id := uuid.NewString()
	scene := chart.NewScene(f.clock)
	renderer := chart.MultiRenderer{scene}
	if f.publisher != nil {
		renderer = append(renderer, f.publisher.ForSession(id))
	}

	s := &Session{
		ID:         id,
		CreatedAt:  f.clock.Now(),
		Scene:      scene,
		Controls:   ui.NewControls(ds, f.defaults),
		Controller: chart.NewController(ds, f.defaults, renderer, f.opts, f.logger.With("session_id", id), f.metrics),
	}
	s.Controller.Bind(s.Controls.Inputs()...)

	frame, err := s.Controller.Render(ctx)
	if err != nil {
		return nil, frame, err
	}
	return s, frame, nil
}

// Manager ties a Factory to a Registry and keeps the session gauge current.
type Manager struct {
	*Factory
	registry *Registry
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewManager creates a manager holding at most maxSessions sessions.
func NewManager(factory *Factory, maxSessions int, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	m := &Manager{Factory: factory, metrics: metrics, logger: logger}
	m.registry = NewRegistry(maxSessions, func(s *Session) {
		metrics.SessionsEvicted.Inc()
		logger.Info("session evicted", "session_id", s.ID)
	})
	return m
}

// Create builds and registers a new session.
func (m *Manager) Create(ctx context.Context) (*Session, chart.Frame, error) {
	s, frame, err := m.New(ctx)
	if err != nil {
		return nil, frame, err
	}
	m.registry.Put(s)
	m.metrics.ActiveSessions.Set(float64(m.registry.Len()))
	m.logger.Info("session created", "session_id", s.ID, "markers", len(frame.Enter))
	return s, frame, nil
}

// Get looks up a session.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.registry.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete drops a session.
func (m *Manager) Delete(id string) error {
	if !m.registry.Delete(id) {
		return ErrNotFound
	}
	m.metrics.ActiveSessions.Set(float64(m.registry.Len()))
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return m.registry.Len() }
