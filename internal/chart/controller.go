package chart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
)

// Options configures a Controller.
type Options struct {
	Canvas   Canvas
	SizeKind ScaleKind
	Duration time.Duration
	// PreferredState is selected after a station change when the new
	// station reports it; otherwise the state resets to All.
	PreferredState string
}

// DefaultOptions returns the stock canvas, sqrt sizing, a one second
// transition and "GU" as the preferred state.
func DefaultOptions() Options {
	return Options{
		Canvas:         DefaultCanvas,
		SizeKind:       ScaleSqrt,
		Duration:       DefaultDuration,
		PreferredState: "GU",
	}
}

// Input is a selection control bound to one field of the selection.
type Input interface {
	Field() domain.Field
	OnChange(handler func(ctx context.Context, value string) error)
	CurrentValue() string
}

// OptionsSetter is implemented by inputs whose choices depend on the rest of
// the selection. The controller calls it without triggering change handlers.
type OptionsSetter interface {
	SetOptions(options []string, value string)
}

// ValueSetter is implemented by inputs that display the selected value. The
// controller keeps them in step with the selection after every change.
type ValueSetter interface {
	SetValue(value string)
}

// Controller owns the current selection and drives the filter, scale,
// reconcile and render cycle. It is safe for concurrent use; cycles are
// serialized.
type Controller struct {
	mu        sync.Mutex
	dataset   domain.Dataset
	sel       domain.Selection
	scales    Scales
	hasScales bool
	zoom      Transform
	keys      []string
	seq       uint64
	last      Frame
	inputs    []Input

	renderer Renderer
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewController creates a controller over ds. Nothing is rendered until
// Render or a selection change.
func NewController(ds domain.Dataset, sel domain.Selection, renderer Renderer, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if opts.Canvas == (Canvas{}) {
		opts.Canvas = DefaultCanvas
	}
	if opts.SizeKind == "" {
		opts.SizeKind = ScaleSqrt
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if renderer == nil {
		renderer = MultiRenderer{}
	}
	return &Controller{
		dataset:  ds,
		sel:      sel,
		zoom:     Identity,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load replaces the dataset with the table at path. On failure the current
// dataset is kept and the error is returned.
func (c *Controller) Load(ctx context.Context, src TableSource, path string) error {
	ds, err := Load(ctx, src, path, c.logger, c.metrics)
	if err != nil {
		c.logger.Error("dataset load failed", "path", path, "error", err)
		return err
	}
	c.SetDataset(ds)
	return nil
}

// SetDataset swaps in ds. Rendered keys are kept so the next render
// reconciles against what is already on screen.
func (c *Controller) SetDataset(ds domain.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataset = ds
	c.syncInputs()
}

// Dataset returns the loaded dataset.
func (c *Controller) Dataset() domain.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataset
}

// Selection returns the current selection.
func (c *Controller) Selection() domain.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Scales returns the scales of the last non-empty render, before zoom. The
// boolean is false until something has been rendered.
func (c *Controller) Scales() (Scales, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scales, c.hasScales
}

// Zoomed returns the current transform.
func (c *Controller) Zoomed() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Filter returns the observations matching the current selection.
func (c *Controller) Filter() []domain.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Filter(c.dataset, c.sel)
}

// Keys returns the currently rendered keys in render order.
func (c *Controller) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keys...)
}

// LastFrame returns the most recent frame.
func (c *Controller) LastFrame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Render runs one cycle for the current selection.
func (c *Controller) Render(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render(ctx)
}

// OnSelectionChange merges change into the selection and re-renders. An
// invalid change leaves the selection untouched. Changing the station resets
// the state unless the same change sets it.
func (c *Controller) OnSelectionChange(ctx context.Context, change domain.SelectionChange) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.sel.Merge(change)
	if err != nil {
		return Frame{}, err
	}
	if change.Station != nil && change.State == nil {
		next.State = c.defaultState(next.Station)
	}
	c.sel = next
	c.zoom = Identity
	c.metrics.SelectionChanges.Inc()
	c.logger.Debug("selection changed",
		"x", next.X, "y", next.Y, "size", next.Size,
		"station", next.Station, "state", next.State, "month", next.Month,
	)

	c.syncInputs()
	return c.render(ctx)
}

// Zoom applies t (with K clamped) to the X and Y axes and re-renders every
// marker. The transform is dropped on the next selection change.
func (c *Controller) Zoom(ctx context.Context, t Transform) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = t.Clamped()
	return c.render(ctx)
}

// Bind wires inputs to the controller: each change is parsed for the input's
// field and applied with OnSelectionChange.
func (c *Controller) Bind(inputs ...Input) {
	for _, in := range inputs {
		field := in.Field()
		in.OnChange(func(ctx context.Context, value string) error {
			change, err := domain.ChangeFor(field, value)
			if err != nil {
				return err
			}
			_, err = c.OnSelectionChange(ctx, change)
			return err
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, inputs...)
	c.syncInputs()
}

func (c *Controller) render(ctx context.Context) (Frame, error) {
	start := time.Now()

	filtered := domain.Filter(c.dataset, c.sel)
	if s, ok := ComputeScales(filtered, c.sel, c.opts.Canvas, c.opts.SizeKind); ok {
		c.scales, c.hasScales = s, true
	}

	diff := Reconcile(c.keys, filtered)
	c.seq++
	f := Frame{
		Seq:      c.seq,
		Duration: c.opts.Duration,
		Exit:     diff.Exited,
	}

	if c.hasScales {
		view := c.scales
		if c.zoom != Identity {
			view = c.zoom.Rescale(c.scales)
		}
		f.XAxis = Axis{Label: c.sel.X.String(), Scale: view.X}
		f.YAxis = Axis{Label: c.sel.Y.String(), Scale: view.Y}
		for _, o := range diff.Entered {
			f.Enter = append(f.Enter, markerFor(o, c.sel, view))
		}
		for _, o := range diff.Updated {
			f.Update = append(f.Update, markerFor(o, c.sel, view))
		}
	}

	c.keys = diff.Keys
	c.last = f

	c.metrics.Markers.WithLabelValues("enter").Add(float64(len(f.Enter)))
	c.metrics.Markers.WithLabelValues("update").Add(float64(len(f.Update)))
	c.metrics.Markers.WithLabelValues("exit").Add(float64(len(f.Exit)))

	err := c.renderer.Apply(ctx, f)
	c.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RenderErrors.Inc()
		c.logger.Error("render failed", "seq", f.Seq, "error", err)
		return f, fmt.Errorf("apply frame %d: %w", f.Seq, err)
	}
	c.metrics.Renders.Inc()

	if len(filtered) == 0 {
		c.logger.Info("selection matched no observations",
			"station", c.sel.Station, "state", c.sel.State, "month", c.sel.Month)
	}
	c.logger.Debug("frame rendered",
		"seq", f.Seq, "enter", len(f.Enter), "update", len(f.Update), "exit", len(f.Exit))
	return f, nil
}

func (c *Controller) defaultState(station string) string {
	if c.opts.PreferredState != "" && c.dataset.HasState(station, c.opts.PreferredState) {
		return c.opts.PreferredState
	}
	return domain.All
}

// syncInputs pushes the selection back into the bound inputs and refreshes
// station and state choices. Must be called with c.mu held.
func (c *Controller) syncInputs() {
	for _, in := range c.inputs {
		field := in.Field()
		if vs, ok := in.(ValueSetter); ok {
			vs.SetValue(valueOf(c.sel, field))
		}
		setter, ok := in.(OptionsSetter)
		if !ok {
			continue
		}
		switch field {
		case domain.FieldState:
			states := c.dataset.States(c.sel.Station)
			setter.SetOptions(append([]string{domain.All}, states...), c.sel.State)
		case domain.FieldStation:
			setter.SetOptions(append([]string{domain.All}, c.dataset.Stations()...), c.sel.Station)
		}
	}
}

func valueOf(sel domain.Selection, field domain.Field) string {
	switch field {
	case domain.FieldX:
		return sel.X.String()
	case domain.FieldY:
		return sel.Y.String()
	case domain.FieldSize:
		return sel.Size.String()
	case domain.FieldStation:
		return sel.Station
	case domain.FieldState:
		return sel.State
	case domain.FieldMonth:
		return domain.FormatMonth(sel.Month)
	default:
		return ""
	}
}
