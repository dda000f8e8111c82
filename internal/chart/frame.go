package chart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// DefaultDuration is the transition time shared by enter, update and exit.
const DefaultDuration = 1000 * time.Millisecond

// Marker is the target state of one bubble.
type Marker struct {
	Key     string         `json:"key"`
	CX      float64        `json:"cx"`
	CY      float64        `json:"cy"`
	R       float64        `json:"r"`
	Fill    string         `json:"fill"`
	Tooltip domain.Tooltip `json:"tooltip"`
}

// Axis describes one chart axis after a render.
type Axis struct {
	Label string `json:"label"`
	Scale Scale  `json:"scale"`
}

// Frame is one declarative render: which keys enter, update and exit, all
// animated over the same Duration.
type Frame struct {
	Seq      uint64        `json:"seq"`
	Duration time.Duration `json:"duration"`
	XAxis    Axis          `json:"x_axis"`
	YAxis    Axis          `json:"y_axis"`
	Enter    []Marker      `json:"enter"`
	Update   []Marker      `json:"update"`
	Exit     []string      `json:"exit"`
}

// Empty reports whether the frame changes no markers.
func (f Frame) Empty() bool {
	return len(f.Enter) == 0 && len(f.Update) == 0 && len(f.Exit) == 0
}

// Renderer is a rendering backend that applies frames.
type Renderer interface {
	Apply(ctx context.Context, f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, f Frame) error

func (fn RendererFunc) Apply(ctx context.Context, f Frame) error { return fn(ctx, f) }

// MultiRenderer fans a frame out to every backend and joins their errors.
type MultiRenderer []Renderer

func (m MultiRenderer) Apply(ctx context.Context, f Frame) error {
	var errs []error
	for i, r := range m {
		if r == nil {
			continue
		}
		if err := r.Apply(ctx, f); err != nil {
			errs = append(errs, fmt.Errorf("renderer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// markerFor positions o under s.
func markerFor(o domain.Observation, sel domain.Selection, s Scales) Marker {
	return Marker{
		Key:     o.Key(),
		CX:      s.X.Map(o.Value(sel.X)),
		CY:      s.Y.Map(o.Value(sel.Y)),
		R:       s.Size.Map(o.Value(sel.Size)),
		Fill:    elevationColor(o.Elevation.Float()),
		Tooltip: domain.TooltipFor(o),
	}
}

// elevationColor ramps from violet at sea level to green at 3000m.
func elevationColor(meters float64) string {
	t := math.Max(0, math.Min(1, meters/3000))
	lerp := func(a, b float64) uint8 { return uint8(math.Round(a + t*(b-a))) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0x6e, 0xaf), lerp(0x40, 0xf0), lerp(0xaa, 0x5b))
}
