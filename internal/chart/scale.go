package chart

import (
	"fmt"
	"math"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// ScaleKind selects the interpolation of a Scale.
type ScaleKind string

const (
	ScaleLinear ScaleKind = "linear"
	ScaleSqrt   ScaleKind = "sqrt"
)

// ParseScaleKind validates a scale kind name.
func ParseScaleKind(s string) (ScaleKind, error) {
	switch ScaleKind(s) {
	case ScaleLinear, ScaleSqrt:
		return ScaleKind(s), nil
	default:
		return "", fmt.Errorf("unknown scale kind %q", s)
	}
}

// Scale maps a numeric domain onto a pixel range.
type Scale struct {
	Kind   ScaleKind  `json:"kind"`
	Domain [2]float64 `json:"domain"`
	Range  [2]float64 `json:"range"`
	Clamp  bool       `json:"clamp,omitempty"`
}

// Map converts a domain value to the range. A zero-width domain maps every
// value to the middle of the range.
func (s Scale) Map(v float64) float64 {
	d0, d1 := s.transform(s.Domain[0]), s.transform(s.Domain[1])
	r0, r1 := s.Range[0], s.Range[1]
	if d0 == d1 {
		return (r0 + r1) / 2
	}
	t := (s.transform(v) - d0) / (d1 - d0)
	if s.Clamp {
		t = math.Max(0, math.Min(1, t))
	}
	return r0 + t*(r1-r0)
}

// Invert converts a range value back to the domain.
func (s Scale) Invert(px float64) float64 {
	d0, d1 := s.transform(s.Domain[0]), s.transform(s.Domain[1])
	r0, r1 := s.Range[0], s.Range[1]
	if r0 == r1 {
		return s.untransform((d0 + d1) / 2)
	}
	t := (px - r0) / (r1 - r0)
	if s.Clamp {
		t = math.Max(0, math.Min(1, t))
	}
	return s.untransform(d0 + t*(d1-d0))
}

// transform applies the kind's exponent, keeping the sign so negative domains
// still order correctly under a square root.
func (s Scale) transform(v float64) float64 {
	if s.Kind != ScaleSqrt {
		return v
	}
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}

func (s Scale) untransform(v float64) float64 {
	if s.Kind != ScaleSqrt {
		return v
	}
	if v < 0 {
		return -v * v
	}
	return v * v
}

// Width returns the signed domain width.
func (s Scale) Width() float64 { return s.Domain[1] - s.Domain[0] }

// Scales positions and sizes markers for one selection.
type Scales struct {
	X    Scale `json:"x"`
	Y    Scale `json:"y"`
	Size Scale `json:"size"`
}

// Canvas is the plot area in pixels, excluding margins.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultCanvas matches a 700x600 view with 100/60/80/100 margins.
var DefaultCanvas = Canvas{Width: 540, Height: 420}

const (
	// domainPadding widens the X domain on both sides and the Y domain on top.
	domainPadding = 5.0

	minRadius = 3.0
	maxRadius = 20.0
)

// ComputeScales derives the scales for filtered under sel. It returns false
// when filtered is empty, in which case callers keep their previous scales.
func ComputeScales(filtered []domain.Observation, sel domain.Selection, canvas Canvas, sizeKind ScaleKind) (Scales, bool) {
	if len(filtered) == 0 {
		return Scales{}, false
	}

	xMin, xMax := extent(filtered, sel.X)
	yMin, yMax := extent(filtered, sel.Y)
	sMin, sMax := extent(filtered, sel.Size)

	if sMin == sMax {
		sMin = 0
		if sMax <= 0 {
			sMax = 1
		}
	}
	if sizeKind == "" {
		sizeKind = ScaleSqrt
	}

	return Scales{
		X: Scale{
			Kind:   ScaleLinear,
			Domain: [2]float64{xMin - domainPadding, xMax + domainPadding},
			Range:  [2]float64{0, canvas.Width},
		},
		Y: Scale{
			Kind:   ScaleLinear,
			Domain: [2]float64{math.Min(0, yMin-domainPadding), yMax + domainPadding},
			Range:  [2]float64{canvas.Height, 0},
		},
		Size: Scale{
			Kind:   sizeKind,
			Domain: [2]float64{sMin, sMax},
			Range:  [2]float64{minRadius, maxRadius},
			Clamp:  true,
		},
	}, true
}

func extent(obs []domain.Observation, v domain.Variable) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, o := range obs {
		x := o.Value(v)
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// Transform is a pan/zoom: screen = k*point + (tx, ty).
type Transform struct {
	K  float64 `json:"k"`
	TX float64 `json:"tx"`
	TY float64 `json:"ty"`
}

// Identity leaves scales unchanged.
var Identity = Transform{K: 1}

const (
	minZoom = 0.5
	maxZoom = 2.0
)

// Clamped limits K to the supported zoom extent.
func (t Transform) Clamped() Transform {
	if t.K == 0 {
		t.K = 1
	}
	t.K = math.Max(minZoom, math.Min(maxZoom, t.K))
	return t
}

// Rescale returns X and Y scales whose domains show what t reveals of s.
func (t Transform) Rescale(s Scales) Scales {
	out := s
	out.X.Domain = [2]float64{
		s.X.Invert((s.X.Range[0] - t.TX) / t.K),
		s.X.Invert((s.X.Range[1] - t.TX) / t.K),
	}
	out.Y.Domain = [2]float64{
		s.Y.Invert((s.Y.Range[0] - t.TY) / t.K),
		s.Y.Invert((s.Y.Range[1] - t.TY) / t.K),
	}
	return out
}
