// Package render draws static images of a chart scene with go-chart.
package render

import (
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options sizes the image. Zero values fall back to 700x600.
type Options struct {
	Width  int
	Height int
	Title  string
}

var outline = drawing.ColorFromHex("333333")

// Snapshot writes snap as an image. Marker positions are converted back to
// data coordinates through the snapshot's axes, so the image matches what a
// viewer sees at the same instant, including markers that are mid-transition.
func Snapshot(w io.Writer, snap chart.Snapshot, format Format, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = 700
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}

	xr := axisRange(snap.XAxis)
	yr := axisRange(snap.YAxis)

	var (
		xs, ys, radii []float64
		fills         []drawing.Color
		hx, hy, hr    []float64
	)
	for _, m := range snap.Markers {
		if m.R <= 0 {
			continue
		}
		x, y := snap.XAxis.Scale.Invert(m.CX), snap.YAxis.Scale.Invert(m.CY)
		xs, ys = append(xs, x), append(ys, y)
		radii = append(radii, m.R)
		fills = append(fills, hexColor(m.Fill))
		if m.Highlighted {
			hx, hy, hr = append(hx, x), append(hy, y), append(hr, m.R+2)
		}
	}

	// go-chart needs at least two points per series to compute its ranges;
	// invisible corner anchors keep empty scenes renderable.
	anchors := gochart.ContinuousSeries{
		Name:    "anchors",
		XValues: []float64{xr.Min, xr.Max},
		YValues: []float64{yr.Min, yr.Max},
		Style: gochart.Style{
			StrokeWidth: gochart.Disabled,
			DotWidth:    0,
			DotColor:    drawing.ColorTransparent,
		},
	}
	series := []gochart.Series{anchors}

	if len(hx) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name:    "highlight",
			XValues: hx,
			YValues: hy,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotColor:    outline,
				DotWidthProvider: func(_, _ gochart.Range, index int, _, _ float64) float64 {
					return hr[index]
				},
			},
		})
	}
	if len(xs) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name:    "markers",
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidthProvider: func(_, _ gochart.Range, index int, _, _ float64) float64 {
					return radii[index]
				},
				DotColorProvider: func(_, _ gochart.Range, index int, _, _ float64) drawing.Color {
					return fills[index].WithAlpha(204)
				},
			},
		})
	}

	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      gochart.XAxis{Name: snap.XAxis.Label, Range: xr},
		YAxis:      gochart.YAxis{Name: snap.YAxis.Label, Range: yr},
		Series:     series,
	}

	var err error
	switch format {
	case PNG:
		err = ch.Render(gochart.PNG, w)
	case SVG:
		err = ch.Render(gochart.SVG, w)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

func axisRange(a chart.Axis) *gochart.ContinuousRange {
	lo, hi := a.Scale.Domain[0], a.Scale.Domain[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		lo, hi = 0, 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func hexColor(fill string) drawing.Color {
	fill = strings.TrimPrefix(fill, "#")
	if fill == "" {
		return drawing.ColorFromHex("6e40aa")
	}
	return drawing.ColorFromHex(fill)
}
