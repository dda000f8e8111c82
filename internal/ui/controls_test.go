package ui

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const guam = "GUAM INTL AP"

func testDataset(t *testing.T) domain.Dataset {
	t.Helper()
	ds, warnings := domain.NewDataset([]map[string]string{
		{"station": guam, "state": "GU", "date": "20230115", "TAVG": "80", "AWND": "5", "WSF5": "20"},
		{"station": guam, "state": "GU", "date": "20230620", "TAVG": "84", "AWND": "7", "WSF5": "25"},
		{"station": "HONOLULU", "state": "HI", "date": "20230115", "TAVG": "75", "AWND": "9", "WSF5": "30"},
	})
	require.Empty(t, warnings)
	return ds
}

func TestDropdown_Set(t *testing.T) {
	d := NewDropdown(domain.FieldState, []string{"All", "GU"}, "All")

	var got []string
	d.OnChange(func(_ context.Context, v string) error {
		got = append(got, v)
		return nil
	})

	require.NoError(t, d.Set(context.Background(), "GU"))
	assert.Equal(t, "GU", d.CurrentValue())
	assert.Equal(t, []string{"GU"}, got)

	err := d.Set(context.Background(), "HI")
	require.ErrorIs(t, err, ErrUnknownOption)
	assert.Equal(t, "GU", d.CurrentValue())
}

func TestDropdown_RevertsOnInvalidSelection(t *testing.T) {
	d := NewDropdown(domain.FieldMonth, nil, "1")
	d.OnChange(func(context.Context, string) error { return domain.ErrInvalidSelection })

	require.ErrorIs(t, d.Set(context.Background(), "13"), domain.ErrInvalidSelection)
	assert.Equal(t, "1", d.CurrentValue())
}

func TestMonthSlider(t *testing.T) {
	s := NewMonthSlider(1)
	assert.Equal(t, 1, s.Position())
	assert.Equal(t, "JAN", s.Label())
	assert.Len(t, s.Options(), 13)

	require.NoError(t, s.SetPosition(context.Background(), 0))
	assert.Equal(t, "All", s.CurrentValue())
	assert.Equal(t, "All", s.Label())

	require.NoError(t, s.SetPosition(context.Background(), 12))
	assert.Equal(t, "DEC", s.Label())

	assert.ErrorIs(t, s.SetPosition(context.Background(), 13), ErrUnknownOption)
}

func TestControls_DriveController(t *testing.T) {
	ds := testDataset(t)
	sel := domain.DefaultSelection()
	controls := NewControls(ds, sel)

	var frames []chart.Frame
	renderer := chart.RendererFunc(func(_ context.Context, f chart.Frame) error {
		frames = append(frames, f)
		return nil
	})
	c := chart.NewController(ds, sel, renderer, chart.DefaultOptions(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	c.Bind(controls.Inputs()...)
	ctx := context.Background()

	_, err := c.Render(ctx)
	require.NoError(t, err)
	require.Len(t, frames[0].Enter, 1)

	require.NoError(t, controls.Month.SetPosition(ctx, 0))
	assert.Len(t, frames[1].Enter, 1)
	assert.Len(t, frames[1].Update, 1)

	require.NoError(t, controls.Set(ctx, domain.FieldStation, "HONOLULU"))
	assert.Equal(t, "HONOLULU", c.Selection().Station)
	assert.Equal(t, domain.All, controls.State.CurrentValue())
	assert.Equal(t, []string{domain.All, "HI"}, controls.State.Options())

	require.NoError(t, controls.Set(ctx, domain.FieldX, "WSF5"))
	assert.Equal(t, domain.WSF5, c.Selection().X)

	assert.ErrorIs(t, controls.Set(ctx, domain.FieldX, "NOPE"), ErrUnknownOption)
	assert.ErrorIs(t, controls.Set(ctx, "colour", "red"), domain.ErrInvalidSelection)
}

func TestControls_Snapshot(t *testing.T) {
	controls := NewControls(testDataset(t), domain.DefaultSelection())

	snap := controls.Snapshot()
	require.Len(t, snap, 6)
	assert.Equal(t, domain.FieldX, snap[0].Field)
	assert.Equal(t, "TAVG", snap[0].Value)
	assert.Equal(t, []string{domain.All, guam, "HONOLULU"}, snap[3].Options)
	assert.Equal(t, "JAN", snap[5].Label)
}
