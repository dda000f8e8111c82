package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

func obs(station, state, date string, tavg, awnd, wsf5 float64) domain.Observation {
	o, _ := domain.ParseRow(1, map[string]string{
		"station": station,
		"state":   state,
		"date":    date,
	})
	o.TAvg = domain.Measured(tavg)
	o.AWnd = domain.Measured(awnd)
	o.WSF5 = domain.Measured(wsf5)
	return o
}

func TestComputeScales_SingleRow(t *testing.T) {
	filtered := []domain.Observation{obs("GUAM INTL AP", "GU", "20230115", 80, 5, 20)}

	s, ok := ComputeScales(filtered, domain.DefaultSelection(), DefaultCanvas, ScaleSqrt)

	require.True(t, ok)
	assert.InDelta(t, 75, s.X.Domain[0], 1e-9)
	assert.InDelta(t, 85, s.X.Domain[1], 1e-9)
	assert.InDelta(t, 0, s.Y.Domain[0], 1e-9)
	assert.InDelta(t, 10, s.Y.Domain[1], 1e-9)
	assert.Equal(t, [2]float64{0, 540}, s.X.Range)
	assert.Equal(t, [2]float64{420, 0}, s.Y.Range)
	assert.Equal(t, [2]float64{0, 20}, s.Size.Domain, "collapsed size domain widens to [0,max]")
}

func TestComputeScales_Empty(t *testing.T) {
	_, ok := ComputeScales(nil, domain.DefaultSelection(), DefaultCanvas, ScaleSqrt)
	assert.False(t, ok)
}

func TestComputeScales_PositiveWidth(t *testing.T) {
	cases := [][]domain.Observation{
		{obs("A", "GU", "20230101", 0, 0, 0)},
		{obs("A", "GU", "20230101", -40, -3, 0), obs("A", "GU", "20230102", -40, -3, 0)},
		{obs("A", "GU", "20230101", 10, 20, 5), obs("A", "GU", "20230102", 90, 2, 50)},
	}
	for _, filtered := range cases {
		s, ok := ComputeScales(filtered, domain.DefaultSelection(), DefaultCanvas, ScaleLinear)
		require.True(t, ok)
		assert.Greater(t, s.X.Width(), 0.0)
		assert.Greater(t, s.Y.Width(), 0.0)
		assert.Greater(t, s.Size.Width(), 0.0)
	}
}

func TestComputeScales_YFloorAtZero(t *testing.T) {
	filtered := []domain.Observation{
		obs("A", "GU", "20230101", 80, 12, 20),
		obs("A", "GU", "20230102", 81, 30, 25),
	}
	s, _ := ComputeScales(filtered, domain.DefaultSelection(), DefaultCanvas, ScaleSqrt)
	assert.Equal(t, 0.0, s.Y.Domain[0])
	assert.Equal(t, 35.0, s.Y.Domain[1])
}

func TestComputeScales_YBelowPaddingGoesNegative(t *testing.T) {
	filtered := []domain.Observation{
		obs("A", "GU", "20230101", 80, 2, 20),
		obs("A", "GU", "20230102", 81, 9, 25),
	}
	s, _ := ComputeScales(filtered, domain.DefaultSelection(), DefaultCanvas, ScaleSqrt)
	assert.Equal(t, -3.0, s.Y.Domain[0], "floor at zero only holds when the minimum is at least the padding")
	assert.Equal(t, 14.0, s.Y.Domain[1])
}

func TestScale_Map(t *testing.T) {
	lin := Scale{Kind: ScaleLinear, Domain: [2]float64{0, 10}, Range: [2]float64{0, 100}}
	assert.InDelta(t, 50, lin.Map(5), 1e-9)
	assert.InDelta(t, 150, lin.Map(15), 1e-9, "unclamped scales extrapolate")
	assert.InDelta(t, 5, lin.Invert(50), 1e-9)

	sqrt := Scale{Kind: ScaleSqrt, Domain: [2]float64{0, 100}, Range: [2]float64{3, 20}, Clamp: true}
	assert.InDelta(t, 3, sqrt.Map(0), 1e-9)
	assert.InDelta(t, 11.5, sqrt.Map(25), 1e-9)
	assert.InDelta(t, 20, sqrt.Map(400), 1e-9, "clamped to the range")
	assert.InDelta(t, 25, sqrt.Invert(11.5), 1e-9)

	flat := Scale{Kind: ScaleLinear, Domain: [2]float64{4, 4}, Range: [2]float64{0, 10}}
	assert.Equal(t, 5.0, flat.Map(4))
}

func TestParseScaleKind(t *testing.T) {
	k, err := ParseScaleKind("linear")
	require.NoError(t, err)
	assert.Equal(t, ScaleLinear, k)

	_, err = ParseScaleKind("log")
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	assert.Equal(t, 2.0, Transform{K: 10}.Clamped().K)
	assert.Equal(t, 0.5, Transform{K: 0.1}.Clamped().K)
	assert.Equal(t, 1.0, Transform{}.Clamped().K)

	s, _ := ComputeScales([]domain.Observation{obs("A", "GU", "20230115", 80, 5, 20)},
		domain.DefaultSelection(), DefaultCanvas, ScaleSqrt)

	zoomed := Transform{K: 2}.Rescale(s)
	assert.InDelta(t, 75, zoomed.X.Domain[0], 1e-9)
	assert.InDelta(t, 80, zoomed.X.Domain[1], 1e-9)
	assert.Equal(t, s.Size, zoomed.Size, "zoom leaves marker size alone")

	panned := Transform{K: 1, TX: 54}.Rescale(s)
	assert.InDelta(t, 74, panned.X.Domain[0], 1e-9)
}
