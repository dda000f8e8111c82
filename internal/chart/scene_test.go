package chart

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

var sceneEpoch = time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

func markerByKey(t *testing.T, snap Snapshot, key string) MarkerState {
	t.Helper()
	for _, m := range snap.Markers {
		if m.Key == key {
			return m
		}
	}
	require.Failf(t, "marker not found", "key %q", key)
	return MarkerState{}
}

func TestScene_EnterGrowsFromZero(t *testing.T) {
	clock := clockwork.NewFakeClockAt(sceneEpoch)
	scene := NewScene(clock)

	require.NoError(t, scene.Apply(context.Background(), Frame{
		Seq:      1,
		Duration: time.Second,
		Enter:    []Marker{{Key: "a", CX: 100, CY: 50, R: 10, Fill: "#6e40aa"}},
	}))

	m := markerByKey(t, scene.Snapshot(), "a")
	assert.Equal(t, 0.0, m.R)
	assert.Equal(t, 100.0, m.CX, "enters at its target position")

	clock.Advance(500 * time.Millisecond)
	assert.InDelta(t, 5, markerByKey(t, scene.Snapshot(), "a").R, 1e-9)

	clock.Advance(time.Second)
	m = markerByKey(t, scene.Snapshot(), "a")
	assert.Equal(t, 10.0, m.R)
	assert.Equal(t, m.Target, m.Attrs)
}

func TestScene_ExitShrinksThenRemoves(t *testing.T) {
	clock := clockwork.NewFakeClockAt(sceneEpoch)
	scene := NewScene(clock)
	ctx := context.Background()

	require.NoError(t, scene.Apply(ctx, Frame{Seq: 1, Duration: time.Second, Enter: []Marker{
		{Key: "a", CX: 1, CY: 1, R: 8},
		{Key: "b", CX: 2, CY: 2, R: 8},
	}}))
	clock.Advance(time.Second)

	before := markerByKey(t, scene.Snapshot(), "a").ID
	require.NoError(t, scene.Apply(ctx, Frame{
		Seq:      2,
		Duration: time.Second,
		Update:   []Marker{{Key: "a", CX: 1, CY: 1, R: 8}},
		Exit:     []string{"b"},
	}))

	snap := scene.Snapshot()
	require.Len(t, snap.Markers, 2)
	b := markerByKey(t, snap, "b")
	assert.True(t, b.Exiting)
	assert.Equal(t, 0.0, b.Target.R)
	assert.Equal(t, 1, scene.Len())

	clock.Advance(time.Second)
	snap = scene.Snapshot()
	require.Len(t, snap.Markers, 1)
	assert.Equal(t, before, snap.Markers[0].ID, "surviving marker keeps its identity")
}

func TestScene_RetargetMidTransition(t *testing.T) {
	clock := clockwork.NewFakeClockAt(sceneEpoch)
	scene := NewScene(clock)
	ctx := context.Background()

	require.NoError(t, scene.Apply(ctx, Frame{Seq: 1, Duration: time.Second, Enter: []Marker{{Key: "a", CX: 0, CY: 0, R: 10}}}))
	clock.Advance(500 * time.Millisecond)

	require.NoError(t, scene.Apply(ctx, Frame{Seq: 2, Duration: time.Second, Update: []Marker{{Key: "a", CX: 100, CY: 0, R: 10}}}))

	m := markerByKey(t, scene.Snapshot(), "a")
	assert.InDelta(t, 5, m.R, 1e-9, "update starts from the in-flight radius")
	assert.Equal(t, 0.0, m.CX)

	clock.Advance(time.Second)
	m = markerByKey(t, scene.Snapshot(), "a")
	assert.Equal(t, Attrs{CX: 100, R: 10}, m.Attrs)
}

func TestScene_Hover(t *testing.T) {
	scene := NewScene(clockwork.NewFakeClockAt(sceneEpoch))
	tip := domain.Tooltip{Title: "GUAM INTL AP", Lines: []string{"State: GU"}}
	require.NoError(t, scene.Apply(context.Background(), Frame{Seq: 1, Enter: []Marker{{Key: "a", R: 3, Tooltip: tip}}}))

	got, ok := scene.Hover("a")
	require.True(t, ok)
	assert.Equal(t, tip, got)
	assert.True(t, markerByKey(t, scene.Snapshot(), "a").Highlighted)

	assert.True(t, scene.Unhover("a"))
	assert.False(t, markerByKey(t, scene.Snapshot(), "a").Highlighted)

	_, ok = scene.Hover("missing")
	assert.False(t, ok)
	assert.False(t, scene.Unhover("missing"))
}
