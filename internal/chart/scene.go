package chart

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// Attrs are the animated attributes of a marker.
type Attrs struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

func lerpAttrs(a, b Attrs, t float64) Attrs {
	return Attrs{
		CX: a.CX + (b.CX-a.CX)*t,
		CY: a.CY + (b.CY-a.CY)*t,
		R:  a.R + (b.R-a.R)*t,
	}
}

// cubicInOut matches the default easing of browser chart transitions.
func cubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 0.5*u*u*u + 1
}

type node struct {
	id          uint64
	key         string
	fill        string
	tooltip     domain.Tooltip
	from, to    Attrs
	start       time.Time
	dur         time.Duration
	highlighted bool
}

func (n *node) at(now time.Time) Attrs {
	if n.dur <= 0 {
		return n.to
	}
	t := float64(now.Sub(n.start)) / float64(n.dur)
	if t >= 1 {
		return n.to
	}
	if t <= 0 {
		return n.from
	}
	return lerpAttrs(n.from, n.to, cubicInOut(t))
}

func (n *node) done(now time.Time) bool {
	return !now.Before(n.start.Add(n.dur))
}

// retarget starts a transition from wherever the node is now.
func (n *node) retarget(now time.Time, to Attrs, dur time.Duration) {
	n.from = n.at(now)
	n.to = to
	n.start = now
	n.dur = dur
}

// MarkerState is a marker as it appears at a point in time.
type MarkerState struct {
	ID          uint64         `json:"id"`
	Key         string         `json:"key"`
	Attrs                      // current, possibly mid-transition
	Target      Attrs          `json:"target"`
	Fill        string         `json:"fill"`
	Tooltip     domain.Tooltip `json:"tooltip"`
	Highlighted bool           `json:"highlighted"`
	Exiting     bool           `json:"exiting"`
}

// Snapshot is the scene at one instant.
type Snapshot struct {
	Seq     uint64        `json:"seq"`
	XAxis   Axis          `json:"x_axis"`
	YAxis   Axis          `json:"y_axis"`
	Markers []MarkerState `json:"markers"`
}

// Scene is an in-memory retained scene: it applies frames as keyed,
// time-based transitions. A frame arriving mid-transition retargets markers
// from their current attributes.
type Scene struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	nextID  uint64
	seq     uint64
	xAxis   Axis
	yAxis   Axis
	live    []*node
	byKey   map[string]*node
	exiting []*node
}

// NewScene returns an empty scene driven by clock.
func NewScene(clock clockwork.Clock) *Scene {
	return &Scene{
		clock: clock,
		byKey: make(map[string]*node),
	}
}

// Apply implements Renderer.
func (s *Scene) Apply(_ context.Context, f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.prune(now)
	s.seq = f.Seq
	if f.XAxis.Label != "" {
		s.xAxis, s.yAxis = f.XAxis, f.YAxis
	}

	if len(f.Exit) > 0 {
		gone := make(map[string]bool, len(f.Exit))
		for _, k := range f.Exit {
			n, ok := s.byKey[k]
			if !ok {
				continue
			}
			gone[k] = true
			delete(s.byKey, k)
			to := n.at(now)
			to.R = 0
			n.retarget(now, to, f.Duration)
			n.highlighted = false
			s.exiting = append(s.exiting, n)
		}
		kept := s.live[:0]
		for _, n := range s.live {
			if !gone[n.key] {
				kept = append(kept, n)
			}
		}
		s.live = kept
	}

	for _, m := range f.Update {
		n, ok := s.byKey[m.Key]
		if !ok {
			s.enter(now, m, f.Duration)
			continue
		}
		n.retarget(now, Attrs{CX: m.CX, CY: m.CY, R: m.R}, f.Duration)
		n.fill = m.Fill
		n.tooltip = m.Tooltip
	}

	for _, m := range f.Enter {
		if n, ok := s.byKey[m.Key]; ok {
			n.retarget(now, Attrs{CX: m.CX, CY: m.CY, R: m.R}, f.Duration)
			n.fill = m.Fill
			n.tooltip = m.Tooltip
			continue
		}
		s.enter(now, m, f.Duration)
	}
	return nil
}

func (s *Scene) enter(now time.Time, m Marker, dur time.Duration) {
	s.nextID++
	n := &node{
		id:      s.nextID,
		key:     m.Key,
		fill:    m.Fill,
		tooltip: m.Tooltip,
		from:    Attrs{CX: m.CX, CY: m.CY},
		to:      Attrs{CX: m.CX, CY: m.CY, R: m.R},
		start:   now,
		dur:     dur,
	}
	s.live = append(s.live, n)
	s.byKey[m.Key] = n
}

func (s *Scene) prune(now time.Time) {
	kept := s.exiting[:0]
	for _, n := range s.exiting {
		if !n.done(now) {
			kept = append(kept, n)
		}
	}
	for i := len(kept); i < len(s.exiting); i++ {
		s.exiting[i] = nil
	}
	s.exiting = kept
}

// Snapshot returns every marker, live ones first in render order followed by
// those still exiting.
func (s *Scene) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.prune(now)

	snap := Snapshot{
		Seq:     s.seq,
		XAxis:   s.xAxis,
		YAxis:   s.yAxis,
		Markers: make([]MarkerState, 0, len(s.live)+len(s.exiting)),
	}
	for _, n := range s.live {
		snap.Markers = append(snap.Markers, n.state(now, false))
	}
	for _, n := range s.exiting {
		snap.Markers = append(snap.Markers, n.state(now, true))
	}
	return snap
}

func (n *node) state(now time.Time, exiting bool) MarkerState {
	return MarkerState{
		ID:          n.id,
		Key:         n.key,
		Attrs:       n.at(now),
		Target:      n.to,
		Fill:        n.fill,
		Tooltip:     n.tooltip,
		Highlighted: n.highlighted,
		Exiting:     exiting,
	}
}

// Len returns the number of live (non-exiting) markers.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Hover highlights the live marker for key and returns its tooltip.
func (s *Scene) Hover(key string) (domain.Tooltip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byKey[key]
	if !ok {
		return domain.Tooltip{}, false
	}
	n.highlighted = true
	return n.tooltip, true
}

// Unhover clears the highlight on key. It reports whether the marker exists.
func (s *Scene) Unhover(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byKey[key]
	if !ok {
		return false
	}
	n.highlighted = false
	return true
}
