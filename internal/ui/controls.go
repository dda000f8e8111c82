package ui

import (
	"context"
	"fmt"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// Controls is the full control panel for one chart.
type Controls struct {
	X       *Dropdown
	Y       *Dropdown
	Size    *Dropdown
	Station *Dropdown
	State   *Dropdown
	Month   *MonthSlider
}

// NewControls builds controls reflecting sel. Station and state choices come
// from ds; binding them to a controller keeps them in sync afterwards.
func NewControls(ds domain.Dataset, sel domain.Selection) *Controls {
	return &Controls{
		X:       NewVariableDropdown(domain.FieldX, sel.X),
		Y:       NewVariableDropdown(domain.FieldY, sel.Y),
		Size:    NewVariableDropdown(domain.FieldSize, sel.Size),
		Station: NewDropdown(domain.FieldStation, append([]string{domain.All}, ds.Stations()...), sel.Station),
		State:   NewDropdown(domain.FieldState, append([]string{domain.All}, ds.States(sel.Station)...), sel.State),
		Month:   NewMonthSlider(sel.Month),
	}
}

// Inputs lists the controls for chart.Controller.Bind.
func (c *Controls) Inputs() []chart.Input {
	return []chart.Input{c.X, c.Y, c.Size, c.Station, c.State, c.Month}
}

// Set routes value to the control for field.
func (c *Controls) Set(ctx context.Context, field domain.Field, value string) error {
	for _, in := range []*Dropdown{c.X, c.Y, c.Size, c.Station, c.State, c.Month.Dropdown} {
		if in.Field() == field {
			return in.Set(ctx, value)
		}
	}
	return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidSelection, field)
}

// State is a serializable view of every control.
type State struct {
	Field   domain.Field `json:"field"`
	Value   string       `json:"value"`
	Options []string     `json:"options"`
	Label   string       `json:"label,omitempty"`
}

// Snapshot returns each control's value and choices.
func (c *Controls) Snapshot() []State {
	out := make([]State, 0, 6)
	for _, d := range []*Dropdown{c.X, c.Y, c.Size, c.Station, c.State} {
		out = append(out, State{Field: d.Field(), Value: d.CurrentValue(), Options: d.Options()})
	}
	out = append(out, State{
		Field:   c.Month.Field(),
		Value:   c.Month.CurrentValue(),
		Options: c.Month.Options(),
		Label:   c.Month.Label(),
	})
	return out
}
