// Package ui models the chart's selection controls: dropdowns for the
// variables, station and state, and a month slider. Controls hold their own
// value and notify change handlers; they render nothing themselves.
package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// ErrUnknownOption is returned when a control is set to a value it does not offer.
var ErrUnknownOption = errors.New("unknown option")

// Dropdown is a single-choice control bound to one selection field.
type Dropdown struct {
	mu       sync.Mutex
	field    domain.Field
	options  []string
	value    string
	handlers []func(ctx context.Context, value string) error
}

// NewDropdown creates a dropdown. An empty options list accepts any value.
func NewDropdown(field domain.Field, options []string, value string) *Dropdown {
	return &Dropdown{
		field:   field,
		options: append([]string(nil), options...),
		value:   value,
	}
}

// NewVariableDropdown offers every plottable variable.
func NewVariableDropdown(field domain.Field, value domain.Variable) *Dropdown {
	opts := make([]string, 0, len(domain.Variables))
	for _, v := range domain.Variables {
		opts = append(opts, v.String())
	}
	return NewDropdown(field, opts, value.String())
}

func (d *Dropdown) Field() domain.Field { return d.field }

func (d *Dropdown) CurrentValue() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Options returns the current choices.
func (d *Dropdown) Options() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.options...)
}

func (d *Dropdown) OnChange(handler func(ctx context.Context, value string) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// SetOptions replaces the choices and current value without notifying handlers.
func (d *Dropdown) SetOptions(options []string, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.options = append([]string(nil), options...)
	d.value = value
}

// SetValue changes the displayed value without notifying handlers.
func (d *Dropdown) SetValue(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = value
}

// Set changes the value and notifies handlers in registration order. If a
// handler rejects the value as an invalid selection, the previous value is
// restored.
func (d *Dropdown) Set(ctx context.Context, value string) error {
	d.mu.Lock()
	if len(d.options) > 0 && !slices.Contains(d.options, value) {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s %q", ErrUnknownOption, d.field, value)
	}
	prev := d.value
	d.value = value
	handlers := slices.Clone(d.handlers)
	d.mu.Unlock()

	// Handlers may call back into SetOptions, so they run unlocked.
	for _, h := range handlers {
		if err := h(ctx, value); err != nil {
			if errors.Is(err, domain.ErrInvalidSelection) {
				d.mu.Lock()
				d.value = prev
				d.mu.Unlock()
			}
			return err
		}
	}
	return nil
}
