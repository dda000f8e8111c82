package ui

import (
	"context"
	"fmt"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

var monthLabels = [...]string{"All", "JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// MonthSlider is a 13-stop slider: position 0 is All, 1-12 are the months.
type MonthSlider struct {
	*Dropdown
}

func NewMonthSlider(month int) *MonthSlider {
	opts := make([]string, 0, len(monthLabels))
	for m := range monthLabels {
		opts = append(opts, domain.FormatMonth(m))
	}
	return &MonthSlider{Dropdown: NewDropdown(domain.FieldMonth, opts, domain.FormatMonth(month))}
}

// Position returns the slider stop, 0 for All.
func (s *MonthSlider) Position() int {
	m, err := domain.ParseMonth(s.CurrentValue())
	if err != nil {
		return domain.AllMonths
	}
	return m
}

// SetPosition moves the slider to pos and notifies handlers.
func (s *MonthSlider) SetPosition(ctx context.Context, pos int) error {
	if pos < 0 || pos >= len(monthLabels) {
		return fmt.Errorf("%w: month position %d", ErrUnknownOption, pos)
	}
	return s.Set(ctx, domain.FormatMonth(pos))
}

// Label is the text shown at the current stop.
func (s *MonthSlider) Label() string {
	return monthLabels[s.Position()]
}
