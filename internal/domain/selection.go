package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// All disables the station or state filter.
const All = "All"

// AllMonths disables the month filter.
const AllMonths = 0

// Selection is the user-chosen view of the dataset.
type Selection struct {
	X       Variable `json:"x"`
	Y       Variable `json:"y"`
	Size    Variable `json:"size"`
	Station string   `json:"station"`
	State   string   `json:"state"`
	Month   int      `json:"month"` // 1-12, or AllMonths
}

// DefaultSelection is the view shown before any input changes.
func DefaultSelection() Selection {
	return Selection{
		X:       TAvg,
		Y:       AWnd,
		Size:    WSF5,
		Station: "GUAM INTL AP",
		State:   "GU",
		Month:   1,
	}
}

// Validate checks that every variable is known and the month is in range.
func (s Selection) Validate() error {
	for _, v := range []Variable{s.X, s.Y, s.Size} {
		if !v.Valid() {
			return fmt.Errorf("%w: unknown variable %q", ErrInvalidSelection, v)
		}
	}
	if s.Month < AllMonths || s.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidSelection, s.Month)
	}
	return nil
}

// SelectionChange is a partial update; nil fields are left unchanged.
type SelectionChange struct {
	X       *Variable
	Y       *Variable
	Size    *Variable
	Station *string
	State   *string
	Month   *int
}

// Merge applies c on top of s and validates the result.
func (s Selection) Merge(c SelectionChange) (Selection, error) {
	next := s
	if c.X != nil {
		next.X = *c.X
	}
	if c.Y != nil {
		next.Y = *c.Y
	}
	if c.Size != nil {
		next.Size = *c.Size
	}
	if c.Station != nil {
		next.Station = *c.Station
	}
	if c.State != nil {
		next.State = *c.State
	}
	if c.Month != nil {
		next.Month = *c.Month
	}
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// Field identifies which part of a Selection an input controls.
type Field string

const (
	FieldX       Field = "x"
	FieldY       Field = "y"
	FieldSize    Field = "size"
	FieldStation Field = "station"
	FieldState   Field = "state"
	FieldMonth   Field = "month"
)

// ChangeFor converts a raw input value for field into a SelectionChange.
// Months accept "All" or 1-12.
func ChangeFor(field Field, value string) (SelectionChange, error) {
	switch field {
	case FieldX, FieldY, FieldSize:
		v, err := ParseVariable(value)
		if err != nil {
			return SelectionChange{}, err
		}
		switch field {
		case FieldX:
			return SelectionChange{X: &v}, nil
		case FieldY:
			return SelectionChange{Y: &v}, nil
		default:
			return SelectionChange{Size: &v}, nil
		}
	case FieldStation:
		return SelectionChange{Station: &value}, nil
	case FieldState:
		return SelectionChange{State: &value}, nil
	case FieldMonth:
		m, err := ParseMonth(value)
		if err != nil {
			return SelectionChange{}, err
		}
		return SelectionChange{Month: &m}, nil
	default:
		return SelectionChange{}, fmt.Errorf("%w: unknown field %q", ErrInvalidSelection, field)
	}
}

// ParseMonth accepts "All" (any case) or a month number 1-12.
func ParseMonth(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, All) {
		return AllMonths, nil
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return 0, fmt.Errorf("%w: month %q", ErrInvalidSelection, s)
	}
	return m, nil
}

// FormatMonth is the inverse of ParseMonth.
func FormatMonth(m int) string {
	if m == AllMonths {
		return All
	}
	return strconv.Itoa(m)
}
