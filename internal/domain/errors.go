package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSelection is wrapped by every selection validation failure.
var ErrInvalidSelection = errors.New("invalid selection")

// LoadError reports a data source that could not be fetched or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FieldCoercionWarning records a cell that was not a number. The reading is
// treated as missing; warnings are counted and logged, never shown to users.
type FieldCoercionWarning struct {
	Line   int
	Column string
	Raw    string
}

func (w FieldCoercionWarning) String() string {
	return fmt.Sprintf("line %d: column %s: %q is not a number", w.Line, w.Column, w.Raw)
}
