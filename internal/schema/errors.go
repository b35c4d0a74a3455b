package schema

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned when the table is written after it was frozen.
var ErrFrozen = errors.New("schema table is frozen")

// ConflictError reports one type name registered with two different shapes.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schema conflict: type %q registered with different shapes", e.Name)
}

// InvalidTypeError reports a type descriptor that cannot be synthesized.
type InvalidTypeError struct {
	Type   string
	Field  string
	Reason string
}

func (e *InvalidTypeError) Error() string {
	switch {
	case e.Type == "":
		return "invalid type: " + e.Reason
	case e.Field == "":
		return fmt.Sprintf("invalid type %q: %s", e.Type, e.Reason)
	default:
		return fmt.Sprintf("invalid type %q, field %q: %s", e.Type, e.Field, e.Reason)
	}
}
