// Package validation defines the collected-violation error returned by
// domain services. A multi-field save reports every violated field at
// once instead of failing on the first.
package validation

import "strings"

// Error carries the full list of field violations for one call.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return strings.Join(e.Violations, "; ")
}

// NewError returns nil when there are no violations, so callers can
// write `return validation.NewError(violations)` directly.
func NewError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &Error{Violations: violations}
}
