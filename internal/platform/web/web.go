// Package web holds the error shape shared by every HTTP handler.
// Failures render as {"errors": ["..."]}, a list of plain-language
// strings, regardless of which domain produced them.
package web

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/carebridge/referral/internal/platform/validation"
)

// ErrorList renders the public failure shape.
func ErrorList(c echo.Context, status int, msgs ...string) error {
	return c.JSON(status, map[string][]string{"errors": msgs})
}

// WriteError renders err at the given status. A validation.Error keeps
// one list entry per violated field instead of collapsing into a
// single joined string.
func WriteError(c echo.Context, status int, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return ErrorList(c, status, verr.Violations...)
	}
	return ErrorList(c, status, err.Error())
}
