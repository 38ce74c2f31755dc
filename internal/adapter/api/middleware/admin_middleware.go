package middleware

import (
	"github.com/labstack/echo/v4"

	"skipped/pkg/errors"
	"skipped/pkg/response"
)

// AdminOnly must run after Authenticate. The admin role comes from the token's role claim.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal := PrincipalFrom(c)
		if principal == nil {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if !principal.IsAdmin() {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}

		return next(c)
	}
}
