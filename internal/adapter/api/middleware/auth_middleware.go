package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/response"
)

const (
	ContextUID       = "uid"
	ContextPrincipal = "principal"
)

type AuthMiddleware struct {
	verifier service.TokenVerifier
}

func NewAuthMiddleware(verifier service.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		return m.authenticateToken(c, parts[1], next)
	}
}

// AuthenticateQuery reads the token from ?token=, for clients such as
// browsers opening a websocket that cannot set headers.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return response.Error(c, errors.Unauthorized("token query parameter is required", nil))
		}
		return m.authenticateToken(c, token, next)
	}
}

func (m *AuthMiddleware) authenticateToken(c echo.Context, token string, next echo.HandlerFunc) error {
	principal, err := m.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	c.Set(ContextUID, principal.UID)
	c.Set(ContextPrincipal, principal)
	return next(c)
}

// PrincipalFrom returns the authenticated caller, or nil on public routes.
func PrincipalFrom(c echo.Context) *entity.Principal {
	p, _ := c.Get(ContextPrincipal).(*entity.Principal)
	return p
}

// UIDFrom returns the caller's id, or "" when unauthenticated.
func UIDFrom(c echo.Context) string {
	uid, _ := c.Get(ContextUID).(string)
	return uid
}
