package handler

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/domain/entity"
	"skipped/internal/infrastructure/token"
	"skipped/pkg/errors"
	"skipped/pkg/response"
)

type DevTokenHandler struct {
	issuer *token.JWTService
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(issuer *token.JWTService) *DevTokenHandler {
	return &DevTokenHandler{
		issuer: issuer,
	}
}

func SetupDevTokenHandler(issuer *token.JWTService) {
	devTokenHandler = NewDevTokenHandler(issuer)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

type devTokenRequest struct {
	UID   string `json:"uid" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"omitempty,oneof=user admin"`
}

// IssueToken - Development only. Mints a bearer token for any uid and role.
func (h *DevTokenHandler) IssueToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if req.Role == "" {
		req.Role = entity.UserRoleUser
	}

	principal := &entity.Principal{UID: req.UID, Email: req.Email, Role: req.Role}
	signed, err := h.issuer.Issue(principal)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to issue token", err))
	}

	return response.Success(c, map[string]interface{}{
		"token": signed,
		"user":  principal,
	})
}
