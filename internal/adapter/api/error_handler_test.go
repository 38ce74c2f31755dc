package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"skipped/pkg/logger"
	"skipped/pkg/response"
)

func newEcho(t *testing.T) *echo.Echo {
	logger.Replace(zaptest.NewLogger(t))
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewValidator()
	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	e := newEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	e := newEcho(t)
	e.GET("/thing", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/thing", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decode(t, rec).Error.Code)
}

func TestBodyTooLarge(t *testing.T) {
	e := newEcho(t)
	e.Use(middleware.BodyLimit("10B"))
	e.POST("/upload", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 100)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decode(t, rec).Error.Code)
}

func TestValidatorUsesJSONNames(t *testing.T) {
	type input struct {
		ListingID string  `json:"listing_id" validate:"required"`
		Amount    float64 `json:"amount" validate:"gt=0"`
	}

	e := newEcho(t)
	e.POST("/check", func(c echo.Context) error {
		var in input
		if err := c.Bind(&in); err != nil {
			return response.Error(c, err)
		}
		if err := c.Validate(&in); err != nil {
			return response.Error(c, err)
		}
		return response.Success(c, in)
	})

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"amount":0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	details := body.Error.Details.(map[string]interface{})
	assert.Equal(t, "listing_id is required", details["listing_id"])
	assert.Equal(t, "amount must be greater than 0", details["amount"])
}
