package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	cases := []struct {
		query    string
		page     int
		pageSize int
		offset   int
	}{
		{"", 1, 20, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=-1&limit=500", 1, 100, 0},
		{"?page=abc&limit=xyz", 1, 20, 0},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/listings"+tc.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())

		p := GetPaginationParams(c)
		assert.Equal(t, tc.page, p.Page, tc.query)
		assert.Equal(t, tc.pageSize, p.PageSize, tc.query)
		assert.Equal(t, tc.offset, p.Offset, tc.query)
	}
}
