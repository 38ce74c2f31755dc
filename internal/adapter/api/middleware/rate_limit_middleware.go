package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"skipped/pkg/errors"
	"skipped/pkg/logger"
	"skipped/pkg/response"
)

// Limiter decides whether the caller identified by key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// KeyFunc picks the identity a limit applies to.
type KeyFunc func(c echo.Context) string

func ByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// ByUser limits authenticated callers per account and falls back to IP.
func ByUser(c echo.Context) string {
	if uid := UIDFrom(c); uid != "" {
		return "user:" + uid
	}
	return ByIP(c)
}

// RateLimit rejects with 429 once limiter says no. Limiter backend errors fail open.
func RateLimit(name string, limiter Limiter, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := name + ":" + key(c)

			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), k)
			if err != nil {
				logger.Warn("Rate limiter %s unavailable: %v", name, err)
				return next(c)
			}

			if !allowed {
				logger.Warn("RATE LIMIT: %s blocked %s (retry in %v)", name, k, retryAfter)
				if retryAfter > 0 {
					c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
				}
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}
