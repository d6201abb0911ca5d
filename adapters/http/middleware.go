package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vasifvortex/azercell-project3/utils/log"
)

// RequestContext copies the request id assigned by middleware.RequestID into
// the request context so every log line of the request carries it.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id == "" {
			id = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(log.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}

// ConcurrencyLimit rejects requests beyond max in flight. Streams hold a slot
// for their whole lifetime.
func ConcurrencyLimit(max int) echo.MiddlewareFunc {
	semaphore := make(chan struct{}, max)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
				return next(c)
			default:
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
			}
		}
	}
}
