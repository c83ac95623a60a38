package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"feed-proxy/utils/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID extracts or generates a request id, stores it in the request
// context for logging and echoes it back in the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), requestID)))
			c.Response().Header().Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}
