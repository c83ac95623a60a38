package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"feed-proxy/internal/domain"
)

// fetchErrorBody is the JSON body returned when the feed cannot be served.
type fetchErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
// Every origin or extraction failure becomes a 500 carrying the failure's message.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fetchErrorBody{
			Error:   "Failed to fetch RSS feed",
			Details: err.Error(),
		})
	}
}
