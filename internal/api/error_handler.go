package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-service/internal/core/domain"
)

const lookupFailedMessage = "Erreur lors de la récupération du statut"

// errorResponse is the error envelope for all API errors. Message carries the
// underlying cause of a failed lookup.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders them as {"error": ..., "message": ...}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var missing *domain.MissingParameterError
	if errors.As(err, &missing) {
		return http.StatusBadRequest, errorResponse{Error: missing.Error()}
	}

	// Echo's own errors (bind failures, 404 from router, auth, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrTransport),
		errors.Is(err, domain.ErrMethodNotFound),
		errors.Is(err, domain.ErrEmptyResponse):
		return http.StatusInternalServerError, errorResponse{Error: lookupFailedMessage, Message: err.Error()}
	}

	// Unexpected error: log the real cause, keep it out of the response.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: lookupFailedMessage}
}
