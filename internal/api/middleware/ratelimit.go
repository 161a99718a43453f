package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-service/internal/api/metrics"
	"github.com/99minutos/tracking-service/internal/core/domain"
)

// Limiter decides whether one more request from clientID is allowed.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

// RateLimit rejects callers over their budget with domain.ErrRateLimited.
// Callers are keyed by token subject, falling back to the client IP. When the
// limiter itself fails the request is let through.
func RateLimit(l Limiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := Subject(c)
			if client == "" {
				client = c.RealIP()
			}

			ok, err := l.Allow(c.Request().Context(), client)
			if err != nil {
				log.Warn().Err(err).Str("client", client).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.Inc()
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}
