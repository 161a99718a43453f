package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/tracking-service/internal/api/metrics"
	"github.com/99minutos/tracking-service/internal/core/domain"
	"github.com/99minutos/tracking-service/internal/core/normalizer"
	"github.com/99minutos/tracking-service/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// LookupRecorder takes lookup audit records off the request path.
type LookupRecorder interface {
	Record(rec domain.LookupRecord)
}

type TrackingService struct {
	clients  ports.ClientFactory
	recorder LookupRecorder
	timeout  time.Duration
	log      zerolog.Logger
}

// NewTrackingService returns a TrackingService. recorder may be nil, in
// which case lookups are not audited. A non-positive timeout falls back to
// 10 seconds.
func NewTrackingService(clients ports.ClientFactory, recorder LookupRecorder, timeout time.Duration, log zerolog.Logger) *TrackingService {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TrackingService{
		clients:  clients,
		recorder: recorder,
		timeout:  timeout,
		log:      log,
	}
}

// Track performs one remote lookup and normalizes its response.
func (s *TrackingService) Track(ctx context.Context, skybillNumber string) (*domain.TrackingResult, error) {
	start := time.Now()
	rec := domain.LookupRecord{
		ID:            uuid.NewString(),
		SkybillNumber: skybillNumber,
		RequestedAt:   start.UTC(),
	}

	result, err := s.track(ctx, skybillNumber, &rec)
	rec.Duration = time.Since(start)
	s.finish(rec, result, err)

	return result, err
}

func (s *TrackingService) track(ctx context.Context, skybillNumber string, rec *domain.LookupRecord) (*domain.TrackingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := s.clients.Connect(ctx)
	if err != nil {
		return nil, &domain.TransportError{Op: "create client", Err: err}
	}

	ops := client.Operations()
	method, err := ResolveMethod(ops)
	if err != nil {
		return nil, err
	}
	rec.Method = method

	callStart := time.Now()
	raw, err := ops[method](ctx, map[string]any{"skybillNumber": skybillNumber})
	metrics.RemoteCallDuration.WithLabelValues(method).Observe(time.Since(callStart).Seconds())
	if err != nil {
		return nil, &domain.TransportError{Op: "call " + method, Err: err}
	}
	if isEmptyResponse(raw) {
		return nil, domain.ErrEmptyResponse
	}

	return normalizer.Normalize(raw), nil
}

func (s *TrackingService) finish(rec domain.LookupRecord, result *domain.TrackingResult, err error) {
	if err != nil {
		rec.Outcome = domain.LookupFailed
		rec.Error = err.Error()
		metrics.LookupsTotal.WithLabelValues(string(rec.Outcome), failureReason(err)).Inc()
		s.log.Error().Err(err).
			Str("skybill_number", rec.SkybillNumber).
			Str("method", rec.Method).
			Dur("duration", rec.Duration).
			Msg("tracking lookup failed")
	} else {
		rec.Outcome = domain.LookupOK
		rec.Status = result.Status
		rec.StatusCode = result.StatusCode
		rec.EventCount = len(result.Events)
		metrics.LookupsTotal.WithLabelValues(string(rec.Outcome), "").Inc()
		metrics.StatusesTotal.WithLabelValues(result.Status).Inc()
		s.log.Info().
			Str("skybill_number", rec.SkybillNumber).
			Str("method", rec.Method).
			Str("status", result.Status).
			Int("events", rec.EventCount).
			Dur("duration", rec.Duration).
			Msg("tracking lookup completed")
	}

	if s.recorder != nil {
		s.recorder.Record(rec)
	}
}

// isEmptyResponse reports a call that succeeded without returning data.
func isEmptyResponse(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMethodNotFound):
		return "method_not_found"
	case errors.Is(err, domain.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
