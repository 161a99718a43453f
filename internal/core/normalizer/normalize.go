package normalizer

import (
	"maps"

	"github.com/99minutos/tracking-service/internal/core/domain"
)

// Normalize derives the canonical tracking result from a raw response. It
// never fails: a response it cannot make sense of yields status "unknown".
func Normalize(raw any) *domain.TrackingResult {
	payload, ok := Unwrap(raw)
	if !ok {
		return &domain.TrackingResult{Status: domain.StatusUnknown}
	}

	events := ExtractEvents(payload)
	return assemble(payload, events, ClassifyStatus(events), ExtractDelivery(events))
}

// assemble starts from an empty result and sets each optional field only
// when a value was found for it.
func assemble(payload Object, events []domain.TrackingEvent, st Status, dl Delivery) *domain.TrackingResult {
	res := &domain.TrackingResult{Status: st.Status}
	if st.Code != "" {
		res.StatusCode = st.Code
	}
	if st.Message != "" {
		res.StatusMessage = st.Message
	}
	if dl.Date != "" {
		res.Date = dl.Date
	}
	if dl.Name != "" {
		res.Name = dl.Name
	}
	res.DeliveryDetails = maps.Clone(map[string]any(payload))
	if len(events) > 0 {
		res.Events = events
	}
	return res
}
