package normalizer

import "github.com/99minutos/tracking-service/internal/core/domain"

// eventListPaths are the places an event history has been seen at, in
// lookup order.
var eventListPaths = [][]string{
	{"listEventInfoComp", "events"},
	{"events"},
	{"listEvents"},
}

var (
	dateAliases        = Aliases{"date", "eventDate", "deliveryDate"}
	timeAliases        = Aliases{"time", "eventTime", "deliveryTime"}
	codeAliases        = Aliases{"code", "eventCode", "statusCode"}
	labelAliases       = Aliases{"label", "eventLabel", "statusLabel", "message"}
	officeLabelAliases = Aliases{"officeLabel", "office", "officeName"}
)

// ExtractEvents locates the event history in payload and normalizes every
// entry. The source order is kept. nil means no history was found.
func ExtractEvents(payload Object) []domain.TrackingEvent {
	raw := findEventList(payload)
	if len(raw) == 0 {
		return nil
	}

	events := make([]domain.TrackingEvent, 0, len(raw))
	for _, item := range raw {
		events = append(events, normalizeEvent(item))
	}
	return events
}

func findEventList(payload Object) []any {
	for _, path := range eventListPaths {
		v, ok := lookupPath(payload, path)
		if !ok {
			continue
		}
		if list, ok := asSlice(v); ok {
			return list
		}
	}
	return nil
}

func lookupPath(obj Object, path []string) (any, bool) {
	var cur any = obj
	for _, key := range path {
		o, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = o[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalizeEvent resolves the canonical fields of one raw event and keeps
// every other source field as is. An entry that is not an object yields an
// empty event.
func normalizeEvent(item any) domain.TrackingEvent {
	src, _ := asObject(item)

	ev := domain.TrackingEvent{Extra: make(map[string]any, len(src))}
	for k, v := range src {
		if !domain.IsCanonicalEventField(k) {
			ev.Extra[k] = v
		}
	}

	ev.Date, _ = dateAliases.String(src)
	ev.Time, _ = timeAliases.String(src)
	ev.Code, _ = codeAliases.String(src)
	ev.Label, _ = labelAliases.String(src)
	ev.OfficeLabel, _ = officeLabelAliases.String(src)
	return ev
}
