package normalizer

import (
	"strings"

	"github.com/99minutos/tracking-service/internal/core/domain"
)

const deliveredCode = "D"

var (
	deliveryDateAliases = Aliases{"eventDate", "date", "deliveryDate"}
	infoNameAliases     = Aliases{"name"}
	infoValueAliases    = Aliases{"value"}
)

// recipientNameHints are matched against the lowercased infoComp name.
var recipientNameHints = []string{"réceptionnaire", "nom", "name"}

// Delivery holds what the delivery event says about the hand-over.
type Delivery struct {
	Date string
	Name string
}

// ExtractDelivery reads the delivery date and recipient name off the first
// event whose code is D, in any letter case.
func ExtractDelivery(events []domain.TrackingEvent) Delivery {
	for _, ev := range events {
		code, ok := eventCodeAliases.String(ev)
		if !ok || !strings.EqualFold(code, deliveredCode) {
			continue
		}

		var d Delivery
		d.Date, _ = deliveryDateAliases.String(ev)
		d.Name = recipientName(ev)
		return d
	}
	return Delivery{}
}

// recipientName prefers an infoComp entry whose name looks like a recipient
// name, then falls back to the first entry carrying a value.
func recipientName(ev domain.TrackingEvent) string {
	v, _ := ev.Field("infoCompList")
	comps, ok := asSlice(v)
	if !ok || len(comps) == 0 {
		return ""
	}

	for _, c := range comps {
		comp, _ := asObject(c)
		value, ok := infoValueAliases.String(comp)
		if !ok {
			continue
		}
		name, _ := infoNameAliases.String(comp)
		if looksLikeRecipient(name) {
			return value
		}
	}

	for _, c := range comps {
		comp, _ := asObject(c)
		if value, ok := infoValueAliases.String(comp); ok {
			return value
		}
	}
	return ""
}

func looksLikeRecipient(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range recipientNameHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}
