package normalizer

import "github.com/99minutos/tracking-service/internal/core/domain"

const unknownStatusLabel = "Statut inconnu"

// statusLabels maps Chronopost event codes to their French labels.
var statusLabels = map[string]string{
	"0":  "En attente",
	"1":  "En transit",
	"2":  "Livré",
	"3":  "En attente de retrait",
	"4":  "Retourné",
	"5":  "Annoncé",
	"6":  "En cours de livraison",
	"7":  "Livré",
	"8":  "Non livré",
	"9":  "En attente",
	"D":  "Livré",
	"ND": "Non livré",
	"R":  "Retourné",
	"T":  "En transit",
}

// StatusLabel returns the label for code. The lookup is case-sensitive.
func StatusLabel(code string) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return unknownStatusLabel
}

var (
	eventCodeAliases  = Aliases{"code", "eventCode"}
	eventLabelAliases = Aliases{"eventLabel", "label", "statusLabel"}
)

// Status is the current state of a parcel, derived from its latest event.
type Status struct {
	Status  string
	Code    string
	Message string
}

// ClassifyStatus derives the current status from the most recent event,
// which is the last one: events are kept in source order.
func ClassifyStatus(events []domain.TrackingEvent) Status {
	st := Status{Status: domain.StatusUnknown}
	if len(events) == 0 {
		return st
	}

	last := events[len(events)-1]
	code, hasCode := eventCodeAliases.String(last)
	if hasCode {
		st.Code = code
	}

	if label, ok := eventLabelAliases.String(last); ok {
		st.Status, st.Message = label, label
	} else if hasCode {
		label := StatusLabel(code)
		st.Status, st.Message = label, label
	}
	return st
}
