package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

// StatusUnknown is reported when no event carries a usable status.
const StatusUnknown = "unknown"

// Canonical event field names, in output order.
const (
	FieldDate        = "date"
	FieldTime        = "time"
	FieldCode        = "code"
	FieldLabel       = "label"
	FieldOfficeLabel = "officeLabel"
)

var canonicalEventFields = []string{FieldDate, FieldTime, FieldCode, FieldLabel, FieldOfficeLabel}

// IsCanonicalEventField reports whether name is one of the normalized event fields.
func IsCanonicalEventField(name string) bool {
	return slices.Contains(canonicalEventFields, name)
}

// TrackingEvent is one normalized entry of a parcel's history.
// An empty canonical field means the source carried no value for it.
type TrackingEvent struct {
	Date        string
	Time        string
	Code        string
	Label       string
	OfficeLabel string

	// Extra holds the source fields that are not canonical names, verbatim.
	Extra map[string]any
}

// Field looks a source name up on the normalized event. Canonical names
// resolve to the normalized values, anything else to the pass-through bag.
func (e TrackingEvent) Field(name string) (any, bool) {
	var v string
	switch name {
	case FieldDate:
		v = e.Date
	case FieldTime:
		v = e.Time
	case FieldCode:
		v = e.Code
	case FieldLabel:
		v = e.Label
	case FieldOfficeLabel:
		v = e.OfficeLabel
	default:
		raw, ok := e.Extra[name]
		return raw, ok
	}
	return v, v != ""
}

// MarshalJSON writes the set canonical fields first, then the pass-through
// fields in lexical key order.
func (e TrackingEvent) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(key string, value any) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		n++
		return nil
	}

	for _, name := range canonicalEventFields {
		if v, ok := e.Field(name); ok {
			if err := write(name, v); err != nil {
				return nil, err
			}
		}
	}

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		if !IsCanonicalEventField(k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := write(k, e.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TrackingResult is the canonical answer to a tracking lookup. Field order
// is the serialized order; unset optionals are left out entirely.
type TrackingResult struct {
	Status          string          `json:"status"`
	StatusCode      string          `json:"statusCode,omitzero"`
	StatusMessage   string          `json:"statusMessage,omitzero"`
	Date            string          `json:"date,omitzero"`
	Name            string          `json:"name,omitzero"`
	DeliveryDetails map[string]any  `json:"deliveryDetails,omitzero"`
	Events          []TrackingEvent `json:"events,omitzero"`
}
