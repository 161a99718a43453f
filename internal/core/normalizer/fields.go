// Package normalizer turns the vendor-shaped responses of the tracking
// service into a domain.TrackingResult.
//
// Field names and nesting vary across WSDL versions, so every lookup goes
// through an ordered list of aliases and a missing or oddly shaped field
// degrades the result instead of failing it. Normalize is pure: it performs
// no I/O and keeps no state between calls.
package normalizer

import (
	"encoding/json"
	"strconv"
)

// Fields is anything a value can be looked up in by source field name.
type Fields interface {
	Field(name string) (any, bool)
}

// Object is a decoded JSON-like object as handed over by the transport.
type Object map[string]any

func (o Object) Field(name string) (any, bool) {
	v, ok := o[name]
	return v, ok
}

// Aliases lists, in priority order, the source names one logical field may
// appear under. The first present one wins; nil and "" count as absent.
type Aliases []string

// Resolve returns the value of the first present alias.
func (a Aliases) Resolve(f Fields) (any, bool) {
	for _, name := range a {
		if v, ok := f.Field(name); ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

// String is Resolve restricted to scalar values, returned in string form.
// A present but non-scalar alias is skipped.
func (a Aliases) String(f Fields) (string, bool) {
	for _, name := range a {
		v, ok := f.Field(name)
		if !ok || !present(v) {
			continue
		}
		if s, ok := stringify(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func asObject(v any) (Object, bool) {
	switch t := v.(type) {
	case Object:
		return t, t != nil
	case map[string]any:
		return Object(t), t != nil
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case []Object:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}
