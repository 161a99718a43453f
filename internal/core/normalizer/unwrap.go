package normalizer

// envelopeKeys are the wrappers some WSDL versions box the payload in.
var envelopeKeys = []string{"return", "trackingResponse", "result", "returnValue"}

// Unwrap peels the envelope off a raw response and returns the tracking
// payload. The first envelope key present is taken even when its value is
// null; without one the response itself is the payload. A list payload is
// replaced by its first element. ok is false when what remains is not an
// object.
func Unwrap(raw any) (payload Object, ok bool) {
	data := raw
	if obj, isObj := asObject(raw); isObj {
		for _, key := range envelopeKeys {
			if v, found := obj[key]; found {
				data = v
				break
			}
		}
	}

	if list, isList := asSlice(data); isList && len(list) > 0 {
		data = list[0]
	}

	return asObject(data)
}
