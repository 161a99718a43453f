package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/clbanning/mxj/v2"
)

const (
	envelopeNamespace   = "http://schemas.xmlsoap.org/soap/envelope/"
	envelope12Namespace = "http://www.w3.org/2003/05/soap-envelope"

	// mxj defaults: attributes are prefixed with a hyphen, mixed text is
	// stored under #text.
	attrPrefix = "-"
	textKey    = "#text"
)

var (
	errNoBody      = errors.New("soap: response has no Body")
	errNotEnvelope = errors.New("soap: response is not a SOAP envelope")
)

// FaultError is a SOAP fault returned by the remote service.
type FaultError struct {
	Code    string
	Message string
}

func (e *FaultError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("soap fault %s: %s", e.Code, e.Message)
	}
	return "soap fault: " + e.Message
}

// encodeRequest builds a document/literal wrapped request for operation op.
// Arguments become unqualified child elements, in key order.
func encodeRequest(namespace, op string, args map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<soapenv:Envelope xmlns:soapenv="%s" xmlns:tns="%s"><soapenv:Body><tns:%s>`,
		envelopeNamespace, escape(namespace), op)

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(&buf, "<%s>", k)
		if err := xml.EscapeText(&buf, []byte(fmt.Sprint(args[k]))); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "</%s>", k)
	}

	fmt.Fprintf(&buf, "</tns:%s></soapenv:Body></soapenv:Envelope>", op)
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// decodeResponse returns the content of the first element inside the SOAP
// Body as a map. An empty Body yields nil. A Fault yields a *FaultError.
func decodeResponse(r io.Reader, lists map[string]struct{}) (any, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(doc); err != nil {
		return nil, err
	}

	m, err := mxj.NewMapXml(doc)
	if err != nil {
		return nil, err
	}
	envelope, _ := m["Envelope"].(map[string]any)
	body, found := envelope["Body"]
	if !found {
		return nil, errNoBody
	}
	content, ok := body.(map[string]any)
	if !ok {
		return nil, nil
	}

	if fault, ok := content["Fault"]; ok {
		obj, _ := clean(fault, lists).(map[string]any)
		return nil, faultFrom(obj)
	}

	names := make([]string, 0, len(content))
	for name := range content {
		if !isAttr(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	slices.Sort(names)

	// The operation wrapper is always an object, even when it came back empty.
	obj, ok := clean(content[names[0]], lists).(map[string]any)
	if !ok {
		obj = map[string]any{}
	}
	return obj, nil
}

// checkEnvelope verifies that the document root is a SOAP 1.1 or 1.2
// Envelope.
func checkEnvelope(doc []byte) error {
	d := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", errNotEnvelope, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "Envelope" ||
			(start.Name.Space != envelopeNamespace && start.Name.Space != envelope12Namespace) {
			return errNotEnvelope
		}
		return nil
	}
}

// faultFrom reads SOAP 1.1 (faultcode/faultstring) and SOAP 1.2
// (Code/Reason) faults.
func faultFrom(obj map[string]any) *FaultError {
	f := &FaultError{}
	if s, ok := obj["faultcode"].(string); ok {
		f.Code = s
	}
	if s, ok := obj["faultstring"].(string); ok {
		f.Message = s
	}
	if reason, ok := obj["Reason"].(map[string]any); ok && f.Message == "" {
		f.Message, _ = reason["Text"].(string)
	}
	if code, ok := obj["Code"].(map[string]any); ok && f.Code == "" {
		f.Code, _ = code["Value"].(string)
	}
	if f.Message == "" {
		f.Message = "unknown fault"
	}
	return f
}

// clean reshapes an mxj value into the loose JSON-like form the normalizer
// reads: attributes are dropped, xsi:nil elements become nil, a text node
// next to attributes becomes the value itself, and schema list elements are
// always slices.
func clean(v any, lists map[string]struct{}) any {
	switch t := v.(type) {
	case map[string]any:
		if isNil(t) {
			return nil
		}
		out := make(map[string]any, len(t))
		text, hasText := t[textKey]
		for k, child := range t {
			if isAttr(k) || k == textKey {
				continue
			}
			child = clean(child, lists)
			if _, isList := lists[k]; isList {
				if _, ok := child.([]any); !ok {
					child = []any{child}
				}
			}
			out[k] = child
		}
		if len(out) == 0 {
			if hasText {
				return text
			}
			return ""
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = clean(item, lists)
		}
		return out
	}
	return v
}

func isAttr(key string) bool {
	return strings.HasPrefix(key, attrPrefix)
}

func isNil(attrs map[string]any) bool {
	v, _ := attrs[attrPrefix+"nil"].(string)
	return v == "true" || v == "1"
}
