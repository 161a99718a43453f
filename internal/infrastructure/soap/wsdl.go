// Package soap is the transport to the Chronopost tracking web service.
//
// The WSDL contract is discovered at runtime: the operations the service
// exposes differ between deployments, so the client publishes whatever the
// contract declares and lets the caller pick. Responses are decoded into
// plain maps, slices and strings, the same loosely typed shape a JSON
// decoder would produce.
package soap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	maxDocumentSize = 10 << 20
	maxImportDepth  = 4
)

// knownListElements are always decoded as lists, even when the schema does
// not say so or is missing.
var knownListElements = []string{"events", "listEvents", "infoCompList"}

// OperationInfo describes how to invoke one remote operation.
type OperationInfo struct {
	Namespace string
	Action    string
}

// Contract is what the WSDL tells us about the service.
type Contract struct {
	Endpoint   string
	Operations map[string]OperationInfo
	// ListElements holds the element names declared maxOccurs="unbounded".
	ListElements map[string]struct{}
}

func newContract() *Contract {
	c := &Contract{
		Operations:   make(map[string]OperationInfo),
		ListElements: make(map[string]struct{}),
	}
	for _, name := range knownListElements {
		c.ListElements[name] = struct{}{}
	}
	return c
}

// Discover fetches the WSDL at wsdlURL, follows its imports, and returns the
// merged contract.
func Discover(ctx context.Context, client *http.Client, wsdlURL string) (*Contract, error) {
	base, err := url.Parse(wsdlURL)
	if err != nil {
		return nil, fmt.Errorf("wsdl url: %w", err)
	}

	p := &wsdlParser{
		contract:   newContract(),
		namespaces: make(map[string]string),
		actions:    make(map[string]string),
		visited:    make(map[string]bool),
	}
	if err := p.load(ctx, client, base, 0); err != nil {
		return nil, err
	}

	for name, ns := range p.namespaces {
		p.contract.Operations[name] = OperationInfo{Namespace: ns, Action: p.actions[name]}
	}
	if p.contract.Endpoint == "" {
		endpoint := *base
		endpoint.RawQuery = ""
		p.contract.Endpoint = endpoint.String()
	}
	return p.contract, nil
}

type frame struct {
	local string
	name  string
}

type wsdlParser struct {
	contract   *Contract
	namespaces map[string]string // operation → namespace of its portType
	actions    map[string]string // operation → soapAction
	visited    map[string]bool
}

func (p *wsdlParser) load(ctx context.Context, client *http.Client, doc *url.URL, depth int) error {
	key := doc.String()
	if p.visited[key] {
		return nil
	}
	p.visited[key] = true

	body, err := fetch(ctx, client, key)
	if err != nil {
		return err
	}
	defer body.Close()

	imports, err := p.parse(io.LimitReader(body, maxDocumentSize))
	if err != nil {
		return fmt.Errorf("parse wsdl %s: %w", key, err)
	}

	if depth >= maxImportDepth {
		return nil
	}
	for _, loc := range imports {
		ref, err := url.Parse(loc)
		if err != nil {
			return fmt.Errorf("wsdl import %q: %w", loc, err)
		}
		if err := p.load(ctx, client, doc.ResolveReference(ref), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func fetch(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch wsdl: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch wsdl: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch wsdl %s: unexpected HTTP status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// parse walks one WSDL or XSD document and records what it declares.
// It returns the locations of the documents it imports.
func (p *wsdlParser) parse(r io.Reader) ([]string, error) {
	d := xml.NewDecoder(r)

	var (
		stack   []frame
		tns     string
		imports []string
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return imports, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := frame{local: t.Name.Local, name: attr(t, "name")}
			var parent, grandparent frame
			if n := len(stack); n > 0 {
				parent = stack[n-1]
				if n > 1 {
					grandparent = stack[n-2]
				}
			}

			switch {
			case f.local == "definitions" && len(stack) == 0:
				tns = attr(t, "targetNamespace")
			case f.local == "import" || f.local == "include":
				if loc := firstNonEmpty(attr(t, "location"), attr(t, "schemaLocation")); loc != "" {
					imports = append(imports, loc)
				}
			case f.local == "operation" && parent.local == "portType" && f.name != "":
				p.namespaces[f.name] = tns
			case f.local == "operation" && parent.local == "operation" && grandparent.local == "binding":
				if action := attr(t, "soapAction"); action != "" {
					p.actions[parent.name] = action
				}
			case f.local == "address" && parent.local == "port":
				if p.contract.Endpoint == "" {
					p.contract.Endpoint = attr(t, "location")
				}
			case f.local == "element" && f.name != "" && attr(t, "maxOccurs") == "unbounded":
				p.contract.ListElements[f.name] = struct{}{}
			}
			stack = append(stack, f)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
