package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/tracking-service/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for reaching the tracking web service.
type Config struct {
	WSDLURL string
	Timeout time.Duration
	// ContractTTL is how long a discovered contract is reused. Zero or less
	// discovers the contract again on every Connect.
	ContractTTL time.Duration
	// HTTPClient overrides the client used for WSDL and SOAP requests.
	HTTPClient *http.Client
}

// Factory opens clients against one WSDL. Concurrent Connects share a single
// in-flight discovery; a failed discovery is retried on the next Connect.
type Factory struct {
	wsdlURL string
	ttl     time.Duration
	http    *http.Client
	log     zerolog.Logger
	now     func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	contract *Contract
	loadedAt time.Time
}

// NewFactory returns a Factory. A default timeout is applied when none is
// provided.
func NewFactory(cfg Config, log zerolog.Logger) *Factory {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Factory{wsdlURL: cfg.WSDLURL, ttl: cfg.ContractTTL, http: hc, log: log, now: time.Now}
}

// Connect satisfies ports.ClientFactory.
func (f *Factory) Connect(ctx context.Context) (ports.TrackingClient, error) {
	contract, err := f.loadContract(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{contract: contract, http: f.http}, nil
}

// loadContract returns the cached contract or joins the discovery in
// flight. The discovery outlives a caller that gives up; the caller still
// returns as soon as its own ctx is done.
func (f *Factory) loadContract(ctx context.Context) (*Contract, error) {
	if c := f.cached(); c != nil {
		return c, nil
	}

	ch := f.group.DoChan(f.wsdlURL, func() (any, error) {
		contract, err := Discover(context.WithoutCancel(ctx), f.http, f.wsdlURL)
		if err != nil {
			return nil, err
		}
		f.store(contract)

		f.log.Info().
			Str("wsdl", f.wsdlURL).
			Str("endpoint", contract.Endpoint).
			Int("operations", len(contract.Operations)).
			Msg("wsdl contract loaded")
		return contract, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Contract), nil
	}
}

func (f *Factory) cached() *Contract {
	if f.ttl <= 0 {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.contract == nil || f.now().Sub(f.loadedAt) >= f.ttl {
		return nil
	}
	return f.contract
}

func (f *Factory) store(c *Contract) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contract = c
	f.loadedAt = f.now()
}

// Client calls the operations of one discovered contract.
type Client struct {
	contract *Contract
	http     *http.Client
}

// Operations satisfies ports.TrackingClient.
func (c *Client) Operations() ports.Operations {
	ops := make(ports.Operations, len(c.contract.Operations))
	for name := range c.contract.Operations {
		ops[name] = func(ctx context.Context, args map[string]any) (any, error) {
			return c.call(ctx, name, args)
		}
	}
	return ops
}

func (c *Client) call(ctx context.Context, name string, args map[string]any) (any, error) {
	info := c.contract.Operations[name]

	payload, err := encodeRequest(info.Namespace, name, args)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contract.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", strconv.Quote(info.Action))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Faults arrive with HTTP 500, so the body is decoded before the status
	// is looked at.
	result, decErr := decodeResponse(io.LimitReader(resp.Body, maxDocumentSize), c.contract.ListElements)

	var fault *FaultError
	if errors.As(decErr, &fault) {
		return nil, fault
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s: unexpected HTTP status %d", name, resp.StatusCode)
	}
	if decErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", name, decErr)
	}
	return result, nil
}
