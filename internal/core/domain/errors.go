package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport      = errors.New("tracking transport failure")
	ErrMethodNotFound = errors.New("tracking method not found")
	ErrEmptyResponse  = errors.New("empty response from tracking service")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// MissingParameterError is returned when the caller omitted a required input.
// It is raised before any remote call is made.
type MissingParameterError struct {
	Param  string
	InBody bool
}

func (e *MissingParameterError) Error() string {
	if e.InBody {
		return fmt.Sprintf("Le paramètre %s est requis dans le body", e.Param)
	}
	return fmt.Sprintf("Le paramètre %s est requis", e.Param)
}

// TransportError reports that the remote service could not be reached, or
// that the call itself failed (network, timeout, SOAP fault).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// MethodNotFoundError reports that the remote contract exposes no usable
// tracking operation. Available lists what it does expose.
type MethodNotFoundError struct {
	Available []string
}

func (e *MethodNotFoundError) Error() string {
	return "tracking method not found in WSDL, available methods: " + strings.Join(e.Available, ", ")
}

func (e *MethodNotFoundError) Is(target error) bool {
	return target == ErrMethodNotFound
}
