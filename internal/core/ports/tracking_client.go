package ports

import (
	"context"
	"slices"
)

// Operation invokes one remote operation and returns the decoded,
// vendor-shaped response.
type Operation func(ctx context.Context, args map[string]any) (any, error)

// Operations is the capability set of a transport client: every remote
// operation it can call, by name.
type Operations map[string]Operation

// Names returns the callable operation names in lexical order.
func (o Operations) Names() []string {
	names := make([]string, 0, len(o))
	for name, op := range o {
		if op != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// TrackingClient is a connection to the remote tracking service.
type TrackingClient interface {
	Operations() Operations
}

// ClientFactory opens connections to the remote tracking service.
type ClientFactory interface {
	Connect(ctx context.Context) (TrackingClient, error)
}
