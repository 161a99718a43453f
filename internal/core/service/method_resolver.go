package service

import (
	"strings"

	"github.com/99minutos/tracking-service/internal/core/domain"
	"github.com/99minutos/tracking-service/internal/core/ports"
)

// preferredMethods are the tracking operations known to work, best first.
var preferredMethods = []string{
	"trackSkybillV2",
	"trackSkybill",
	"track",
	"trackSkybillV3",
	"trackingSkybillV2",
}

// ResolveMethod picks the remote operation used for a tracking lookup.
// Deployments name the operation differently, so a known name is preferred
// and otherwise any operation that mentions tracking or skybills is taken.
func ResolveMethod(ops ports.Operations) (string, error) {
	for _, name := range preferredMethods {
		if op, ok := ops[name]; ok && op != nil {
			return name, nil
		}
	}

	names := ops.Names()
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "track") || strings.Contains(lower, "skybill") {
			return name, nil
		}
	}

	return "", &domain.MethodNotFoundError{Available: names}
}
