package ports

import (
	"context"

	"github.com/99minutos/tracking-service/internal/core/domain"
)

// LookupRepository persists the audit trail of tracking lookups.
type LookupRepository interface {
	InsertLookup(ctx context.Context, rec *domain.LookupRecord) error
}
