package ports

import (
	"context"

	"github.com/99minutos/tracking-service/internal/core/domain"
)

// TrackingService looks a parcel up by its skybill number.
type TrackingService interface {
	Track(ctx context.Context, skybillNumber string) (*domain.TrackingResult, error)
}
