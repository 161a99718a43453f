package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/99minutos/tracking-service/internal/core/domain"
)

func TestLookupDocument_Success(t *testing.T) {
	at := time.Date(2024, 1, 5, 14, 2, 0, 0, time.FixedZone("CET", 3600))
	doc := lookupDocument(&domain.LookupRecord{
		ID:            "id-1",
		SkybillNumber: "XN081879383FR",
		Method:        "trackSkybillV2",
		Outcome:       domain.LookupOK,
		Status:        "Livré",
		StatusCode:    "D",
		EventCount:    2,
		Duration:      1500 * time.Millisecond,
		RequestedAt:   at,
	})

	assert.Equal(t, "id-1", doc["_id"])
	assert.Equal(t, "ok", doc["outcome"])
	assert.Equal(t, int64(1500), doc["duration_ms"])
	assert.Equal(t, at.UTC(), doc["requested_at"])
	assert.Equal(t, "D", doc["status_code"])
	assert.NotContains(t, doc, "error")
}

func TestLookupDocument_Failure(t *testing.T) {
	doc := lookupDocument(&domain.LookupRecord{
		ID:            "id-2",
		SkybillNumber: "XN1",
		Outcome:       domain.LookupFailed,
		Error:         errors.New("create client: timeout").Error(),
	})

	assert.Equal(t, "error", doc["outcome"])
	assert.Equal(t, "create client: timeout", doc["error"])
	assert.NotContains(t, doc, "method")
	assert.NotContains(t, doc, "status")
}
