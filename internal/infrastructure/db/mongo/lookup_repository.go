package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/tracking-service/internal/core/domain"
	"github.com/99minutos/tracking-service/internal/core/ports"
)

const (
	collectionLookups = "tracking_lookups"
	lookupRetention   = 30 * 24 * time.Hour
)

// LookupRepository implements ports.LookupRepository using MongoDB.
type LookupRepository struct {
	col *mongo.Collection
}

var _ ports.LookupRepository = (*LookupRepository)(nil)

func NewLookupRepository(db *mongo.Database) *LookupRepository {
	return &LookupRepository{col: db.Collection(collectionLookups)}
}

// InsertLookup persists one lookup audit record.
func (r *LookupRepository) InsertLookup(ctx context.Context, rec *domain.LookupRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, lookupDocument(rec)); err != nil {
		return fmt.Errorf("insert lookup: %w", err)
	}
	return nil
}

func lookupDocument(rec *domain.LookupRecord) bson.M {
	doc := bson.M{
		"_id":            rec.ID,
		"skybill_number": rec.SkybillNumber,
		"outcome":        string(rec.Outcome),
		"event_count":    rec.EventCount,
		"duration_ms":    rec.Duration.Milliseconds(),
		"requested_at":   rec.RequestedAt.UTC(),
	}
	if rec.Method != "" {
		doc["method"] = rec.Method
	}
	if rec.Status != "" {
		doc["status"] = rec.Status
	}
	if rec.StatusCode != "" {
		doc["status_code"] = rec.StatusCode
	}
	if rec.Error != "" {
		doc["error"] = rec.Error
	}
	return doc
}

// EnsureIndexes creates the lookup indexes, including the TTL index that
// expires audit records after lookupRetention.
func (r *LookupRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "skybill_number", Value: 1}, {Key: "requested_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "requested_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(lookupRetention.Seconds())),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
