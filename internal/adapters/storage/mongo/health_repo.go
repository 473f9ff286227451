package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"zoo-management/internal/domain/health"
	"zoo-management/internal/platform/sentinel"
)

type HealthRepo struct {
	col *mongo.Collection
}

func NewHealthRepo(db *mongo.Database) *HealthRepo {
	return &HealthRepo{col: db.Collection(colHealth)}
}

func (r *HealthRepo) Create(ctx context.Context, rec health.Record) error {
	_, err := r.col.InsertOne(ctx, rec)
	return mapErr(err)
}

func (r *HealthRepo) GetByID(ctx context.Context, id string) (health.Record, error) {
	return findByID[health.Record](ctx, r.col, id)
}

func (r *HealthRepo) List(ctx context.Context, f health.Filter) ([]health.Record, int, error) {
	filter := bson.D{}
	if f.AnimalID != "" {
		filter = append(filter, bson.E{Key: "animal_id", Value: f.AnimalID})
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.Veterinarian != "" {
		filter = append(filter, bson.E{Key: "veterinarian", Value: contains(f.Veterinarian)})
	}
	if f.Query != "" {
		filter = append(filter, anyContains(f.Query, "animal_name", "veterinarian", "diagnosis", "treatment", "medication.name"))
	}

	sort := bson.D{{Key: "date", Value: -1}}
	if f.FollowUpDueAt != nil {
		filter = append(filter,
			bson.E{Key: "follow_up_required", Value: true},
			bson.E{Key: "follow_up_date", Value: bson.D{{Key: "$lte", Value: *f.FollowUpDueAt}}},
		)
		if f.Status == "" {
			filter = append(filter, bson.E{Key: "status", Value: health.StatusPendingFollowUp})
		}
		sort = bson.D{{Key: "follow_up_date", Value: 1}}
	}
	return findPage[health.Record](ctx, r.col, filter, sort, f.Offset, f.Limit)
}

func (r *HealthRepo) Update(ctx context.Context, rec health.Record) error {
	res, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, rec)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (r *HealthRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}
