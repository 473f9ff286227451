package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zoo-management/internal/domain/feedings"
	"zoo-management/internal/platform/sentinel"
)

type FeedingRepo struct {
	col *mongo.Collection
}

func NewFeedingRepo(db *mongo.Database) *FeedingRepo {
	return &FeedingRepo{col: db.Collection(colFeedings)}
}

func (r *FeedingRepo) Create(ctx context.Context, f feedings.Feeding) error {
	_, err := r.col.InsertOne(ctx, f)
	return mapErr(err)
}

func (r *FeedingRepo) GetByID(ctx context.Context, id string) (feedings.Feeding, error) {
	return findByID[feedings.Feeding](ctx, r.col, id)
}

func (r *FeedingRepo) List(ctx context.Context, flt feedings.Filter) ([]feedings.Feeding, int, error) {
	filter := bson.D{}
	if flt.AnimalID != "" {
		filter = append(filter, bson.E{Key: "animal_id", Value: flt.AnimalID})
	}
	if flt.ExhibitID != "" {
		filter = append(filter, bson.E{Key: "exhibit_id", Value: flt.ExhibitID})
	}
	if flt.Completed != nil {
		filter = append(filter, bson.E{Key: "completed", Value: *flt.Completed})
	}
	if flt.FoodType != "" {
		filter = append(filter, bson.E{Key: "food_type", Value: contains(flt.FoodType)})
	}
	filter = timeRange(filter, "created_at", flt.CreatedFrom, flt.CreatedTo)

	sort := bson.D{{Key: "scheduled_time", Value: 1}, {Key: "created_at", Value: 1}}
	return findPage[feedings.Feeding](ctx, r.col, filter, sort, flt.Offset, flt.Limit)
}

func (r *FeedingRepo) Update(ctx context.Context, f feedings.Feeding) error {
	res, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: f.ID}, {Key: "completed", Value: false}}, f)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.whyClosed(ctx, f.ID)
}

func (r *FeedingRepo) Complete(ctx context.Context, id, by, notes string, at time.Time) (feedings.Feeding, error) {
	set := bson.D{
		{Key: "completed", Value: true},
		{Key: "completed_by", Value: by},
		{Key: "completed_at", Value: at},
		{Key: "updated_at", Value: at},
	}
	if notes != "" {
		set = append(set, bson.E{Key: "notes", Value: notes})
	}

	var out feedings.Feeding
	err := r.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "completed", Value: false}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return feedings.Feeding{}, err
	}
	return feedings.Feeding{}, r.whyClosed(ctx, id)
}

func (r *FeedingRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *FeedingRepo) whyClosed(ctx context.Context, id string) error {
	n, err := r.col.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyFinalized
}
