package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"zoo-management/internal/domain/animals"
)

var animalTags = []string{"microchip_id", "rfid_tag"}

type AnimalRepo struct {
	col *mongo.Collection
}

func NewAnimalRepo(db *mongo.Database) *AnimalRepo {
	return &AnimalRepo{col: db.Collection(colAnimals)}
}

func (r *AnimalRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.col.InsertOne(ctx, a)
	return mapErr(err, animalTags...)
}

func (r *AnimalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	return findByID[animals.Animal](ctx, r.col, id)
}

func (r *AnimalRepo) List(ctx context.Context, f animals.Filter) ([]animals.Animal, int, error) {
	filter := bson.D{}
	if f.Species != "" {
		filter = append(filter, bson.E{Key: "species", Value: contains(f.Species)})
	}
	if f.Gender != "" {
		filter = append(filter, bson.E{Key: "gender", Value: f.Gender})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.ExhibitID != "" {
		filter = append(filter, bson.E{Key: "exhibit_id", Value: f.ExhibitID})
	}
	if f.IsEndangered != nil {
		filter = append(filter, bson.E{Key: "is_endangered", Value: *f.IsEndangered})
	}
	if f.IsActive != nil {
		filter = append(filter, bson.E{Key: "is_active", Value: *f.IsActive})
	}
	if f.HealthCheckDueAt != nil {
		filter = append(filter, bson.E{Key: "next_health_check", Value: bson.D{{Key: "$lte", Value: *f.HealthCheckDueAt}}})
	}
	if f.Query != "" {
		filter = append(filter, anyContains(f.Query, "name", "species", "scientific_name", "microchip_id", "rfid_tag"))
	}
	return findPage[animals.Animal](ctx, r.col, filter, bson.D{{Key: "created_at", Value: -1}}, f.Offset, f.Limit)
}

func (r *AnimalRepo) Save(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	expected := a.Version
	a.Version++
	if err := saveVersioned(ctx, r.col, a.ID, expected, a, animalTags...); err != nil {
		return animals.Animal{}, err
	}
	return a, nil
}
