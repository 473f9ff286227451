package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zoo-management/internal/domain/exhibits"
	"zoo-management/internal/platform/sentinel"
)

type ExhibitRepo struct {
	col *mongo.Collection
}

func NewExhibitRepo(db *mongo.Database) *ExhibitRepo {
	return &ExhibitRepo{col: db.Collection(colExhibits)}
}

func (r *ExhibitRepo) Create(ctx context.Context, e exhibits.Exhibit) error {
	if e.Animals == nil {
		e.Animals = []string{}
	}
	e.CurrentOccupancy.Animals = len(e.Animals)
	_, err := r.col.InsertOne(ctx, e)
	return mapErr(err)
}

func (r *ExhibitRepo) GetByID(ctx context.Context, id string) (exhibits.Exhibit, error) {
	return findByID[exhibits.Exhibit](ctx, r.col, id)
}

func (r *ExhibitRepo) List(ctx context.Context, f exhibits.Filter) ([]exhibits.Exhibit, int, error) {
	filter := bson.D{}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}
	if f.Theme != "" {
		filter = append(filter, bson.E{Key: "theme", Value: equalFold(f.Theme)})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.IsActive != nil {
		filter = append(filter, bson.E{Key: "is_active", Value: *f.IsActive})
	}
	if f.Query != "" {
		filter = append(filter, anyContains(f.Query, "name", "theme", "description"))
	}
	return findPage[exhibits.Exhibit](ctx, r.col, filter, bson.D{{Key: "name", Value: 1}}, f.Offset, f.Limit)
}

// Save no toca animals ni current_occupancy.animals; la capacidad nueva se
// valida contra el tamaño guardado de animals en el mismo filtro.
func (r *ExhibitRepo) Save(ctx context.Context, e exhibits.Exhibit) (exhibits.Exhibit, error) {
	set, err := setDoc(e, "_id", "animals", "version", "current_occupancy")
	if err != nil {
		return exhibits.Exhibit{}, err
	}
	set["current_occupancy.visitors"] = e.CurrentOccupancy.Visitors

	filter := bson.D{
		{Key: "_id", Value: e.ID},
		{Key: "version", Value: e.Version},
		{Key: "$expr", Value: bson.D{{Key: "$lte", Value: bson.A{animalCount, e.Capacity.Animals}}}},
	}
	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}
	var out exhibits.Exhibit
	err = r.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return exhibits.Exhibit{}, err
	}

	cur, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return exhibits.Exhibit{}, err
	}
	if cur.Version != e.Version {
		return exhibits.Exhibit{}, sentinel.ErrConflict
	}
	return exhibits.Exhibit{}, exhibits.ErrCapacityBelow
}

// animalCount es $size de animals tolerando documentos sin el campo.
var animalCount = bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$animals", bson.A{}}}}}}

// AttachAnimal es el guard de capacidad: el filtro exige exhibit activo,
// animal ausente y lugar libre, y el pipeline recalcula animals y
// current_occupancy.animals en la misma escritura.
func (r *ExhibitRepo) AttachAnimal(ctx context.Context, exhibitID, animalID string, at time.Time) (exhibits.Exhibit, error) {
	filter := bson.D{
		{Key: "_id", Value: exhibitID},
		{Key: "is_active", Value: true},
		{Key: "animals", Value: bson.D{{Key: "$ne", Value: animalID}}},
		{Key: "$expr", Value: bson.D{{Key: "$lt", Value: bson.A{animalCount, "$capacity.animals"}}}},
	}
	appended := bson.D{{Key: "$concatArrays", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$animals", bson.A{}}}},
		bson.A{animalID},
	}}}
	out, err := r.applyAnimals(ctx, filter, appended, at)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return exhibits.Exhibit{}, err
	}

	cur, err := r.GetByID(ctx, exhibitID)
	switch {
	case err != nil:
		return exhibits.Exhibit{}, err
	case !cur.IsActive:
		return exhibits.Exhibit{}, exhibits.ErrInactive
	case cur.HasAnimal(animalID):
		return cur, nil
	}
	return exhibits.Exhibit{}, exhibits.ErrCapacityExceeded
}

func (r *ExhibitRepo) DetachAnimal(ctx context.Context, exhibitID, animalID string, at time.Time) (exhibits.Exhibit, error) {
	filter := bson.D{
		{Key: "_id", Value: exhibitID},
		{Key: "animals", Value: animalID},
	}
	remaining := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: "$animals"},
		{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", animalID}}}},
	}}}
	out, err := r.applyAnimals(ctx, filter, remaining, at)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.GetByID(ctx, exhibitID)
	}
	return out, err
}

func (r *ExhibitRepo) applyAnimals(ctx context.Context, filter bson.D, animals bson.D, at time.Time) (exhibits.Exhibit, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "animals", Value: animals},
			{Key: "updated_at", Value: at},
			{Key: "version", Value: bson.D{{Key: "$add", Value: bson.A{"$version", 1}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "current_occupancy.animals", Value: bson.D{{Key: "$size", Value: "$animals"}}},
		}}},
	}
	var out exhibits.Exhibit
	err := r.col.FindOneAndUpdate(ctx, filter, pipeline, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	return out, err
}
