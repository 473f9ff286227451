package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zoo-management/internal/platform/sentinel"
)

const (
	colAnimals  = "animals"
	colExhibits = "exhibits"
	colVisitors = "visitors"
	colTickets  = "tickets"
	colHealth   = "health_records"
	colFeedings = "feedings"
	colReports  = "reports"
)

// Store es la conexión al document store.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("mongo uri required")
	}
	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{Client: client, DB: client.Database(dbName)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes crea los índices; los únicos respaldan los chequeos de
// duplicado de los services (ticket_id, email, microchip/rfid).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	sparseUnique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}}),
		}
	}
	asc := func(fields ...string) mongo.IndexModel {
		keys := bson.D{}
		for _, f := range fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		return mongo.IndexModel{Keys: keys}
	}
	desc := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: -1}}}
	}
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}, Options: options.Index().SetUnique(true)}
	}

	plan := map[string][]mongo.IndexModel{
		colAnimals:  {sparseUnique("microchip_id"), sparseUnique("rfid_tag"), asc("species"), asc("exhibit_id"), asc("next_health_check")},
		colExhibits: {asc("name"), asc("status")},
		colVisitors: {unique("email"), desc("created_at")},
		colTickets:  {unique("ticket_id"), asc("visitor_id"), desc("purchase_date"), asc("visit_date")},
		colHealth:   {asc("animal_id", "date"), asc("follow_up_date")},
		colFeedings: {asc("animal_id"), asc("scheduled_time", "created_at")},
		colReports:  {asc("type"), desc("created_at")},
	}
	for col, models := range plan {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

// mapErr traduce errores del driver a los sentinels. Para índices únicos se
// nombra el campo que colisionó.
func mapErr(err error, uniqueFields ...string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return sentinel.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		for _, f := range uniqueFields {
			if strings.Contains(err.Error(), f) {
				return sentinel.Wrap(sentinel.ErrDuplicateKey, f+" already registered")
			}
		}
		return sentinel.ErrDuplicateKey
	}
	return err
}

// findPage cuenta con el mismo filtro y devuelve la página pedida
// (limit 0 = todo).
func findPage[T any](ctx context.Context, c *mongo.Collection, filter bson.D, sort bson.D, offset, limit int) ([]T, int, error) {
	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.Name(), err)
	}
	opts := options.Find().SetSort(sort)
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", c.Name(), err)
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return out, int(total), nil
}

func findByID[T any](ctx context.Context, c *mongo.Collection, id string) (T, error) {
	var out T
	err := c.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out)
	return out, mapErr(err)
}

func deleteByID(ctx context.Context, c *mongo.Collection, id string) error {
	res, err := c.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// saveVersioned reemplaza el documento si la versión guardada es la
// esperada; doc ya lleva la versión siguiente.
func saveVersioned(ctx context.Context, c *mongo.Collection, id string, expected int64, doc any, uniqueFields ...string) error {
	res, err := c.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "version", Value: expected}}, doc)
	if err != nil {
		return mapErr(err, uniqueFields...)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := c.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

// setDoc convierte v en un documento para $set sin las claves omit.
func setDoc(v any, omit ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for _, k := range omit {
		delete(m, k)
	}
	return m, nil
}

func contains(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func anyContains(q string, fields ...string) bson.E {
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.D{{Key: f, Value: contains(q)}})
	}
	return bson.E{Key: "$or", Value: or}
}

// timeRange agrega field en [from, to) con límites opcionales.
func timeRange(filter bson.D, field string, from, to *time.Time) bson.D {
	if from == nil && to == nil {
		return filter
	}
	cond := bson.D{}
	if from != nil {
		cond = append(cond, bson.E{Key: "$gte", Value: *from})
	}
	if to != nil {
		cond = append(cond, bson.E{Key: "$lt", Value: *to})
	}
	return append(filter, bson.E{Key: field, Value: cond})
}
