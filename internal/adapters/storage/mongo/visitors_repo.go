package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"zoo-management/internal/domain/visitors"
)

type VisitorRepo struct {
	col *mongo.Collection
}

func NewVisitorRepo(db *mongo.Database) *VisitorRepo {
	return &VisitorRepo{col: db.Collection(colVisitors)}
}

func (r *VisitorRepo) Create(ctx context.Context, v visitors.Visitor) error {
	_, err := r.col.InsertOne(ctx, v)
	return mapErr(err, "email")
}

func (r *VisitorRepo) GetByID(ctx context.Context, id string) (visitors.Visitor, error) {
	return findByID[visitors.Visitor](ctx, r.col, id)
}

func (r *VisitorRepo) GetByEmail(ctx context.Context, email string) (visitors.Visitor, error) {
	var v visitors.Visitor
	err := r.col.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&v)
	return v, mapErr(err)
}

func (r *VisitorRepo) List(ctx context.Context, f visitors.Filter) ([]visitors.Visitor, int, error) {
	filter := bson.D{}
	if f.VIPLevel != "" {
		filter = append(filter, bson.E{Key: "vip_level", Value: f.VIPLevel})
	}
	if f.MembershipType != "" {
		filter = append(filter, bson.E{Key: "membership.type", Value: f.MembershipType})
	}
	if f.Source != "" {
		filter = append(filter, bson.E{Key: "source", Value: f.Source})
	}
	if f.IsVIP != nil {
		filter = append(filter, bson.E{Key: "is_vip", Value: *f.IsVIP})
	}
	if f.IsActive != nil {
		filter = append(filter, bson.E{Key: "is_active", Value: *f.IsActive})
	}
	if f.VisitedSince != nil {
		filter = append(filter, bson.E{Key: "last_visit_date", Value: bson.D{{Key: "$gte", Value: *f.VisitedSince}}})
	}
	if f.Query != "" {
		filter = append(filter, anyContains(f.Query, "first_name", "last_name", "email", "phone"))
	}
	return findPage[visitors.Visitor](ctx, r.col, filter, bson.D{{Key: "created_at", Value: -1}}, f.Offset, f.Limit)
}

func (r *VisitorRepo) Save(ctx context.Context, v visitors.Visitor) (visitors.Visitor, error) {
	expected := v.Version
	v.Version++
	if err := saveVersioned(ctx, r.col, v.ID, expected, v, "email"); err != nil {
		return visitors.Visitor{}, err
	}
	return v, nil
}
