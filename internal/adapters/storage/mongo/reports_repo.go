package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zoo-management/internal/domain/reports"
)

// reportDoc guarda el payload como texto JSON; el tipo del dominio no
// conoce bson.
type reportDoc struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Type            string    `bson:"type"`
	Period          string    `bson:"period"`
	StartDate       time.Time `bson:"start_date"`
	EndDate         time.Time `bson:"end_date"`
	GeneratedBy     string    `bson:"generated_by"`
	Data            string    `bson:"data"`
	Summary         string    `bson:"summary"`
	Recommendations []string  `bson:"recommendations"`
	Format          string    `bson:"format"`
	Status          string    `bson:"status"`
	ExportKey       string    `bson:"export_key"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toReportDoc(r reports.Report) reportDoc {
	return reportDoc{
		ID:              r.ID,
		Title:           r.Title,
		Type:            string(r.Type),
		Period:          string(r.Period),
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		GeneratedBy:     r.GeneratedBy,
		Data:            string(r.Data),
		Summary:         r.Summary,
		Recommendations: r.Recommendations,
		Format:          r.Format,
		Status:          string(r.Status),
		ExportKey:       r.ExportKey,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (d reportDoc) report() reports.Report {
	return reports.Report{
		ID:              d.ID,
		Title:           d.Title,
		Type:            reports.Type(d.Type),
		Period:          reports.Period(d.Period),
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		GeneratedBy:     d.GeneratedBy,
		Data:            json.RawMessage(d.Data),
		Summary:         d.Summary,
		Recommendations: d.Recommendations,
		Format:          d.Format,
		Status:          reports.Status(d.Status),
		ExportKey:       d.ExportKey,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type ReportRepo struct {
	col *mongo.Collection
}

func NewReportRepo(db *mongo.Database) *ReportRepo {
	return &ReportRepo{col: db.Collection(colReports)}
}

func (r *ReportRepo) Create(ctx context.Context, rep reports.Report) error {
	_, err := r.col.InsertOne(ctx, toReportDoc(rep))
	return mapErr(err)
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (reports.Report, error) {
	d, err := findByID[reportDoc](ctx, r.col, id)
	if err != nil {
		return reports.Report{}, err
	}
	return d.report(), nil
}

func (r *ReportRepo) List(ctx context.Context, f reports.Filter) ([]reports.Report, int, error) {
	filter := bson.D{}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: string(f.Type)})
	}
	if f.Period != "" {
		filter = append(filter, bson.E{Key: "period", Value: string(f.Period)})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(f.Status)})
	}
	if f.GeneratedBy != "" {
		filter = append(filter, bson.E{Key: "generated_by", Value: f.GeneratedBy})
	}
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	docs, total, err := findPage[reportDoc](ctx, r.col, filter, sort, f.Offset, f.Limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]reports.Report, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.report())
	}
	return out, total, nil
}

func (r *ReportRepo) SetStatus(ctx context.Context, id string, status reports.Status, at time.Time) (reports.Report, error) {
	var d reportDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(status)},
			{Key: "updated_at", Value: at},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return reports.Report{}, mapErr(err)
		}
		return reports.Report{}, err
	}
	return d.report(), nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}
