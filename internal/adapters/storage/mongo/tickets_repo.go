package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zoo-management/internal/domain/tickets"
	"zoo-management/internal/platform/sentinel"
)

// open es la condición de un ticket todavía utilizable.
var open = bson.D{{Key: "is_used", Value: false}, {Key: "refunded", Value: false}}

type TicketRepo struct {
	col *mongo.Collection
}

func NewTicketRepo(db *mongo.Database) *TicketRepo {
	return &TicketRepo{col: db.Collection(colTickets)}
}

func (r *TicketRepo) Create(ctx context.Context, t tickets.Ticket) error {
	_, err := r.col.InsertOne(ctx, t)
	return mapErr(err, "ticket_id")
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (tickets.Ticket, error) {
	return findByID[tickets.Ticket](ctx, r.col, id)
}

func (r *TicketRepo) GetByTicketID(ctx context.Context, ticketID string) (tickets.Ticket, error) {
	var t tickets.Ticket
	err := r.col.FindOne(ctx, bson.D{{Key: "ticket_id", Value: ticketID}}).Decode(&t)
	return t, mapErr(err)
}

func (r *TicketRepo) List(ctx context.Context, f tickets.Filter) ([]tickets.Ticket, int, error) {
	filter := bson.D{}
	if f.VisitorID != "" {
		filter = append(filter, bson.E{Key: "visitor_id", Value: f.VisitorID})
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}
	if f.PaymentMethod != "" {
		filter = append(filter, bson.E{Key: "payment_method", Value: f.PaymentMethod})
	}
	if f.IsUsed != nil {
		filter = append(filter, bson.E{Key: "is_used", Value: *f.IsUsed})
	}
	if f.Refunded != nil {
		filter = append(filter, bson.E{Key: "refunded", Value: *f.Refunded})
	}
	filter = timeRange(filter, "visit_date", f.VisitFrom, f.VisitTo)
	filter = timeRange(filter, "purchase_date", f.PurchasedFrom, f.PurchasedTo)
	if f.Query != "" {
		filter = append(filter, anyContains(f.Query, "ticket_id", "transaction_id", "type"))
	}
	return findPage[tickets.Ticket](ctx, r.col, filter, bson.D{{Key: "purchase_date", Value: -1}}, f.Offset, f.Limit)
}

func (r *TicketRepo) Update(ctx context.Context, t tickets.Ticket) error {
	set, err := setDoc(t, "_id", "ticket_id", "is_used", "used_at", "refunded", "refund_date", "refund_amount", "refund_reason")
	if err != nil {
		return err
	}
	filter := append(bson.D{{Key: "_id", Value: t.ID}}, open...)
	res, err := r.col.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.terminal(ctx, bson.D{{Key: "_id", Value: t.ID}})
}

// MarkUsed es la validación: una sola escritura condicional, así dos
// validaciones concurrentes no pueden ganar ambas.
func (r *TicketRepo) MarkUsed(ctx context.Context, ticketID string, at time.Time) (tickets.Ticket, error) {
	key := bson.D{{Key: "ticket_id", Value: ticketID}}
	return r.finalize(ctx, key, bson.D{
		{Key: "is_used", Value: true},
		{Key: "used_at", Value: at},
		{Key: "updated_at", Value: at},
	})
}

func (r *TicketRepo) Refund(ctx context.Context, id string, amount float64, reason string, at time.Time) (tickets.Ticket, error) {
	key := bson.D{{Key: "_id", Value: id}}
	return r.finalize(ctx, key, bson.D{
		{Key: "refunded", Value: true},
		{Key: "refund_date", Value: at},
		{Key: "refund_amount", Value: amount},
		{Key: "refund_reason", Value: reason},
		{Key: "updated_at", Value: at},
	})
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "is_used", Value: false}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return sentinel.ErrAlreadyUsed
}

func (r *TicketRepo) finalize(ctx context.Context, key bson.D, set bson.D) (tickets.Ticket, error) {
	filter := append(append(bson.D{}, key...), open...)
	var out tickets.Ticket
	err := r.col.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return tickets.Ticket{}, err
	}
	return tickets.Ticket{}, r.terminal(ctx, key)
}

// terminal explica por qué una escritura condicional no encontró el ticket.
func (r *TicketRepo) terminal(ctx context.Context, key bson.D) error {
	var cur tickets.Ticket
	if err := r.col.FindOne(ctx, key).Decode(&cur); err != nil {
		return mapErr(err)
	}
	switch {
	case cur.IsUsed:
		return sentinel.ErrAlreadyUsed
	case cur.Refunded:
		return sentinel.ErrAlreadyFinalized
	}
	return sentinel.ErrConflict
}
