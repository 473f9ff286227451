package events

import (
	"context"
	"time"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/metrics"
)

// Tópicos de dominio publicados por los services.
const (
	TopicTicketPurchased = "zoo.tickets.purchased"
	TopicTicketValidated = "zoo.tickets.validated"
	TopicTicketRefunded  = "zoo.tickets.refunded"
	TopicAnimalAssigned  = "zoo.animals.assigned"
	TopicAnimalReleased  = "zoo.animals.released"
	TopicVisitRecorded   = "zoo.visitors.visit_recorded"
	TopicReportGenerated = "zoo.reports.generated"
)

// Event es un hecho de dominio ya ocurrido. Payload se serializa a JSON.
type Event struct {
	Topic      string    `json:"topic"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit publica sin propagar el error: los eventos son best-effort y una
// falla del broker no revierte la operación ya guardada.
func Emit(ctx context.Context, p Publisher, topic, key string, payload any) {
	if p == nil {
		return
	}
	e := Event{Topic: topic, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := p.Publish(ctx, e); err != nil {
		metrics.NotificationFailed("events")
		logger.FromContext(ctx).Warn("event publish failed", map[string]any{
			"topic": topic,
			"key":   key,
			"error": err.Error(),
		})
	}
}
