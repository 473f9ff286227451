package logpub

import (
	"context"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/ports/events"
)

// Publisher registra los eventos en el log; se usa con EVENTS_DRIVER=none.
type Publisher struct {
	log logger.Logger
}

func New(log logger.Logger) *Publisher {
	return &Publisher{log: log}
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	p.log.Debug("domain event", map[string]any{
		"topic": e.Topic,
		"key":   e.Key,
	})
	return nil
}

func (p *Publisher) Close() error { return nil }
