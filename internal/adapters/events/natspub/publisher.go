package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"zoo-management/internal/ports/events"
)

// Publisher publica cada evento en el subject igual a su tópico.
type Publisher struct {
	conn *nats.Conn
}

func New(url, clientName string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(e.Topic)
	msg.Data = data
	msg.Header.Set("Event-Key", e.Key)
	return p.conn.PublishMsg(msg)
}

// Close vacía lo pendiente antes de cerrar.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
