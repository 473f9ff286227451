package kafkapub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"zoo-management/internal/ports/events"
)

// Publisher produce un record por evento con key = id de la entidad, así los
// eventos de un mismo ticket o visitante caen en la misma partición.
type Publisher struct {
	client *kgo.Client
}

func New(brokers []string, clientID string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Publisher{client: client}, nil
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic: e.Topic,
		Key:   []byte(e.Key),
		Value: data,
	}
	return p.client.ProduceSync(ctx, rec).FirstErr()
}

func (p *Publisher) Close() error {
	p.client.Close()
	return nil
}
