package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubSink publishes lobby events with the op as ordering key, so events of
// one operation are delivered in the order they were received.
type pubsubSink struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func openPubSub(ctx context.Context, cfg Config, log Logger) (Sink, error) {
	var opts []option.ClientOption
	if cfg.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSub.Endpoint))
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.PubSub.Topic)
	topic.EnableMessageOrdering = true
	return &pubsubSink{id: cfg.ID, client: client, topic: topic, log: log}, nil
}

func (p *pubsubSink) ID() string { return p.id }

// Publish blocks until the server acknowledges the message.
func (p *pubsubSink) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Op, err)
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  evt.Attributes(),
		OrderingKey: evt.Op,
	})
	id, err := res.Get(ctx)
	if err != nil {
		// A failed publish pauses its ordering key until resumed.
		p.topic.ResumePublish(evt.Op)
		p.log.ErrorObj("pubsub publish failed", "sink_error", map[string]any{
			"sink_id": p.id,
			"op":      evt.Op,
			"error":   err.Error(),
		})
		return fmt.Errorf("publish %s event: %w", evt.Op, err)
	}
	p.log.DebugObj("pubsub accepted lobby event", "sink_delivery", map[string]any{
		"sink_id":    p.id,
		"op":         evt.Op,
		"message_id": id,
	})
	return nil
}

// Close flushes pending messages and releases the client.
func (p *pubsubSink) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
