// Package pubsub announces flushed objects on a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

// Result is the pending outcome of one publish.
type Result interface {
	Get(ctx context.Context) (string, error)
}

// Topic is the publishing side of a Pub/Sub topic.
type Topic interface {
	Publish(ctx context.Context, msg *pubsub.Message) Result
}

type topicAdapter struct {
	topic *pubsub.Topic
}

func (t topicAdapter) Publish(ctx context.Context, msg *pubsub.Message) Result {
	return t.topic.Publish(ctx, msg)
}

// Publisher encodes ObjectFlushed events as JSON messages.
type Publisher struct {
	topic Topic
}

// New wraps a client topic.
func New(topic *pubsub.Topic) (*Publisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub topic is required")
	}
	return NewWithTopic(topicAdapter{topic: topic}), nil
}

// NewWithTopic wraps any Topic implementation.
func NewWithTopic(topic Topic) *Publisher {
	return &Publisher{topic: topic}
}

// Publish sends event and waits for the server ack.
func (p *Publisher) Publish(ctx context.Context, event crawler.ObjectFlushed) error {
	if p.topic == nil {
		return errors.New("pubsub publisher is not configured")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id":   event.RunID,
			"category": event.Category,
		},
	}
	if _, err := p.topic.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

var _ crawler.Notifier = (*Publisher)(nil)
