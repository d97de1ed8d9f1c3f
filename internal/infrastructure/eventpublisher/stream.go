package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gowallet/internal/domain"
)

// StreamPublisher appends events to a Redis stream.
type StreamPublisher struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher writing to stream. maxLen caps the
// stream approximately; zero leaves it unbounded.
func NewStreamPublisher(client redis.UniversalClient, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish adds the event to the stream. The event id is stored as a field
// so consumers can deduplicate redeliveries.
func (p *StreamPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":       event.ID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"payload":        string(payload),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	return p.client.XAdd(ctx, args).Err()
}
