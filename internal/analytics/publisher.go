package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/pkg/enums"
)

const publishTimeout = 15 * time.Second

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// Publisher emits session events onto the analytics topic.
type Publisher struct {
	topic topicPublisher
}

// NewPublisher wraps the configured analytics topic publisher.
func NewPublisher(topic *gcppubsub.Publisher) (*Publisher, error) {
	if topic == nil {
		return nil, fmt.Errorf("analytics topic publisher required")
	}
	return &Publisher{topic: &gcpPublisher{Publisher: topic}}, nil
}

// PublishSessionStarted serializes and publishes one session-start event,
// blocking until the broker acknowledges or the timeout fires.
func (p *Publisher) PublishSessionStarted(ctx context.Context, event SessionEvent) error {
	if p == nil || p.topic == nil {
		return fmt.Errorf("analytics publisher not configured")
	}
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Type == "" {
		event.Type = enums.AnalyticsEventSessionStarted
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := p.topic.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":   event.EventID.String(),
			"event_type": string(event.Type),
		},
	})
	if result == nil {
		return fmt.Errorf("analytics topic rejected publish")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
