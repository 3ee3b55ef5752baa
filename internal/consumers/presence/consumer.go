package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	presencesvc "github.com/janmanch/janmanch-backend/internal/presence"
	"github.com/janmanch/janmanch-backend/pkg/enums"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

const presenceConsumerName = "presence"

type presenceTracker interface {
	Connect(ctx context.Context, input presencesvc.ConnectInput) (*presencesvc.ConnectionDTO, error)
	Disconnect(ctx context.Context, socketID string) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer applies socket gateway events to the presence tracker while
// honoring Redis idempotency.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	tracker      presenceTracker
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer creates a new presence consumer.
func NewConsumer(subscription *gcppubsub.Subscriber, tracker presenceTracker, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("presence subscription is required")
	}
	if tracker == nil {
		return nil, errors.New("presence tracker is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Consumer{
		subscription: subscription,
		tracker:      tracker,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming gateway events until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := c.logg.WithFields(ctx, fields)

	event, err := c.buildEvent(msg)
	if err != nil {
		fields["error"] = err.Error()
		c.logg.Warn(c.logg.WithFields(ctx, fields), "invalid presence event")
		return processResult{}
	}
	fields["event_id"] = event.EventID.String()
	fields["event_type"] = string(event.Type)
	fields["socket_id"] = event.SocketID
	logCtx = c.logg.WithFields(ctx, fields)

	already, err := c.manager.CheckAndMarkProcessed(logCtx, presenceConsumerName, event.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := c.dispatch(logCtx, *event); err != nil {
		// Malformed events are dropped; anything else is retried.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			c.logg.Warn(logCtx, "presence event rejected: "+err.Error())
			return processResult{}
		}
		c.logg.Error(logCtx, "presence event failed", err)
		_ = c.manager.Delete(logCtx, presenceConsumerName, event.EventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "presence event handled")
	return processResult{}
}

func (c *Consumer) dispatch(ctx context.Context, event presencesvc.Event) error {
	switch event.Type {
	case enums.PresenceEventConnected:
		_, err := c.tracker.Connect(ctx, presencesvc.ConnectInput{
			UserID:   event.UserID,
			SocketID: event.SocketID,
			Platform: event.Platform,
		})
		return err
	default:
		return c.tracker.Disconnect(ctx, event.SocketID)
	}
}

func (c *Consumer) buildEvent(msg *gcppubsub.Message) (*presencesvc.Event, error) {
	var event presencesvc.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, fmt.Errorf("decode presence event: %w", err)
	}
	if event.EventID == uuid.Nil {
		return nil, errors.New("event_id missing")
	}
	if !event.Type.IsValid() {
		return nil, fmt.Errorf("unsupported event type %q", event.Type)
	}
	return &event, nil
}
