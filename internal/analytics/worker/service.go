package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/internal/analytics/writer"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

const analyticsConsumerName = "analytics"

type sessionWriter interface {
	InsertSession(ctx context.Context, row writer.SessionEventRow) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Service mirrors session events from Pub/Sub into the warehouse while
// honoring Redis idempotency.
type Service struct {
	subscription *gcppubsub.Subscriber
	writer       sessionWriter
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewService creates a new analytics worker service.
func NewService(subscription *gcppubsub.Subscriber, sessionWriter sessionWriter, manager idempotencyChecker, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("analytics subscription is required")
	}
	if sessionWriter == nil {
		return nil, errors.New("session writer is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		subscription: subscription,
		writer:       sessionWriter,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming session events until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := s.logg.WithFields(ctx, fields)

	event, err := s.buildEvent(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid session event")
		return processResult{}
	}
	fields["event_id"] = event.EventID.String()
	fields["event_type"] = string(event.Type)
	fields["user_id"] = event.UserID.String()
	logCtx = s.logg.WithFields(ctx, fields)

	already, err := s.manager.CheckAndMarkProcessed(logCtx, analyticsConsumerName, event.EventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := s.writer.InsertSession(logCtx, buildRow(*event)); err != nil {
		s.logg.Error(logCtx, "failed to insert session row", err)
		_ = s.manager.Delete(logCtx, analyticsConsumerName, event.EventID)
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "session event mirrored")
	return processResult{}
}

func (s *Service) buildEvent(msg *gcppubsub.Message) (*analytics.SessionEvent, error) {
	var event analytics.SessionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, fmt.Errorf("decode session event: %w", err)
	}
	if event.EventID == uuid.Nil {
		return nil, errors.New("event_id missing")
	}
	if !event.Type.IsValid() {
		return nil, fmt.Errorf("unsupported event type %q", event.Type)
	}
	if event.UserID == uuid.Nil {
		return nil, errors.New("user_id missing")
	}
	return &event, nil
}

func buildRow(event analytics.SessionEvent) writer.SessionEventRow {
	var stateID *string
	if event.StateID != nil {
		value := event.StateID.String()
		stateID = &value
	}
	return writer.SessionEventRow{
		EventID:     event.EventID.String(),
		EventType:   string(event.Type),
		UserID:      event.UserID.String(),
		SocketID:    event.SocketID,
		Platform:    event.Platform,
		StateID:     stateID,
		ConnectedAt: event.ConnectedAt.UTC(),
		IngestedAt:  time.Now().UTC(),
	}
}
