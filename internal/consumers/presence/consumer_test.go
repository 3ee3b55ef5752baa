package presence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	presencesvc "github.com/janmanch/janmanch-backend/internal/presence"
	"github.com/janmanch/janmanch-backend/pkg/enums"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

type stubTracker struct {
	connects    []presencesvc.ConnectInput
	connectErr  error
	disconnects []string
	discErr     error
}

func (s *stubTracker) Connect(ctx context.Context, input presencesvc.ConnectInput) (*presencesvc.ConnectionDTO, error) {
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	s.connects = append(s.connects, input)
	return &presencesvc.ConnectionDTO{UserID: input.UserID, SocketID: input.SocketID}, nil
}

func (s *stubTracker) Disconnect(ctx context.Context, socketID string) error {
	if s.discErr != nil {
		return s.discErr
	}
	s.disconnects = append(s.disconnects, socketID)
	return nil
}

type stubManager struct {
	checkResult bool
	checkErr    error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubManager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubManager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

func newTestConsumer(t *testing.T, tracker presenceTracker, manager *stubManager) *Consumer {
	t.Helper()
	return &Consumer{
		tracker: tracker,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "presence-test"}),
	}
}

func buildEventMessage(t *testing.T, event presencesvc.Event) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &gcppubsub.Message{ID: "msg-1", Data: data}
}

func connectedEvent() presencesvc.Event {
	return presencesvc.Event{
		EventID:    uuid.New(),
		Type:       enums.PresenceEventConnected,
		UserID:     uuid.New(),
		SocketID:   "sock-1",
		Platform:   "app",
		OccurredAt: time.Now().UTC(),
	}
}

func TestProcessConnectDispatches(t *testing.T) {
	tracker := &stubTracker{}
	manager := &stubManager{}
	consumer := newTestConsumer(t, tracker, manager)

	event := connectedEvent()
	res := consumer.process(context.Background(), buildEventMessage(t, event))
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(tracker.connects) != 1 {
		t.Fatalf("expected one connect, got %d", len(tracker.connects))
	}
	if tracker.connects[0].SocketID != "sock-1" || tracker.connects[0].UserID != event.UserID {
		t.Fatalf("unexpected connect input %+v", tracker.connects[0])
	}
}

func TestProcessDisconnectDispatches(t *testing.T) {
	tracker := &stubTracker{}
	manager := &stubManager{}
	consumer := newTestConsumer(t, tracker, manager)

	event := connectedEvent()
	event.Type = enums.PresenceEventDisconnected
	res := consumer.process(context.Background(), buildEventMessage(t, event))
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(tracker.disconnects) != 1 || tracker.disconnects[0] != "sock-1" {
		t.Fatalf("unexpected disconnects %+v", tracker.disconnects)
	}
}

func TestProcessAlreadyProcessed(t *testing.T) {
	tracker := &stubTracker{}
	manager := &stubManager{checkResult: true}
	consumer := newTestConsumer(t, tracker, manager)

	res := consumer.process(context.Background(), buildEventMessage(t, connectedEvent()))
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(tracker.connects) != 0 {
		t.Fatal("tracker should not run for processed events")
	}
}

func TestProcessInvalidPayloadAcks(t *testing.T) {
	tracker := &stubTracker{}
	manager := &stubManager{}
	consumer := newTestConsumer(t, tracker, manager)

	res := consumer.process(context.Background(), &gcppubsub.Message{Data: []byte("not json")})
	if res.nack {
		t.Fatal("invalid payload should ack")
	}
	if len(manager.checked) != 0 {
		t.Fatal("idempotency manager should not be touched")
	}
}

func TestProcessValidationErrorDropsEvent(t *testing.T) {
	tracker := &stubTracker{connectErr: pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")}
	manager := &stubManager{}
	consumer := newTestConsumer(t, tracker, manager)

	res := consumer.process(context.Background(), buildEventMessage(t, connectedEvent()))
	if res.nack {
		t.Fatal("validation failures should not be retried")
	}
	if len(manager.deleted) != 0 {
		t.Fatal("dropped events keep their processed marker")
	}
}

func TestProcessDependencyErrorRetries(t *testing.T) {
	tracker := &stubTracker{connectErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "register socket")}
	manager := &stubManager{}
	consumer := newTestConsumer(t, tracker, manager)

	res := consumer.process(context.Background(), buildEventMessage(t, connectedEvent()))
	if !res.nack {
		t.Fatal("expected nack on dependency failure")
	}
	if len(manager.deleted) != 1 {
		t.Fatal("expected idempotency delete before retry")
	}
}
