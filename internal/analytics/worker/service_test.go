package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/internal/analytics/writer"
	"github.com/janmanch/janmanch-backend/pkg/enums"
	"github.com/janmanch/janmanch-backend/pkg/logger"
)

func TestBuildEvent(t *testing.T) {
	svc := newTestService(t)
	event := analytics.SessionEvent{
		EventID:     uuid.New(),
		Type:        enums.AnalyticsEventSessionStarted,
		UserID:      uuid.New(),
		SocketID:    "sock-1",
		Platform:    "app",
		ConnectedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	msg := buildMessage(t, event)

	parsed, err := svc.buildEvent(msg)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if parsed.EventID != event.EventID {
		t.Fatalf("unexpected event id %s", parsed.EventID)
	}
	if parsed.Platform != "app" || parsed.SocketID != "sock-1" {
		t.Fatalf("unexpected event %+v", parsed)
	}
}

func TestProcessInsertsRow(t *testing.T) {
	manager := &stubManager{}
	sink := &stubWriter{}
	svc := newTestServiceWithDeps(t, sink, manager)

	stateID := uuid.New()
	event := analytics.SessionEvent{
		EventID:     uuid.New(),
		Type:        enums.AnalyticsEventSessionStarted,
		UserID:      uuid.New(),
		SocketID:    "sock-1",
		Platform:    "web",
		StateID:     &stateID,
		ConnectedAt: time.Now().UTC(),
	}
	res := svc.process(context.Background(), buildMessage(t, event))
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(sink.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(sink.rows))
	}
	row := sink.rows[0]
	if row.EventID != event.EventID.String() || row.Platform != "web" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.StateID == nil || *row.StateID != stateID.String() {
		t.Fatal("state id must be carried into the row")
	}
}

func TestProcessAlreadyProcessed(t *testing.T) {
	manager := &stubManager{checkResult: true}
	sink := &stubWriter{}
	svc := newTestServiceWithDeps(t, sink, manager)

	res := svc.process(context.Background(), buildSessionMessage(t))
	if res.nack {
		t.Fatal("expected ack, got nack")
	}
	if len(sink.rows) != 0 {
		t.Fatal("writer should not be invoked when already processed")
	}
	if len(manager.checked) != 1 {
		t.Fatalf("expected check once, got %d", len(manager.checked))
	}
}

func TestProcessWriterErrorRetries(t *testing.T) {
	manager := &stubManager{}
	sink := &stubWriter{err: errors.New("boom")}
	svc := newTestServiceWithDeps(t, sink, manager)

	res := svc.process(context.Background(), buildSessionMessage(t))
	if !res.nack {
		t.Fatal("expected nack on writer error")
	}
	if len(manager.deleted) != 1 {
		t.Fatal("expected idempotency delete on failure")
	}
}

func TestProcessInvalidPayloadAcks(t *testing.T) {
	manager := &stubManager{}
	sink := &stubWriter{}
	svc := newTestServiceWithDeps(t, sink, manager)

	msg := &gcppubsub.Message{Data: []byte("invalid json")}
	res := svc.process(context.Background(), msg)
	if res.nack {
		t.Fatal("invalid payload should ack")
	}
	if len(manager.checked) != 0 {
		t.Fatal("idempotency manager should not be touched")
	}
}

func TestProcessIdempotencyErrorNacks(t *testing.T) {
	manager := &stubManager{checkErr: errors.New("redis down")}
	sink := &stubWriter{}
	svc := newTestServiceWithDeps(t, sink, manager)

	res := svc.process(context.Background(), buildSessionMessage(t))
	if !res.nack {
		t.Fatal("expected nack on idempotency failure")
	}
	if len(sink.rows) != 0 {
		t.Fatal("writer should not be invoked")
	}
}

func buildSessionMessage(t *testing.T) *gcppubsub.Message {
	return buildMessage(t, analytics.SessionEvent{
		EventID:     uuid.New(),
		Type:        enums.AnalyticsEventSessionStarted,
		UserID:      uuid.New(),
		SocketID:    "sock-1",
		Platform:    "app",
		ConnectedAt: time.Now().UTC(),
	})
}

func buildMessage(t *testing.T, event analytics.SessionEvent) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &gcppubsub.Message{
		ID:   "msg-1",
		Data: data,
	}
}

func newTestService(t *testing.T) *Service {
	return newTestServiceWithDeps(t, &stubWriter{}, &stubManager{})
}

func newTestServiceWithDeps(t *testing.T, sink sessionWriter, manager *stubManager) *Service {
	t.Helper()
	return &Service{
		writer:  sink,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "analytics-test"}),
	}
}

type stubWriter struct {
	rows []writer.SessionEventRow
	err  error
}

func (s *stubWriter) InsertSession(ctx context.Context, row writer.SessionEventRow) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

type stubManager struct {
	checkResult bool
	checkErr    error
	deleteErr   error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubManager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubManager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return s.deleteErr
}
