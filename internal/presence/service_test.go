package presence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/pkg/db/models"
	dbtypes "github.com/janmanch/janmanch-backend/pkg/db/types"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
)

type stubPresenceRepo struct {
	socket     *models.UserSocket
	socketErr  error
	created    *models.UserSocket
	createErr  error
	deleted    int64
	deleteErr  error
	delCalls   int
	session    *models.UserSession
	sessionErr error
	user       *models.User
	userErr    error
}

func (s *stubPresenceRepo) FindSocket(ctx context.Context, socketID string) (*models.UserSocket, error) {
	if s.socketErr != nil {
		return nil, s.socketErr
	}
	return s.socket, nil
}

func (s *stubPresenceRepo) CreateSocketAndCount(ctx context.Context, socket *models.UserSocket) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = socket
	return nil
}

func (s *stubPresenceRepo) DeleteSocket(ctx context.Context, socketID string) (int64, error) {
	s.delCalls++
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	return s.deleted, nil
}

func (s *stubPresenceRepo) CreateSession(ctx context.Context, session *models.UserSession) error {
	if s.sessionErr != nil {
		return s.sessionErr
	}
	s.session = session
	return nil
}

func (s *stubPresenceRepo) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.user, nil
}

type stubSessionPublisher struct {
	event      *analytics.SessionEvent
	publishErr error
}

func (s *stubSessionPublisher) PublishSessionStarted(ctx context.Context, event analytics.SessionEvent) error {
	s.event = &event
	return s.publishErr
}

func connectedUser() *models.User {
	stateID := uuid.New()
	return &models.User{
		ID:             uuid.New(),
		FirebaseID:     "fb-presence",
		StateID:        &stateID,
		PlatformOnline: dbtypes.PlatformCounters{"app": 3},
	}
}

func TestConnectValidation(t *testing.T) {
	svc, _ := NewService(&stubPresenceRepo{}, nil, nil, nil)

	cases := []struct {
		name  string
		input ConnectInput
	}{
		{"missing user", ConnectInput{SocketID: "s1", Platform: "app"}},
		{"missing socket", ConnectInput{UserID: uuid.New(), Platform: "app"}},
		{"bad platform", ConnectInput{UserID: uuid.New(), SocketID: "s1", Platform: "desktop"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Connect(context.Background(), tc.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestConnectSuccess(t *testing.T) {
	user := connectedUser()
	repo := &stubPresenceRepo{socketErr: gorm.ErrRecordNotFound, user: user}
	publisher := &stubSessionPublisher{}
	svc, err := NewService(repo, publisher, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Connect(context.Background(), ConnectInput{
		UserID:   user.ID,
		SocketID: "sock-1",
		Platform: "app",
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if dto.AlreadyConnected {
		t.Fatal("fresh socket must not report a replay")
	}
	if dto.PlatformOnline["app"] != 3 {
		t.Fatalf("expected counter snapshot 3, got %d", dto.PlatformOnline["app"])
	}
	if repo.created == nil || repo.created.SocketID != "sock-1" {
		t.Fatal("socket row must be created")
	}
	if repo.session == nil {
		t.Fatal("session row must be recorded")
	}
	if repo.session.StateID == nil || *repo.session.StateID != *user.StateID {
		t.Fatal("session must denormalize the user's state")
	}
	if publisher.event == nil {
		t.Fatal("session event must be published")
	}
	if publisher.event.Platform != "app" || publisher.event.UserID != user.ID {
		t.Fatalf("unexpected session event %+v", publisher.event)
	}
}

func TestConnectReplayIsNoOp(t *testing.T) {
	user := connectedUser()
	existing := &models.UserSocket{
		UserID:   user.ID,
		SocketID: "sock-1",
		Platform: "app",
	}
	repo := &stubPresenceRepo{socket: existing, user: user}
	publisher := &stubSessionPublisher{}
	svc, _ := NewService(repo, publisher, nil, nil)

	dto, err := svc.Connect(context.Background(), ConnectInput{
		UserID:   user.ID,
		SocketID: "sock-1",
		Platform: "app",
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !dto.AlreadyConnected {
		t.Fatal("replay must be reported")
	}
	if repo.created != nil {
		t.Fatal("replay must not insert a socket")
	}
	if repo.session != nil || publisher.event != nil {
		t.Fatal("replay must not record a session or publish")
	}
}

func TestConnectInsertRaceTreatedAsReplay(t *testing.T) {
	user := connectedUser()
	repo := &stubPresenceRepo{
		socketErr: gorm.ErrRecordNotFound,
		createErr: errors.New(`duplicate key value violates unique constraint "idx_user_sockets_socket_id"`),
		user:      user,
	}
	publisher := &stubSessionPublisher{}
	svc, _ := NewService(repo, publisher, nil, nil)

	dto, err := svc.Connect(context.Background(), ConnectInput{
		UserID:   user.ID,
		SocketID: "sock-1",
		Platform: "app",
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !dto.AlreadyConnected {
		t.Fatal("insert race must be reported as a replay")
	}
	if publisher.event != nil {
		t.Fatal("insert race must not publish")
	}
}

func TestConnectUnknownUser(t *testing.T) {
	repo := &stubPresenceRepo{
		socketErr: gorm.ErrRecordNotFound,
		createErr: gorm.ErrRecordNotFound,
	}
	svc, _ := NewService(repo, nil, nil, nil)

	_, err := svc.Connect(context.Background(), ConnectInput{
		UserID:   uuid.New(),
		SocketID: "sock-x",
		Platform: "web",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestConnectSessionFailureAbsorbed(t *testing.T) {
	user := connectedUser()
	repo := &stubPresenceRepo{
		socketErr:  gorm.ErrRecordNotFound,
		user:       user,
		sessionErr: errors.New("insert failed"),
	}
	publisher := &stubSessionPublisher{}
	svc, _ := NewService(repo, publisher, nil, nil)

	_, err := svc.Connect(context.Background(), ConnectInput{
		UserID:   user.ID,
		SocketID: "sock-1",
		Platform: "app",
	})
	if err != nil {
		t.Fatalf("session failure must not fail connect: %v", err)
	}
	if publisher.event != nil {
		t.Fatal("failed session must not publish")
	}
}

func TestDisconnectUnknownSocketIsNoOp(t *testing.T) {
	repo := &stubPresenceRepo{socketErr: gorm.ErrRecordNotFound}
	svc, _ := NewService(repo, nil, nil, nil)

	if err := svc.Disconnect(context.Background(), "missing"); err != nil {
		t.Fatalf("unknown socket must be a no-op: %v", err)
	}
	if repo.delCalls != 0 {
		t.Fatal("unknown socket must not attempt a delete")
	}
}

func TestDisconnectSuccess(t *testing.T) {
	repo := &stubPresenceRepo{
		socket:  &models.UserSocket{UserID: uuid.New(), SocketID: "sock-1", Platform: "web"},
		deleted: 1,
	}
	svc, _ := NewService(repo, nil, nil, nil)

	if err := svc.Disconnect(context.Background(), "sock-1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if repo.delCalls != 1 {
		t.Fatal("expected delete call")
	}
}
