package presence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/internal/analytics"
	"github.com/janmanch/janmanch-backend/pkg/db"
	"github.com/janmanch/janmanch-backend/pkg/db/models"
	"github.com/janmanch/janmanch-backend/pkg/enums"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
	"github.com/janmanch/janmanch-backend/pkg/logger"
	"github.com/janmanch/janmanch-backend/pkg/metrics"
)

type presenceRepository interface {
	FindSocket(ctx context.Context, socketID string) (*models.UserSocket, error)
	CreateSocketAndCount(ctx context.Context, socket *models.UserSocket) error
	DeleteSocket(ctx context.Context, socketID string) (int64, error)
	CreateSession(ctx context.Context, session *models.UserSession) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionPublisher interface {
	PublishSessionStarted(ctx context.Context, event analytics.SessionEvent) error
}

// Service tracks socket connections and the per-platform counters they feed.
type Service interface {
	Connect(ctx context.Context, input ConnectInput) (*ConnectionDTO, error)
	Disconnect(ctx context.Context, socketID string) error
}

type service struct {
	repo      presenceRepository
	publisher sessionPublisher
	metrics   *metrics.PresenceMetrics
	logg      *logger.Logger
}

// NewService builds the presence tracker. Publisher and metrics are optional;
// session events and gauges are skipped when absent.
func NewService(repo presenceRepository, publisher sessionPublisher, presenceMetrics *metrics.PresenceMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("presence repository required")
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		metrics:   presenceMetrics,
		logg:      logg,
	}, nil
}

// Connect registers a socket for the user. Replays of the same socket ID are
// a no-op so gateway retries never double-count. The per-platform counter is
// cumulative; it counts connections accepted, not sockets currently open.
func (s *service) Connect(ctx context.Context, input ConnectInput) (*ConnectionDTO, error) {
	input.SocketID = strings.TrimSpace(input.SocketID)
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.SocketID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "socket id is required")
	}
	if !enums.Platform(input.Platform).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid platform")
	}

	ctx = s.logCtx(ctx, input.UserID, input.SocketID, input.Platform)

	existing, err := s.repo.FindSocket(ctx, input.SocketID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.metrics.IncFailure("connect")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check socket")
	}
	if existing != nil {
		if s.logg != nil {
			s.logg.Info(ctx, "socket already connected, ignoring replay")
		}
		return s.connectionState(ctx, existing, true)
	}

	socket := &models.UserSocket{
		UserID:      input.UserID,
		SocketID:    input.SocketID,
		Platform:    input.Platform,
		ConnectedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateSocketAndCount(ctx, socket); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncFailure("connect")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		// A concurrent replay of the same socket loses the insert race.
		if db.IsUniqueViolation(err, "idx_user_sockets_socket_id") {
			if s.logg != nil {
				s.logg.Info(ctx, "socket connected concurrently, ignoring replay")
			}
			return s.connectionState(ctx, socket, true)
		}
		s.metrics.IncFailure("connect")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register socket")
	}

	s.metrics.IncConnect(input.Platform)
	s.recordSession(ctx, socket)

	return s.connectionState(ctx, socket, false)
}

// Disconnect drops the socket row. Unknown sockets are a no-op; cumulative
// platform counters are never decremented.
func (s *service) Disconnect(ctx context.Context, socketID string) error {
	socketID = strings.TrimSpace(socketID)
	if socketID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "socket id is required")
	}

	socket, err := s.repo.FindSocket(ctx, socketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.metrics.IncFailure("disconnect")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check socket")
	}

	ctx = s.logCtx(ctx, socket.UserID, socketID, socket.Platform)
	deleted, err := s.repo.DeleteSocket(ctx, socketID)
	if err != nil {
		s.metrics.IncFailure("disconnect")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop socket")
	}
	if deleted > 0 {
		s.metrics.IncDisconnect(socket.Platform)
		if s.logg != nil {
			s.logg.Info(ctx, "socket disconnected")
		}
	}
	return nil
}

// recordSession re-reads the user so the session row and the published event
// carry counters and state as of this connection. Failures here never fail
// the connect itself.
func (s *service) recordSession(ctx context.Context, socket *models.UserSocket) {
	user, err := s.repo.FindUser(ctx, socket.UserID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "session snapshot read failed: "+err.Error())
		}
		return
	}

	session := &models.UserSession{
		UserID:      user.ID,
		SocketID:    socket.SocketID,
		Platform:    socket.Platform,
		StateID:     user.StateID,
		ConnectedAt: socket.ConnectedAt,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "session record failed: "+err.Error())
		}
		return
	}

	if s.publisher == nil {
		return
	}
	event := analytics.SessionEvent{
		EventID:     uuid.New(),
		Type:        enums.AnalyticsEventSessionStarted,
		UserID:      user.ID,
		SocketID:    socket.SocketID,
		Platform:    socket.Platform,
		StateID:     user.StateID,
		ConnectedAt: socket.ConnectedAt,
	}
	if err := s.publisher.PublishSessionStarted(ctx, event); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "session event publish failed: "+err.Error())
	}
}

func (s *service) connectionState(ctx context.Context, socket *models.UserSocket, replay bool) (*ConnectionDTO, error) {
	dto := &ConnectionDTO{
		UserID:           socket.UserID,
		SocketID:         socket.SocketID,
		Platform:         socket.Platform,
		ConnectedAt:      socket.ConnectedAt,
		AlreadyConnected: replay,
		PlatformOnline:   map[string]int64{},
	}

	user, err := s.repo.FindUser(ctx, socket.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	for platform, count := range user.PlatformOnline {
		dto.PlatformOnline[platform] = count
	}
	return dto, nil
}

func (s *service) logCtx(ctx context.Context, userID uuid.UUID, socketID, platform string) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	ctx = s.logg.WithSocketID(ctx, socketID)
	return s.logg.WithPlatform(ctx, platform)
}
