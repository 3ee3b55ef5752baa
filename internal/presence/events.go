package presence

import (
	"time"

	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/pkg/enums"
)

// Event is the wire envelope arriving on the presence topic from the socket
// gateway. EventID drives consumer idempotency.
type Event struct {
	EventID    uuid.UUID               `json:"event_id"`
	Type       enums.PresenceEventType `json:"type"`
	UserID     uuid.UUID               `json:"user_id"`
	SocketID   string                  `json:"socket_id"`
	Platform   string                  `json:"platform"`
	OccurredAt time.Time               `json:"occurred_at"`
}
