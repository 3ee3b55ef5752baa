package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/pkg/enums"
)

// SessionEvent is the wire envelope published to the analytics topic when a
// user session starts. EventID drives consumer idempotency.
type SessionEvent struct {
	EventID     uuid.UUID                `json:"event_id"`
	Type        enums.AnalyticsEventType `json:"type"`
	UserID      uuid.UUID                `json:"user_id"`
	SocketID    string                   `json:"socket_id"`
	Platform    string                   `json:"platform"`
	StateID     *uuid.UUID               `json:"state_id,omitempty"`
	ConnectedAt time.Time                `json:"connected_at"`
}
