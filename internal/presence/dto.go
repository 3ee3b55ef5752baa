package presence

import (
	"time"

	"github.com/google/uuid"
)

// ConnectInput identifies one socket connection being opened.
type ConnectInput struct {
	UserID   uuid.UUID
	SocketID string
	Platform string
}

// ConnectionDTO is the presence state returned after a connect.
type ConnectionDTO struct {
	UserID           uuid.UUID        `json:"user_id"`
	SocketID         string           `json:"socket_id"`
	Platform         string           `json:"platform"`
	ConnectedAt      time.Time        `json:"connected_at"`
	AlreadyConnected bool             `json:"already_connected"`
	PlatformOnline   map[string]int64 `json:"platform_online"`
}
