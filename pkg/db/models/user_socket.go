package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSocket is one live transport connection held by a user.
type UserSocket struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	SocketID    string    `gorm:"column:socket_id;not null;uniqueIndex"`
	Platform    string    `gorm:"column:platform;not null"`
	ConnectedAt time.Time `gorm:"column:connected_at;not null"`
}
