package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession is an append-only record of a session start, kept for
// analytics. Rows are never updated and never deleted by this service.
// StateID is denormalized from the user's location at connection time.
type UserSession struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	SocketID    string     `gorm:"column:socket_id;not null"`
	Platform    string     `gorm:"column:platform;not null"`
	StateID     *uuid.UUID `gorm:"column:state_id"`
	ConnectedAt time.Time  `gorm:"column:connected_at;not null;index"`
}
