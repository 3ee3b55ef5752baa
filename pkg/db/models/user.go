package models

import (
	"time"

	dbtypes "github.com/janmanch/janmanch-backend/pkg/db/types"
	"github.com/google/uuid"
)

// User represents the canonical identity entity.
//
// firebase_id is the opaque external identity-provider ID; it is unique and
// immutable after creation. Phone, email and voter ID each carry a partial
// unique index (non-empty values only) so the database is the final
// authority on credential collisions, not the application pre-check.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirebaseID string    `gorm:"column:firebase_id;not null;uniqueIndex"`

	Name        string     `gorm:"column:name"`
	Phone       *string    `gorm:"column:phone"`
	Email       *string    `gorm:"column:email"`
	VoterID     *string    `gorm:"column:voter_id"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth"`
	Gender      *string    `gorm:"column:gender"`

	EmailVerified bool `gorm:"column:email_verified;not null;default:false"`
	PhoneVerified bool `gorm:"column:phone_verified;not null;default:false"`

	StateID                     *uuid.UUID `gorm:"column:state_id"`
	DistrictID                  *uuid.UUID `gorm:"column:district_id"`
	AssemblyConstituencyID      *uuid.UUID `gorm:"column:assembly_constituency_id"`
	ParliamentaryConstituencyID *uuid.UUID `gorm:"column:parliamentary_constituency_id"`

	// Raw geo-IP capture, written before (and independently of) civic resolution.
	GeoLocation *string `gorm:"column:geo_location"`
	LastKnownIP *string `gorm:"column:last_known_ip"`

	// Cumulative connection totals per platform. Live online counts are
	// derived from user_sockets, not from this map.
	PlatformOnline dbtypes.PlatformCounters `gorm:"type:jsonb;column:platform_online;not null;default:'{}'"`

	State                     *State                     `gorm:"foreignKey:StateID"`
	District                  *District                  `gorm:"foreignKey:DistrictID"`
	AssemblyConstituency      *AssemblyConstituency      `gorm:"foreignKey:AssemblyConstituencyID"`
	ParliamentaryConstituency *ParliamentaryConstituency `gorm:"foreignKey:ParliamentaryConstituencyID"`

	ActiveSockets []UserSocket `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
