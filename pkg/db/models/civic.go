package models

import (
	"time"

	"github.com/google/uuid"
)

// Civic hierarchy reference data, owned by the content pipeline and
// read-mostly here. An assembly constituency links upward to a district
// and a parliamentary constituency, and a district links to a state.

type State struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type District struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	StateID   uuid.UUID `gorm:"column:state_id;type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type ParliamentaryConstituency struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type AssemblyConstituency struct {
	ID                          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                        string    `gorm:"column:name;not null;index"`
	DistrictID                  uuid.UUID `gorm:"column:district_id;type:uuid;not null;index"`
	ParliamentaryConstituencyID uuid.UUID `gorm:"column:parliamentary_constituency_id;type:uuid;not null;index"`
	CreatedAt                   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
