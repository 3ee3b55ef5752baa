package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/janmanch/janmanch-backend/pkg/db/models"
)

// CivicRefDTO names one level of the civic hierarchy on a user payload.
type CivicRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// UserDTO is the transport shape for a user profile.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	FirebaseID    string     `json:"firebase_id"`
	Name          string     `json:"name"`
	Phone         *string    `json:"phone,omitempty"`
	Email         *string    `json:"email,omitempty"`
	VoterID       *string    `json:"voter_id,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        *string    `json:"gender,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`

	State                     *CivicRefDTO `json:"state,omitempty"`
	District                  *CivicRefDTO `json:"district,omitempty"`
	AssemblyConstituency      *CivicRefDTO `json:"assembly_constituency,omitempty"`
	ParliamentaryConstituency *CivicRefDTO `json:"parliamentary_constituency,omitempty"`

	GeoLocation    *string          `json:"geo_location,omitempty"`
	PlatformOnline map[string]int64 `json:"platform_online"`
	OnlineSockets  int              `json:"online_sockets"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required to register a new user.
type CreateUserDTO struct {
	FirebaseID  string
	Name        string
	Phone       *string
	Email       *string
	VoterID     *string
	DateOfBirth *time.Time
	Gender      *string
}

// UpdateUserDTO captures the allowed profile fields for mutation. Nil means
// leave the field unchanged.
type UpdateUserDTO struct {
	Name        *string
	Phone       *string
	Email       *string
	VoterID     *string
	DateOfBirth *time.Time
	Gender      *string
}

// CredentialQuery holds the identity credentials to match against existing
// accounts. Blank values are skipped; ExcludeUserID and ExcludeFirebaseID
// remove the caller's own row from consideration.
type CredentialQuery struct {
	Phone             string
	Email             string
	VoterID           string
	ExcludeUserID     *uuid.UUID
	ExcludeFirebaseID string
}

// IsEmpty reports whether no credential was supplied.
func (q CredentialQuery) IsEmpty() bool {
	return q.Phone == "" && q.Email == "" && q.VoterID == ""
}

// CredentialUsage reports which of the queried credentials are already bound
// to another account.
type CredentialUsage struct {
	PhoneInUse   bool `json:"phone_in_use"`
	EmailInUse   bool `json:"email_in_use"`
	VoterIDInUse bool `json:"voter_id_in_use"`
}

// Any reports whether at least one credential is taken.
func (u CredentialUsage) Any() bool {
	return u.PhoneInUse || u.EmailInUse || u.VoterIDInUse
}

func civicRef(id *uuid.UUID, name string) *CivicRefDTO {
	if id == nil {
		return nil
	}
	return &CivicRefDTO{ID: *id, Name: name}
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:            u.ID,
		FirebaseID:    u.FirebaseID,
		Name:          u.Name,
		Phone:         u.Phone,
		Email:         u.Email,
		VoterID:       u.VoterID,
		DateOfBirth:   u.DateOfBirth,
		Gender:        u.Gender,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		GeoLocation:   u.GeoLocation,
		OnlineSockets: len(u.ActiveSockets),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}

	dto.PlatformOnline = map[string]int64{}
	for platform, count := range u.PlatformOnline {
		dto.PlatformOnline[platform] = count
	}

	if u.State != nil {
		dto.State = civicRef(u.StateID, u.State.Name)
	}
	if u.District != nil {
		dto.District = civicRef(u.DistrictID, u.District.Name)
	}
	if u.AssemblyConstituency != nil {
		dto.AssemblyConstituency = civicRef(u.AssemblyConstituencyID, u.AssemblyConstituency.Name)
	}
	if u.ParliamentaryConstituency != nil {
		dto.ParliamentaryConstituency = civicRef(u.ParliamentaryConstituencyID, u.ParliamentaryConstituency.Name)
	}

	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		FirebaseID:  c.FirebaseID,
		Name:        c.Name,
		Phone:       cloneStringPtr(c.Phone),
		Email:       cloneStringPtr(c.Email),
		VoterID:     cloneStringPtr(c.VoterID),
		DateOfBirth: c.DateOfBirth,
		Gender:      cloneStringPtr(c.Gender),
	}
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
