package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/pkg/db/models"
	"github.com/janmanch/janmanch-backend/pkg/pagination"
)

// ListFilter narrows the user listing.
type ListFilter struct {
	Search   string
	StateID  *uuid.UUID
	Platform string
	Page     pagination.Params
}

// Repository exposes user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user with civic references and live sockets attached.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("State").
		Preload("District").
		Preload("AssemblyConstituency").
		Preload("ParliamentaryConstituency").
		Preload("ActiveSockets").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByFirebaseID retrieves the user bound to the provider identity.
func (r *Repository) FindByFirebaseID(ctx context.Context, firebaseID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("State").
		Preload("District").
		Preload("AssemblyConstituency").
		Preload("ParliamentaryConstituency").
		Preload("ActiveSockets").
		Where("firebase_id = ?", firebaseID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByCredentials returns the users holding any of the supplied credentials.
// Blank credentials are skipped; an empty query returns no rows.
func (r *Repository) FindByCredentials(ctx context.Context, q CredentialQuery) ([]models.User, error) {
	if q.IsEmpty() {
		return nil, nil
	}

	conditions := []string{}
	args := []any{}
	if q.Phone != "" {
		conditions = append(conditions, "phone = ?")
		args = append(args, q.Phone)
	}
	if q.Email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, q.Email)
	}
	if q.VoterID != "" {
		conditions = append(conditions, "voter_id = ?")
		args = append(args, q.VoterID)
	}

	query := r.db.WithContext(ctx).
		Where(strings.Join(conditions, " OR "), args...)
	if q.ExcludeUserID != nil {
		query = query.Where("id <> ?", *q.ExcludeUserID)
	}
	if q.ExcludeFirebaseID != "" {
		query = query.Where("firebase_id <> ?", q.ExcludeFirebaseID)
	}

	var matches []models.User
	if err := query.Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

// Update persists the full user row.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete removes the user; sockets and sessions cascade at the database level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of users plus the unfiltered total for the query.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR phone LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.StateID != nil {
		query = query.Where("state_id = ?", *filter.StateID)
	}
	if filter.Platform != "" {
		query = query.Where(
			"id IN (SELECT user_id FROM user_sockets WHERE platform = ?)",
			filter.Platform,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filter.Page)
	var rows []models.User
	err := query.
		Preload("State").
		Preload("District").
		Preload("AssemblyConstituency").
		Preload("ParliamentaryConstituency").
		Preload("ActiveSockets").
		Order("created_at DESC").Order("id DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateGeoLocation records the latest raw geolocation capture for the user.
func (r *Repository) UpdateGeoLocation(ctx context.Context, id uuid.UUID, geoLocation, ip string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"geo_location":  geoLocation,
			"last_known_ip": ip,
		}).Error
}

// UpdateCivicRefs overwrites the resolved civic hierarchy references.
func (r *Repository) UpdateCivicRefs(ctx context.Context, id uuid.UUID, stateID, districtID, assemblyID, parliamentaryID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"state_id":                      stateID,
			"district_id":                   districtID,
			"assembly_constituency_id":      assemblyID,
			"parliamentary_constituency_id": parliamentaryID,
		}).Error
}
