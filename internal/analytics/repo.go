package analytics

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository runs aggregation queries over the presence and user tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an analytics repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OnlinePlatformCounts returns distinct connected users per platform from
// the live socket rows.
func (r *Repository) OnlinePlatformCounts(ctx context.Context, stateID *uuid.UUID) ([]PlatformCountDTO, error) {
	query := r.db.WithContext(ctx).
		Table("user_sockets").
		Select("user_sockets.platform AS platform, COUNT(DISTINCT user_sockets.user_id) AS users")
	if stateID != nil {
		query = query.
			Joins("JOIN users ON users.id = user_sockets.user_id").
			Where("users.state_id = ?", *stateID)
	}

	rows := []PlatformCountDTO{}
	err := query.
		Group("user_sockets.platform").
		Order("user_sockets.platform ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SessionCounts groups session records by the given to_char date pattern.
func (r *Repository) SessionCounts(ctx context.Context, stateID *uuid.UUID, pattern string) ([]BucketCountDTO, error) {
	query := r.db.WithContext(ctx).
		Table("user_sessions").
		Select("to_char(connected_at, ?) AS bucket, COUNT(*) AS count", pattern)
	if stateID != nil {
		query = query.Where("state_id = ?", *stateID)
	}

	rows := []BucketCountDTO{}
	err := query.
		Group("bucket").
		Order("bucket ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RegistrationCounts groups users by creation date using the given to_char
// pattern.
func (r *Repository) RegistrationCounts(ctx context.Context, stateID *uuid.UUID, pattern string) ([]BucketCountDTO, error) {
	query := r.db.WithContext(ctx).
		Table("users").
		Select("to_char(created_at, ?) AS bucket, COUNT(*) AS count", pattern)
	if stateID != nil {
		query = query.Where("state_id = ?", *stateID)
	}

	rows := []BucketCountDTO{}
	err := query.
		Group("bucket").
		Order("bucket ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
