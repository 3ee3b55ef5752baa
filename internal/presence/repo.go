package presence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/pkg/db"
	"github.com/janmanch/janmanch-backend/pkg/db/models"
)

// Repository exposes presence persistence operations.
type Repository struct {
	client *db.Client
}

// NewRepository constructs a presence repo over the shared DB client. The
// full client is required because connect spans a transaction.
func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repository{client: client}, nil
}

// FindSocket loads a tracked socket by its gateway ID.
func (r *Repository) FindSocket(ctx context.Context, socketID string) (*models.UserSocket, error) {
	var socket models.UserSocket
	err := r.client.DB().WithContext(ctx).
		Where("socket_id = ?", socketID).
		First(&socket).Error
	if err != nil {
		return nil, err
	}
	return &socket, nil
}

// CreateSocketAndCount atomically inserts the socket row and bumps the
// user's cumulative per-platform connection counter.
func (r *Repository) CreateSocketAndCount(ctx context.Context, socket *models.UserSocket) error {
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(socket).Error; err != nil {
			return err
		}

		result := tx.Exec(
			`UPDATE users
			 SET platform_online = jsonb_set(
			         COALESCE(platform_online, '{}'::jsonb),
			         ARRAY[?],
			         to_jsonb(COALESCE((platform_online->>?)::bigint, 0) + 1)
			     ),
			     updated_at = now()
			 WHERE id = ?`,
			socket.Platform, socket.Platform, socket.UserID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteSocket removes the socket row; returns how many rows matched.
func (r *Repository) DeleteSocket(ctx context.Context, socketID string) (int64, error) {
	result := r.client.DB().WithContext(ctx).
		Delete(&models.UserSocket{}, "socket_id = ?", socketID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreateSession appends one session record.
func (r *Repository) CreateSession(ctx context.Context, session *models.UserSession) error {
	return r.client.DB().WithContext(ctx).Create(session).Error
}

// FindUser re-reads the user row, including the counters updated by connect.
func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.client.DB().WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
