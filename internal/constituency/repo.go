package constituency

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/pkg/db/models"
)

// Repository exposes read access to the civic hierarchy reference data.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a civic repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAssemblyByCity returns the first assembly constituency whose name
// contains the city, case-insensitively. Name ordering keeps the match
// deterministic when several constituencies share a city name.
func (r *Repository) FindAssemblyByCity(ctx context.Context, city string) (*models.AssemblyConstituency, error) {
	var ac models.AssemblyConstituency
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?)", "%"+city+"%").
		Order("name ASC").
		First(&ac).Error
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

// FindDistrictByID loads one district.
func (r *Repository) FindDistrictByID(ctx context.Context, id uuid.UUID) (*models.District, error) {
	var district models.District
	if err := r.db.WithContext(ctx).First(&district, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &district, nil
}

// FindStateByID loads one state.
func (r *Repository) FindStateByID(ctx context.Context, id uuid.UUID) (*models.State, error) {
	var state models.State
	if err := r.db.WithContext(ctx).First(&state, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// FindParliamentaryByID loads one parliamentary constituency.
func (r *Repository) FindParliamentaryByID(ctx context.Context, id uuid.UUID) (*models.ParliamentaryConstituency, error) {
	var pc models.ParliamentaryConstituency
	if err := r.db.WithContext(ctx).First(&pc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pc, nil
}
