package constituency

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/janmanch/janmanch-backend/pkg/db/models"
)

func setupCivicTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE assembly_constituencies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  district_id TEXT NOT NULL,
  parliamentary_constituency_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return conn
}

func seedAssembly(t *testing.T, conn *gorm.DB, name string) *models.AssemblyConstituency {
	t.Helper()
	ac := &models.AssemblyConstituency{
		ID:                          uuid.New(),
		Name:                        name,
		DistrictID:                  uuid.New(),
		ParliamentaryConstituencyID: uuid.New(),
	}
	require.NoError(t, conn.Create(ac).Error)
	return ac
}

func TestRepoFindAssemblyByCity(t *testing.T) {
	conn := setupCivicTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedAssembly(t, conn, "Mysuru Rural")
	want := seedAssembly(t, conn, "Bengaluru South")

	ac, err := repo.FindAssemblyByCity(ctx, "bengaluru")
	require.NoError(t, err, "match must ignore case")
	assert.Equal(t, want.ID, ac.ID)
}

func TestRepoFindAssemblyByCityOrdersByName(t *testing.T) {
	conn := setupCivicTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seedAssembly(t, conn, "Chennai South")
	first := seedAssembly(t, conn, "Chennai Central")

	ac, err := repo.FindAssemblyByCity(ctx, "Chennai")
	require.NoError(t, err)
	assert.Equal(t, first.ID, ac.ID, "ties resolve to the alphabetically first name")
}

func TestRepoFindAssemblyByCityNoMatch(t *testing.T) {
	conn := setupCivicTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.FindAssemblyByCity(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
