package farmers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func setupFarmerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:farmers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS farmers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  farm_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  phone TEXT,
  address_line1 TEXT,
  address_line2 TEXT,
  city TEXT,
  region TEXT,
  postal_code TEXT,
  country TEXT NOT NULL DEFAULT 'Israel',
  description TEXT,
  farm_type TEXT,
  farm_size_acres NUMERIC,
  established_year INTEGER,
  certifications TEXT,
  website_url TEXT,
  business_hours TEXT,
  profile_image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newFarmerService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), testPasswordConfig, "Israel")
	require.NoError(t, err)
	return svc
}

func registerFarmer(t *testing.T, svc Service, name, email string) *uuid.UUID {
	t.Helper()

	created, err := svc.Register(context.Background(), RegisterInput{
		Name:     name,
		FarmName: name + " Farm",
		Email:    email,
		Password: "a-solid-password",
	})
	require.NoError(t, err)
	return &created.ID
}

func TestRegisterHashesPasswordAndDefaultsCountry(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)

	created, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Yael Golan",
		FarmName:       "Golan Orchards",
		Email:          "Yael@GolanOrchards.example",
		Password:       "a-solid-password",
		Certifications: []string{"organic", "global-gap"},
	})
	require.NoError(t, err)

	assert.Equal(t, "yael@golanorchards.example", created.Email)
	assert.Equal(t, "Israel", created.Country)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "a-solid-password", created.PasswordHash)

	ok, err := security.VerifyPassword("a-solid-password", created.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)

	registerFarmer(t, svc, "Yael", "yael@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Impostor",
		FarmName: "Copy Farm",
		Email:    "YAEL@example.com",
		Password: "another-password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Yael",
		FarmName: "Golan Orchards",
		Email:    "yael@example.com",
		Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetByEmailIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)

	id := registerFarmer(t, svc, "Amir", "amir@negevdates.example")

	found, err := svc.GetByEmail(context.Background(), "Amir@NegevDates.example")
	require.NoError(t, err)
	assert.Equal(t, *id, found.ID)
}

func TestListFiltersActiveAndSearch(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)
	ctx := context.Background()

	kept := registerFarmer(t, svc, "Amir Dayan", "amir@example.com")
	retired := registerFarmer(t, svc, "Rina Mor", "rina@example.com")
	require.NoError(t, svc.Deactivate(ctx, *retired))

	active, err := svc.List(ctx, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, *kept, active[0].ID)

	byName, err := svc.List(ctx, ListFilter{Search: "rina"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, *retired, byName[0].ID)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)
	ctx := context.Background()

	id := registerFarmer(t, svc, "Amir", "amir@example.com")

	farmType := "orchard"
	year := 1998
	updated, err := svc.Update(ctx, *id, UpdateInput{
		FarmType:        &farmType,
		EstablishedYear: &year,
		Certifications:  []string{"organic"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.FarmType)
	assert.Equal(t, "orchard", *updated.FarmType)
	require.NotNil(t, updated.EstablishedYear)
	assert.Equal(t, 1998, *updated.EstablishedYear)
	assert.Equal(t, []string{"organic"}, []string(updated.Certifications))
}

func TestUpdateRejectsEmptyFarmName(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)

	id := registerFarmer(t, svc, "Amir", "amir@example.com")

	empty := ""
	_, err := svc.Update(context.Background(), *id, UpdateInput{FarmName: &empty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeactivateKeepsProfile(t *testing.T) {
	t.Parallel()

	db := setupFarmerTestDB(t)
	svc := newFarmerService(t, db)
	ctx := context.Background()

	id := registerFarmer(t, svc, "Amir", "amir@example.com")
	require.NoError(t, svc.Deactivate(ctx, *id))

	reloaded, err := svc.Get(ctx, *id)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}
