package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/inventory"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func setupProductTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  farmer_id TEXT NOT NULL,
  category_id TEXT,
  unit_label_id TEXT,
  name TEXT NOT NULL,
  description TEXT,
  unit_size NUMERIC NOT NULL DEFAULT 1,
  price_per_unit NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ILS',
  stock_quantity NUMERIC NOT NULL DEFAULT 0,
  min_order_quantity NUMERIC NOT NULL DEFAULT 1,
  max_order_quantity NUMERIC,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_organic INTEGER NOT NULL DEFAULT 0,
  available_from DATETIME,
  available_until DATETIME,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newProductService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), &testTxRunner{db: db}, inventory.NewLedger(), "ILS")
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, svc Service, name, price, stock string) *models.Product {
	t.Helper()

	created, err := svc.Create(context.Background(), CreateInput{
		FarmerID:      uuid.New(),
		Name:          name,
		PricePerUnit:  decimal.RequireFromString(price),
		StockQuantity: decimal.RequireFromString(stock),
	})
	require.NoError(t, err)
	return created
}

func TestCreateAppliesDefaults(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)

	created := seedProduct(t, svc, "Cherry Tomatoes", "12.50", "40")

	assert.Equal(t, "ILS", created.Currency)
	assert.True(t, created.IsActive)
	assert.True(t, created.UnitSize.Equal(decimal.NewFromInt(1)))
	assert.True(t, created.MinOrderQuantity.Equal(decimal.NewFromInt(1)))
	assert.Nil(t, created.MaxOrderQuantity)
}

func TestCreateRejectsBadBounds(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	minQty := decimal.NewFromInt(5)
	maxQty := decimal.NewFromInt(2)
	_, err := svc.Create(ctx, CreateInput{
		FarmerID:         uuid.New(),
		Name:             "Olive Oil",
		PricePerUnit:     decimal.RequireFromString("55.00"),
		MinOrderQuantity: &minQty,
		MaxOrderQuantity: &maxQty,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{
		FarmerID:     uuid.New(),
		Name:         "Olive Oil",
		PricePerUnit: decimal.RequireFromString("-1.00"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetUnknownProduct(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	cheap := seedProduct(t, svc, "Cucumbers", "4.00", "100")
	seedProduct(t, svc, "Goat Cheese", "32.00", "15")

	maxPrice := decimal.RequireFromString("10.00")
	listed, err := svc.List(ctx, ListFilter{MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, cheap.ID, listed[0].ID)

	bySearch, err := svc.List(ctx, ListFilter{Search: "cheese"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Goat Cheese", bySearch[0].Name)
}

func TestListFiltersByFarmer(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	mine := seedProduct(t, svc, "Honey", "45.00", "20")
	seedProduct(t, svc, "Dates", "28.00", "60")

	listed, err := svc.List(ctx, ListFilter{FarmerID: &mine.FarmerID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)
}

func TestUpdatePartialEdit(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	created := seedProduct(t, svc, "Basil", "6.00", "30")

	newPrice := decimal.RequireFromString("7.50")
	inactive := false
	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		PricePerUnit: &newPrice,
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	assert.True(t, updated.PricePerUnit.Equal(newPrice))
	assert.False(t, updated.IsActive)
	// untouched fields survive
	assert.Equal(t, "Basil", updated.Name)
	assert.True(t, updated.StockQuantity.Equal(decimal.NewFromInt(30)))
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)

	created := seedProduct(t, svc, "Basil", "6.00", "30")

	empty := ""
	_, err := svc.Update(context.Background(), created.ID, UpdateInput{Name: &empty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAdjustStock(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	created := seedProduct(t, svc, "Figs", "18.00", "10")

	bumped, err := svc.AdjustStock(ctx, created.ID, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, bumped.StockQuantity.Equal(decimal.NewFromInt(15)))

	lowered, err := svc.AdjustStock(ctx, created.ID, decimal.NewFromInt(-15))
	require.NoError(t, err)
	assert.True(t, lowered.StockQuantity.Equal(decimal.Zero))
}

func TestAdjustStockCannotGoNegative(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	created := seedProduct(t, svc, "Figs", "18.00", "10")

	_, err := svc.AdjustStock(ctx, created.ID, decimal.NewFromInt(-11))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// the failed adjustment left stock untouched
	reloaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.StockQuantity.Equal(decimal.NewFromInt(10)))
}

func TestListLowStock(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	low := seedProduct(t, svc, "Eggs", "24.00", "3")
	seedProduct(t, svc, "Milk", "8.00", "50")

	flagged, err := svc.ListLowStock(ctx, decimal.NewFromInt(5))
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, low.ID, flagged[0].ID)

	_, err = svc.ListLowStock(ctx, decimal.Zero)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	db := setupProductTestDB(t)
	svc := newProductService(t, db)
	ctx := context.Background()

	created := seedProduct(t, svc, "Zaatar", "14.00", "25")
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err := svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
