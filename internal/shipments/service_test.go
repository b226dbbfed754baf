package shipments

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
	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type testProductLoader struct {
	db *gorm.DB
}

func (l *testProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func setupShipmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:shipments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  farmer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'DRAFT',
  payment_status TEXT NOT NULL DEFAULT 'NOT_REQUIRED',
  payment_provider TEXT,
  payment_reference TEXT,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  shipping_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  refunded_amount NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'ILS',
  shipping_name TEXT,
  shipping_phone TEXT,
  shipping_line1 TEXT,
  shipping_line2 TEXT,
  shipping_city TEXT,
  shipping_region TEXT,
  shipping_postal_code TEXT,
  shipping_country TEXT,
  customer_notes TEXT,
  internal_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_subtotal NUMERIC NOT NULL,
  line_discount NUMERIC NOT NULL DEFAULT 0,
  line_total NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'PENDING',
  carrier_name TEXT,
  tracking_number TEXT,
  estimated_delivery_date DATETIME,
  shipped_at DATETIME,
  delivered_at DATETIME,
  recipient_name TEXT,
  address_line1 TEXT,
  address_line2 TEXT,
  city TEXT,
  region TEXT,
  postal_code TEXT,
  country TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS farmers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  farm_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'Israel',
  certifications TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'Israel',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type shipmentFixture struct {
	db        *gorm.DB
	orders    orders.Service
	shipments Service
}

func newShipmentFixture(t *testing.T) *shipmentFixture {
	t.Helper()

	db := setupShipmentTestDB(t)
	orderSvc, err := orders.NewService(orders.NewRepository(db), &testTxRunner{db: db}, inventory.NewLedger(), &testProductLoader{db: db}, "ILS")
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), orderSvc)
	require.NoError(t, err)
	return &shipmentFixture{db: db, orders: orderSvc, shipments: svc}
}

func strPtr(s string) *string { return &s }

func placeOrder(t *testing.T, f *shipmentFixture) *models.Order {
	t.Helper()

	product := &models.Product{
		ID:               uuid.New(),
		FarmerID:         uuid.New(),
		Name:             "Carrots 2kg",
		PricePerUnit:     decimal.RequireFromString("14.00"),
		Currency:         "ILS",
		StockQuantity:    decimal.NewFromInt(50),
		MinOrderQuantity: decimal.NewFromInt(1),
		IsActive:         true,
	}
	require.NoError(t, f.db.Create(product).Error)

	order, err := f.orders.Create(context.Background(), orders.CreateInput{
		CustomerID: uuid.New(),
		Items:      []orders.ItemInput{{ProductID: product.ID, Quantity: decimal.NewFromInt(2)}},
		Shipping: orders.ShippingAddress{
			Name:  strPtr("Dana Peretz"),
			Line1: strPtr("12 Hashaked St"),
			City:  strPtr("Pardes Hanna"),
		},
	})
	require.NoError(t, err)
	return order
}

func payOrder(t *testing.T, f *shipmentFixture, orderID uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	_, err := f.orders.UpdateStatus(ctx, orderID, enums.OrderStatusPendingPayment)
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, orderID, enums.OrderStatusPaid)
	require.NoError(t, err)
}

func TestCreateSnapshotsOrderAddress(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)

	shipment, err := f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentStatusPending, shipment.Status)
	require.NotNil(t, shipment.RecipientName)
	assert.Equal(t, "Dana Peretz", *shipment.RecipientName)
	require.NotNil(t, shipment.AddressLine1)
	assert.Equal(t, "12 Hashaked St", *shipment.AddressLine1)
}

func TestCreateRejectsSecondShipment(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)

	_, err := f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.NoError(t, err)

	_, err = f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateRejectsCancelledOrder(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)
	_, err := f.orders.Cancel(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestStatusLifecycleStampsTimestamps(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)
	payOrder(t, f, order.ID)

	shipment, err := f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.NoError(t, err)

	shipment, err = f.shipments.UpdateStatus(ctx, shipment.ID, enums.ShipmentStatusPacked)
	require.NoError(t, err)
	assert.Nil(t, shipment.ShippedAt)

	shipment, err = f.shipments.UpdateStatus(ctx, shipment.ID, enums.ShipmentStatusShipped)
	require.NoError(t, err)
	require.NotNil(t, shipment.ShippedAt)
	firstShipped := *shipment.ShippedAt

	shipment, err = f.shipments.UpdateStatus(ctx, shipment.ID, enums.ShipmentStatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, shipment.DeliveredAt)
	require.NotNil(t, shipment.ShippedAt)
	assert.Equal(t, firstShipped, *shipment.ShippedAt)

	// delivery fulfills the paid order
	reloaded, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFulfilled, reloaded.Status)
}

func TestStatusRejectsIllegalJump(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)

	shipment, err := f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.NoError(t, err)

	_, err = f.shipments.UpdateStatus(ctx, shipment.ID, enums.ShipmentStatusDelivered)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestShipOrderCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)
	payOrder(t, f, order.ID)

	shipment, err := f.shipments.ShipOrder(ctx, ShipOrderInput{
		OrderID:        order.ID,
		CarrierName:    strPtr("Israel Post"),
		TrackingNumber: strPtr("RR123456789IL"),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentStatusShipped, shipment.Status)
	require.NotNil(t, shipment.ShippedAt)
	require.NotNil(t, shipment.TrackingNumber)
	assert.Equal(t, "RR123456789IL", *shipment.TrackingNumber)

	found, err := f.shipments.GetByTracking(ctx, "RR123456789IL")
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, found.ID)
}

func TestShipOrderRequiresPaidOrder(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	order := placeOrder(t, f)

	_, err := f.shipments.ShipOrder(context.Background(), ShipOrderInput{OrderID: order.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCancelNotAllowedAfterDelivery(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)
	payOrder(t, f, order.ID)

	shipment, err := f.shipments.ShipOrder(ctx, ShipOrderInput{OrderID: order.ID})
	require.NoError(t, err)
	_, err = f.shipments.UpdateStatus(ctx, shipment.ID, enums.ShipmentStatusDelivered)
	require.NoError(t, err)

	_, err = f.shipments.Cancel(ctx, shipment.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestDeleteOnlyBeforeTransit(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)
	payOrder(t, f, order.ID)

	shipment, err := f.shipments.Create(ctx, CreateInput{OrderID: order.ID})
	require.NoError(t, err)
	require.NoError(t, f.shipments.Delete(ctx, shipment.ID))

	shipped, err := f.shipments.ShipOrder(ctx, ShipOrderInput{OrderID: order.ID})
	require.NoError(t, err)

	err = f.shipments.Delete(ctx, shipped.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestListFiltersByStatus(t *testing.T) {
	t.Parallel()

	f := newShipmentFixture(t)
	ctx := context.Background()

	first := placeOrder(t, f)
	payOrder(t, f, first.ID)
	_, err := f.shipments.ShipOrder(ctx, ShipOrderInput{OrderID: first.ID})
	require.NoError(t, err)

	second := placeOrder(t, f)
	payOrder(t, f, second.ID)
	_, err = f.shipments.Create(ctx, CreateInput{OrderID: second.ID})
	require.NoError(t, err)

	shippedOnly := enums.ShipmentStatusShipped
	shipped, err := f.shipments.List(ctx, ListFilter{Status: &shippedOnly})
	require.NoError(t, err)
	require.Len(t, shipped, 1)
	assert.Equal(t, first.ID, shipped[0].OrderID)

	all, err := f.shipments.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
