package payments

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/inventory"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/paypal"
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

type refundCall struct {
	captureID string
	amount    decimal.Decimal
	currency  string
}

type stubProvider struct {
	createCount   int
	captureStatus string
	createErr     error
	captureErr    error
	refunds       []refundCall
	lastParams    paypal.OrderParams
}

func (p *stubProvider) CreateOrder(_ context.Context, params paypal.OrderParams) (*paypal.OrderResult, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.createCount++
	p.lastParams = params
	id := fmt.Sprintf("PP-ORDER-%d", p.createCount)
	return &paypal.OrderResult{
		ProviderOrderID: id,
		Status:          "CREATED",
		ApprovalURL:     "https://www.sandbox.paypal.com/checkoutnow?token=" + id,
	}, nil
}

func (p *stubProvider) CaptureOrder(_ context.Context, providerOrderID string) (*paypal.CaptureResult, error) {
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	status := p.captureStatus
	if status == "" {
		status = "COMPLETED"
	}
	return &paypal.CaptureResult{
		ProviderOrderID: providerOrderID,
		CaptureID:       "CAP-" + providerOrderID,
		Status:          status,
	}, nil
}

func (p *stubProvider) GetOrder(_ context.Context, providerOrderID string) (*paypal.OrderDetails, error) {
	return &paypal.OrderDetails{ProviderOrderID: providerOrderID, Status: "APPROVED", Intent: "CAPTURE"}, nil
}

func (p *stubProvider) RefundCapture(_ context.Context, captureID string, amount *decimal.Decimal, currency string) (*paypal.RefundResult, error) {
	call := refundCall{captureID: captureID, currency: currency}
	if amount != nil {
		call.amount = *amount
	}
	p.refunds = append(p.refunds, call)
	return &paypal.RefundResult{RefundID: "REF-" + captureID, Status: "COMPLETED"}, nil
}

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
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
CREATE TABLE IF NOT EXISTS pending_payments (
  id TEXT PRIMARY KEY,
  provider_payment_id TEXT NOT NULL UNIQUE,
  order_id TEXT NOT NULL,
  provider TEXT NOT NULL,
  consumed_at DATETIME,
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

type paymentFixture struct {
	db       *gorm.DB
	provider *stubProvider
	orders   orders.Service
	payments Service
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db := setupPaymentTestDB(t)
	provider := &stubProvider{}
	orderSvc, err := orders.NewService(orders.NewRepository(db), &testTxRunner{db: db}, inventory.NewLedger(), &testProductLoader{db: db}, "ILS")
	require.NoError(t, err)

	cfg := config.PayPalConfig{
		ReturnURL: "https://shop.example/paypal/return",
		CancelURL: "https://shop.example/paypal/cancel",
	}
	svc, err := NewService(NewRepository(db), orderSvc, provider, cfg)
	require.NoError(t, err)

	return &paymentFixture{db: db, provider: provider, orders: orderSvc, payments: svc}
}

func placeDraftOrder(t *testing.T, f *paymentFixture, total string) *models.Order {
	t.Helper()

	product := &models.Product{
		ID:               uuid.New(),
		FarmerID:         uuid.New(),
		Name:             "Dates 1kg",
		PricePerUnit:     decimal.RequireFromString(total),
		Currency:         "ILS",
		StockQuantity:    decimal.NewFromInt(100),
		MinOrderQuantity: decimal.NewFromInt(1),
		IsActive:         true,
	}
	require.NoError(t, f.db.Create(product).Error)

	order, err := f.orders.Create(context.Background(), orders.CreateInput{
		CustomerID: uuid.New(),
		Items:      []orders.ItemInput{{ProductID: product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	return order
}

func TestInitiateMovesOrderToPendingPayment(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "120.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "PP-ORDER-1", result.ProviderOrderID)
	assert.Contains(t, result.ApprovalURL, "PP-ORDER-1")
	assert.Equal(t, order.ID.String(), f.provider.lastParams.CustomID)
	assert.Equal(t, "https://shop.example/paypal/return", f.provider.lastParams.ReturnURL)
	assert.True(t, f.provider.lastParams.Amount.Equal(decimal.RequireFromString("120.00")))

	reloaded, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, reloaded.Status)
	assert.Equal(t, enums.PaymentStatusPending, reloaded.PaymentStatus)
	require.NotNil(t, reloaded.PaymentProvider)
	assert.Equal(t, enums.PaymentProviderPayPal, *reloaded.PaymentProvider)
	require.NotNil(t, reloaded.PaymentReference)
	assert.Equal(t, "PP-ORDER-1", *reloaded.PaymentReference)

	var pending models.PendingPayment
	require.NoError(t, f.db.First(&pending, "provider_payment_id = ?", "PP-ORDER-1").Error)
	assert.Equal(t, order.ID, pending.OrderID)
	assert.Nil(t, pending.ConsumedAt)
}

func TestInitiateRetryMintsFreshProviderOrder(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "50.00")

	first, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)

	// buyer abandoned the approval page; a retry gets a new intent
	second, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ProviderOrderID, second.ProviderOrderID)

	paid, err := f.payments.Complete(ctx, second.ProviderOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
}

func TestInitiateRejectsCapturedOrder(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "50.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.NoError(t, err)

	_, err = f.payments.Initiate(ctx, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCompleteCapturesAndConsumesPending(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "75.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)

	paid, err := f.payments.Complete(ctx, result.ProviderOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
	assert.Equal(t, enums.PaymentStatusCaptured, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentReference)
	assert.Equal(t, "CAP-"+result.ProviderOrderID, *paid.PaymentReference)

	var pending models.PendingPayment
	require.NoError(t, f.db.First(&pending, "provider_payment_id = ?", result.ProviderOrderID).Error)
	require.NotNil(t, pending.ConsumedAt)

	// a second completion for the same provider order is refused
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCompleteUnknownProviderOrder(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)

	_, err := f.payments.Complete(context.Background(), "PP-ORDER-UNKNOWN")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCompleteRejectsIncompleteCapture(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "75.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)

	f.provider.captureStatus = "PENDING"
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	// the pending row stays open so a retried capture can still land
	var pending models.PendingPayment
	require.NoError(t, f.db.First(&pending, "provider_payment_id = ?", result.ProviderOrderID).Error)
	assert.Nil(t, pending.ConsumedAt)
}

func TestRefundAccumulatesAcrossPartials(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "100.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.NoError(t, err)

	first := decimal.RequireFromString("30.00")
	refunded, err := f.payments.Refund(ctx, RefundInput{OrderID: order.ID, Amount: &first})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPartiallyRefunded, refunded.PaymentStatus)
	assert.True(t, refunded.RefundedAmount.Equal(first))

	// nil amount refunds the remaining balance
	refunded, err = f.payments.Refund(ctx, RefundInput{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
	assert.True(t, refunded.RefundedAmount.Equal(decimal.RequireFromString("100.00")))

	require.Len(t, f.provider.refunds, 2)
	assert.True(t, f.provider.refunds[1].amount.Equal(decimal.RequireFromString("70.00")))
	assert.Equal(t, "ILS", f.provider.refunds[1].currency)
}

func TestRefundRejectsOverdraw(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "40.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.NoError(t, err)

	tooMuch := decimal.RequireFromString("45.00")
	_, err = f.payments.Refund(ctx, RefundInput{OrderID: order.ID, Amount: &tooMuch})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRefundRequiresCapturedPayment(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "40.00")

	_, err := f.payments.Refund(ctx, RefundInput{OrderID: order.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRefundRejectsNonPayPalPayment(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "60.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.NoError(t, err)

	// a capture recorded under another provider cannot be refunded here
	require.NoError(t, f.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("payment_provider", enums.PaymentProviderStripe).Error)

	_, err = f.payments.Refund(ctx, RefundInput{OrderID: order.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Empty(t, f.provider.refunds)
}

func TestCompleteCaptureErrorLeavesPaymentPending(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "75.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)

	f.provider.captureErr = fmt.Errorf("paypal: gateway timeout")
	_, err = f.payments.Complete(ctx, result.ProviderOrderID)
	require.Error(t, err)

	// the order is untouched so the buyer can retry the capture
	reloaded, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingPayment, reloaded.Status)
	assert.Equal(t, enums.PaymentStatusPending, reloaded.PaymentStatus)

	f.provider.captureErr = nil
	paid, err := f.payments.Complete(ctx, result.ProviderOrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, paid.Status)
}

func TestDetailsReadsThroughLatestAttempt(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	ctx := context.Background()
	order := placeDraftOrder(t, f, "40.00")

	result, err := f.payments.Initiate(ctx, order.ID)
	require.NoError(t, err)

	details, err := f.payments.Details(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ProviderOrderID, details.ProviderOrderID)

	_, err = f.payments.Details(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
