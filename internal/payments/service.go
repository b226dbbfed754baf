package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/paypal"
)

// approvedCaptureStatus is PayPal's terminal status for a successful capture.
const approvedCaptureStatus = "COMPLETED"

// provider is the slice of the PayPal wrapper the service needs.
type provider interface {
	CreateOrder(ctx context.Context, params paypal.OrderParams) (*paypal.OrderResult, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (*paypal.CaptureResult, error)
	GetOrder(ctx context.Context, providerOrderID string) (*paypal.OrderDetails, error)
	RefundCapture(ctx context.Context, captureID string, amount *decimal.Decimal, currency string) (*paypal.RefundResult, error)
}

// orderService is the slice of the order service the payment flow needs.
type orderService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, update orders.PaymentUpdate) (*models.Order, error)
}

// InitiateResult is what the storefront needs to send the buyer to PayPal.
type InitiateResult struct {
	OrderID         uuid.UUID
	ProviderOrderID string
	ApprovalURL     string
}

// RefundInput requests a refund against a captured order payment. A nil
// Amount refunds everything not yet refunded.
type RefundInput struct {
	OrderID uuid.UUID
	Amount  *decimal.Decimal
}

// Service drives the payment lifecycle of an order.
type Service interface {
	Initiate(ctx context.Context, orderID uuid.UUID) (*InitiateResult, error)
	Complete(ctx context.Context, providerOrderID string) (*models.Order, error)
	Refund(ctx context.Context, input RefundInput) (*models.Order, error)
	Details(ctx context.Context, orderID uuid.UUID) (*paypal.OrderDetails, error)
}

type service struct {
	repo     Repository
	orders   orderService
	provider provider
	cfg      config.PayPalConfig
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, orderSvc orderService, pp provider, cfg config.PayPalConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if pp == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	return &service{repo: repo, orders: orderSvc, provider: pp, cfg: cfg}, nil
}

// Initiate creates the provider-side order and records the correlation
// row before anything is shown to the buyer. The order moves to
// PENDING_PAYMENT only after the provider accepted the create. A second
// call before capture mints a fresh provider intent; the newest pending
// row wins.
func (s *service) Initiate(ctx context.Context, orderID uuid.UUID) (*InitiateResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDraft && order.Status != enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment can only be initiated before the order is paid").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.PaymentStatus == enums.PaymentStatusCaptured {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order payment is already captured")
	}
	if order.PaymentStatus == enums.PaymentStatusNotRequired || !order.TotalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not require payment")
	}

	created, err := s.provider.CreateOrder(ctx, paypal.OrderParams{
		ReferenceID: order.ID.String(),
		CustomID:    order.ID.String(),
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Description: fmt.Sprintf("Order %s", order.ID),
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Create(ctx, &models.PendingPayment{
		ProviderPaymentID: created.ProviderOrderID,
		OrderID:           order.ID,
		Provider:          enums.PaymentProviderPayPal,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pending payment")
	}

	pp := enums.PaymentProviderPayPal
	pending := enums.PaymentStatusPending
	if _, err := s.orders.UpdatePayment(ctx, order.ID, orders.PaymentUpdate{
		Status:    &pending,
		Provider:  &pp,
		Reference: &created.ProviderOrderID,
	}); err != nil {
		return nil, err
	}
	if _, err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusPendingPayment); err != nil {
		return nil, err
	}

	return &InitiateResult{
		OrderID:         order.ID,
		ProviderOrderID: created.ProviderOrderID,
		ApprovalURL:     created.ApprovalURL,
	}, nil
}

// Complete captures an approved provider order and marks the correlated
// order paid. The order is resolved through the pending payment row, not
// through identifiers supplied by the caller.
func (s *service) Complete(ctx context.Context, providerOrderID string) (*models.Order, error) {
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id required")
	}

	pending, err := s.repo.FindByProviderPaymentID(ctx, providerOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending payment for provider order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	if pending.ConsumedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already completed").
			WithDetails(map[string]any{"order_id": pending.OrderID})
	}

	order, err := s.orders.Get(ctx, pending.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]any{"status": order.Status})
	}

	// the payment status is left untouched on a provider failure so the
	// buyer can retry the capture
	capture, err := s.provider.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		return nil, err
	}
	if capture.Status != approvedCaptureStatus {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment capture did not complete").
			WithDetails(map[string]any{"provider_status": capture.Status})
	}

	captured := enums.PaymentStatusCaptured
	if _, err := s.orders.UpdatePayment(ctx, order.ID, orders.PaymentUpdate{
		Status:    &captured,
		Reference: &capture.CaptureID,
	}); err != nil {
		return nil, err
	}
	if _, err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
		return nil, err
	}
	if err := s.repo.MarkConsumed(ctx, pending.ID, time.Now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume pending payment")
	}

	return s.orders.Get(ctx, order.ID)
}

// Refund sends money back against the captured payment and accumulates
// refunded_amount on the order. Partial refunds leave the payment status
// at PARTIALLY_REFUNDED until the full total is returned.
func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Order, error) {
	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid && order.Status != enums.OrderStatusFulfilled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order payment cannot be refunded").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.PaymentStatus != enums.PaymentStatusCaptured && order.PaymentStatus != enums.PaymentStatusPartiallyRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no captured payment to refund").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus})
	}
	if order.PaymentProvider == nil || *order.PaymentProvider != enums.PaymentProviderPayPal {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order was not paid through PayPal").
			WithDetails(map[string]any{"payment_provider": order.PaymentProvider})
	}
	if order.PaymentReference == nil || *order.PaymentReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no capture reference")
	}

	remaining := order.TotalAmount.Sub(order.RefundedAmount)
	amount := remaining
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if amount.GreaterThan(remaining) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds refundable balance").
			WithDetails(map[string]any{"requested": amount, "refundable": remaining})
	}

	if _, err := s.provider.RefundCapture(ctx, *order.PaymentReference, &amount, order.Currency); err != nil {
		return nil, err
	}

	refunded := order.RefundedAmount.Add(amount)
	status := enums.PaymentStatusPartiallyRefunded
	if refunded.GreaterThanOrEqual(order.TotalAmount) {
		status = enums.PaymentStatusRefunded
	}
	return s.orders.UpdatePayment(ctx, order.ID, orders.PaymentUpdate{
		Status:         &status,
		RefundedAmount: &refunded,
	})
}

// Details reads the provider-side state of the latest payment attempt.
func (s *service) Details(ctx context.Context, orderID uuid.UUID) (*paypal.OrderDetails, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}

	pending, err := s.repo.FindLatestByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no payment attempts")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	return s.provider.GetOrder(ctx, pending.ProviderPaymentID)
}
