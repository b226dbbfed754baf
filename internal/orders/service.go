package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/inventory"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// orderTransitions is the authoritative lifecycle table. A status absent
// from the target list cannot be reached from the key status.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusDraft:          {enums.OrderStatusPendingPayment, enums.OrderStatusCancelled},
	enums.OrderStatusPendingPayment: {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:           {enums.OrderStatusFulfilled, enums.OrderStatusCancelled},
	enums.OrderStatusFulfilled:      {},
	enums.OrderStatusCancelled:      {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range orderTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ShippingAddress is the flat delivery snapshot stored on the order.
type ShippingAddress struct {
	Name       *string
	Phone      *string
	Line1      *string
	Line2      *string
	City       *string
	Region     *string
	PostalCode *string
	Country    *string
}

// ItemInput is one requested order line. UnitPrice overrides the live
// catalog price when set; cart conversion uses it to honor the price
// snapshotted at add-to-cart time.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// CreateInput carries a new order request.
type CreateInput struct {
	CustomerID     uuid.UUID
	Items          []ItemInput
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       string
	Shipping       ShippingAddress
	CustomerNotes  *string
}

// UpdateInput carries a partial order edit. Nil fields are untouched.
// Changing shipping or discount amounts recomputes the order total.
type UpdateInput struct {
	ShippingAmount *decimal.Decimal
	DiscountAmount *decimal.Decimal
	Shipping       *ShippingAddress
	CustomerNotes  *string
	InternalNotes  *string
}

// PaymentUpdate patches the payment columns of an order. It never moves
// the order status; use UpdateStatus for that.
type PaymentUpdate struct {
	Status         *enums.PaymentStatus
	Provider       *enums.PaymentProvider
	Reference      *string
	RefundedAmount *decimal.Decimal
}

// Service defines order operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Order, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, update PaymentUpdate) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo            Repository
	tx              txRunner
	ledger          inventory.Ledger
	products        productLoader
	defaultCurrency string
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, ledger inventory.Ledger, products productLoader, defaultCurrency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if defaultCurrency == "" {
		defaultCurrency = "ILS"
	}
	return &service{repo: repo, tx: tx, ledger: ledger, products: products, defaultCurrency: defaultCurrency}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, terr := s.CreateInTx(ctx, tx, input)
		if terr != nil {
			return terr
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, created.ID)
}

// CreateInTx places an order inside a caller-owned transaction: it
// snapshots the lines, reserves stock for each of them, and inserts the
// aggregate. Any failure rolls the whole reservation back with the tx.
func (s *service) CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if input.ShippingAmount.IsNegative() || input.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	order := &models.Order{
		CustomerID:      input.CustomerID,
		Status:          enums.OrderStatusDraft,
		PaymentStatus:   enums.PaymentStatusPending,
		ShippingAmount:  input.ShippingAmount,
		DiscountAmount:  input.DiscountAmount,
		Currency:        input.Currency,
		ShippingName:    input.Shipping.Name,
		ShippingPhone:   input.Shipping.Phone,
		ShippingLine1:   input.Shipping.Line1,
		ShippingLine2:   input.Shipping.Line2,
		ShippingCity:    input.Shipping.City,
		ShippingRegion:  input.Shipping.Region,
		ShippingPostal:  input.Shipping.PostalCode,
		ShippingCountry: input.Shipping.Country,
		CustomerNotes:   input.CustomerNotes,
	}
	if order.Currency == "" {
		order.Currency = s.defaultCurrency
	}

	subtotal := decimal.Zero
	farmerID := uuid.Nil
	for _, item := range input.Items {
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}

		product, perr := s.products.FindByID(ctx, item.ProductID)
		if perr != nil {
			if perr == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, perr, "load product")
		}

		if farmerID == uuid.Nil {
			farmerID = product.FarmerID
		} else if farmerID != product.FarmerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items must belong to a single farmer")
		}

		if rerr := s.ledger.Reserve(ctx, tx, product.ID, item.Quantity); rerr != nil {
			return nil, rerr
		}

		unitPrice := product.PricePerUnit
		if item.UnitPrice != nil {
			if item.UnitPrice.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
			}
			unitPrice = *item.UnitPrice
		}

		lineSubtotal := item.Quantity.Mul(unitPrice).Round(2)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     item.Quantity,
			UnitPrice:    unitPrice,
			LineSubtotal: lineSubtotal,
			LineDiscount: decimal.Zero,
			LineTotal:    lineSubtotal,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}

	order.FarmerID = farmerID
	order.Subtotal = subtotal
	order.TotalAmount = subtotal.Add(order.ShippingAmount).Sub(order.DiscountAmount)
	if order.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
	}
	if order.TotalAmount.IsZero() {
		order.PaymentStatus = enums.PaymentStatusNotRequired
	}

	created, err := s.repo.WithTx(tx).Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		return order, nil
	}
	if !CanTransition(order.Status, next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": next})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if next == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if rerr := s.ledger.Restore(ctx, tx, item.ProductID, item.Quantity); rerr != nil {
					return rerr
				}
			}
		}
		return s.repo.WithTx(tx).Update(ctx, id, map[string]any{"status": next})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return s.Get(ctx, id)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// a cancelled order is not "already done": repeating the call is an error
	if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusFulfilled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}
	return s.UpdateStatus(ctx, id, enums.OrderStatusCancelled)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusFulfilled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be edited").
			WithDetails(map[string]any{"status": order.Status})
	}

	updates := map[string]any{}
	shipping := order.ShippingAmount
	discount := order.DiscountAmount
	if input.ShippingAmount != nil {
		if input.ShippingAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping amount must not be negative")
		}
		shipping = *input.ShippingAmount
		updates["shipping_amount"] = shipping
	}
	if input.DiscountAmount != nil {
		if input.DiscountAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must not be negative")
		}
		discount = *input.DiscountAmount
		updates["discount_amount"] = discount
	}
	if input.ShippingAmount != nil || input.DiscountAmount != nil {
		total := order.Subtotal.Add(shipping).Sub(discount)
		if total.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
		}
		updates["total_amount"] = total
	}
	if input.Shipping != nil {
		applyShippingUpdates(updates, *input.Shipping)
	}
	if input.CustomerNotes != nil {
		updates["customer_notes"] = *input.CustomerNotes
	}
	if input.InternalNotes != nil {
		updates["internal_notes"] = *input.InternalNotes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return s.Get(ctx, id)
}

func (s *service) UpdatePayment(ctx context.Context, id uuid.UUID, update PaymentUpdate) (*models.Order, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *update.Status))
		}
		updates["payment_status"] = *update.Status
	}
	if update.Provider != nil {
		updates["payment_provider"] = *update.Provider
	}
	if update.Reference != nil {
		updates["payment_reference"] = *update.Reference
	}
	if update.RefundedAmount != nil {
		if update.RefundedAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refunded amount must not be negative")
		}
		updates["refunded_amount"] = *update.RefundedAmount
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment")
	}
	return s.Get(ctx, id)
}

// Delete removes a draft order and gives its reserved stock back. Orders
// past DRAFT are cancelled, not deleted.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusDraft {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be deleted").
			WithDetails(map[string]any{"status": order.Status})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if rerr := s.ledger.Restore(ctx, tx, item.ProductID, item.Quantity); rerr != nil {
				return rerr
			}
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func applyShippingUpdates(updates map[string]any, address ShippingAddress) {
	if address.Name != nil {
		updates["shipping_name"] = *address.Name
	}
	if address.Phone != nil {
		updates["shipping_phone"] = *address.Phone
	}
	if address.Line1 != nil {
		updates["shipping_line1"] = *address.Line1
	}
	if address.Line2 != nil {
		updates["shipping_line2"] = *address.Line2
	}
	if address.City != nil {
		updates["shipping_city"] = *address.City
	}
	if address.Region != nil {
		updates["shipping_region"] = *address.Region
	}
	if address.PostalCode != nil {
		updates["shipping_postal_code"] = *address.PostalCode
	}
	if address.Country != nil {
		updates["shipping_country"] = *address.Country
	}
}
