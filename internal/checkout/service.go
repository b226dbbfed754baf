package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/cart"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderCreator is the slice of the order service checkout needs.
type orderCreator interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ConvertInput carries one cart-to-order conversion request.
type ConvertInput struct {
	SessionID      string
	CustomerID     *uuid.UUID
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	Shipping       orders.ShippingAddress
	CustomerNotes  *string
}

// Service converts active carts into orders.
type Service interface {
	Convert(ctx context.Context, input ConvertInput) (*models.Order, error)
}

type service struct {
	carts  cart.Repository
	orders orderCreator
	tx     txRunner
}

// NewService builds a checkout service with the required dependencies.
func NewService(carts cart.Repository, orderSvc orderCreator, tx txRunner) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{carts: carts, orders: orderSvc, tx: tx}, nil
}

// Convert places an order from the session's active cart. The order
// insert, the stock reservations, and the cart state flip all commit or
// roll back together. Converted carts keep their row but lose their
// lines, so the session starts fresh on the next add.
func (s *service) Convert(ctx context.Context, input ConvertInput) (*models.Order, error) {
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	basket, err := s.carts.FindActiveBySession(ctx, input.SessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	if len(basket.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	customerID := uuid.Nil
	if input.CustomerID != nil {
		customerID = *input.CustomerID
	} else if basket.CustomerID != nil {
		customerID = *basket.CustomerID
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required for checkout")
	}

	orderInput := orders.CreateInput{
		CustomerID:     customerID,
		ShippingAmount: input.ShippingAmount,
		DiscountAmount: input.DiscountAmount,
		Shipping:       input.Shipping,
		CustomerNotes:  input.CustomerNotes,
	}
	for i := range basket.Items {
		item := basket.Items[i]
		orderInput.Items = append(orderInput.Items, orders.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: &item.UnitPrice,
		})
	}

	var placed *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, terr := s.orders.CreateInTx(ctx, tx, orderInput)
		if terr != nil {
			return terr
		}

		carts := s.carts.WithTx(tx)
		now := time.Now().UTC()
		if uerr := carts.Update(ctx, basket.ID, map[string]any{
			"status":       enums.CartStatusConverted,
			"converted_at": now,
			"customer_id":  customerID,
		}); uerr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, uerr, "mark cart converted")
		}
		if derr := carts.DeleteItemsByCart(ctx, basket.ID); derr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, derr, "clear converted cart")
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.orders.Get(ctx, placed.ID)
}
