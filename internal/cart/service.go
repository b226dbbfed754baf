package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// Totals summarizes a cart without persisting anything.
type Totals struct {
	Subtotal  decimal.Decimal
	ItemCount int
	Currency  string
}

// AddItemInput carries one add-to-cart request.
type AddItemInput struct {
	SessionID string
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// Service defines cart operations.
type Service interface {
	GetOrCreateActive(ctx context.Context, sessionID string, customerID *uuid.UUID) (*models.Cart, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, input AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity decimal.Decimal) (*models.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, sessionID string) (*models.Cart, error)
	Totals(ctx context.Context, sessionID string) (*Totals, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	products productLoader
	tx       txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products productLoader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

func (s *service) GetOrCreateActive(ctx context.Context, sessionID string, customerID *uuid.UUID) (*models.Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	existing, err := s.repo.FindActiveBySession(ctx, sessionID)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		SessionID:  sessionID,
		CustomerID: customerID,
		Status:     enums.CartStatusActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return s.Get(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.Cart, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.GetOrCreateActive(ctx, input.SessionID, nil)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not active")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, ierr := repo.FindItemByProduct(ctx, cart.ID, product.ID)
		combined := input.Quantity
		if ierr == nil {
			combined = existing.Quantity.Add(input.Quantity)
		} else if ierr != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, ierr, "load cart line")
		}

		if verr := validateQuantity(product, combined); verr != nil {
			return verr
		}

		if existing != nil && ierr == nil {
			// merge onto the existing line, keeping the original price snapshot
			return repo.UpdateItemQuantity(ctx, existing.ID, map[string]any{"quantity": combined})
		}

		_, cerr := repo.CreateItem(ctx, &models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  input.Quantity,
			UnitPrice: product.PricePerUnit,
		})
		if cerr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, cerr, "create cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, cart.ID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity decimal.Decimal) (*models.Cart, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, item, err := s.loadOwnedItem(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if verr := validateQuantity(product, quantity); verr != nil {
		return nil, verr
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, map[string]any{"quantity": quantity}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.Get(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, error) {
	cart, item, err := s.loadOwnedItem(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return s.Get(ctx, cart.ID)
}

func (s *service) Clear(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := s.requireActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return s.Get(ctx, cart.ID)
}

func (s *service) Totals(ctx context.Context, sessionID string) (*Totals, error) {
	cart, err := s.requireActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	totals := &Totals{Subtotal: decimal.Zero, ItemCount: len(cart.Items)}
	for _, item := range cart.Items {
		totals.Subtotal = totals.Subtotal.Add(item.Quantity.Mul(item.UnitPrice))
		if totals.Currency == "" && item.Product != nil {
			totals.Currency = item.Product.Currency
		}
	}
	totals.Subtotal = totals.Subtotal.Round(2)
	return totals, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

func (s *service) requireActive(ctx context.Context, sessionID string) (*models.Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	cart, err := s.repo.FindActiveBySession(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	return cart, nil
}

func (s *service) loadOwnedItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.requireActive(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if item.CartID != cart.ID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item does not belong to session cart")
	}
	return cart, item, nil
}

func validateQuantity(product *models.Product, quantity decimal.Decimal) error {
	if quantity.GreaterThan(product.StockQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").WithDetails(map[string]any{
			"product_id": product.ID,
			"requested":  quantity,
			"available":  product.StockQuantity,
		})
	}
	if quantity.LessThan(product.MinOrderQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity below minimum order quantity").WithDetails(map[string]any{
			"product_id": product.ID,
			"minimum":    product.MinOrderQuantity,
		})
	}
	if product.MaxOrderQuantity != nil && quantity.GreaterThan(*product.MaxOrderQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity above maximum order quantity").WithDetails(map[string]any{
			"product_id": product.ID,
			"maximum":    *product.MaxOrderQuantity,
		})
	}
	return nil
}
