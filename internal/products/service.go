package products

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/inventory"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	ListLowStock(ctx context.Context, threshold decimal.Decimal) ([]models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput carries a new catalog listing.
type CreateInput struct {
	FarmerID         uuid.UUID
	CategoryID       *uuid.UUID
	UnitLabelID      *uuid.UUID
	Name             string
	Description      *string
	UnitSize         *decimal.Decimal
	PricePerUnit     decimal.Decimal
	Currency         string
	StockQuantity    decimal.Decimal
	MinOrderQuantity *decimal.Decimal
	MaxOrderQuantity *decimal.Decimal
	IsOrganic        bool
	AvailableFrom    *time.Time
	AvailableUntil   *time.Time
	ImageURL         *string
}

// UpdateInput carries a partial catalog edit. Nil fields are untouched.
type UpdateInput struct {
	CategoryID       *uuid.UUID
	UnitLabelID      *uuid.UUID
	Name             *string
	Description      *string
	UnitSize         *decimal.Decimal
	PricePerUnit     *decimal.Decimal
	Currency         *string
	MinOrderQuantity *decimal.Decimal
	MaxOrderQuantity *decimal.Decimal
	IsActive         *bool
	IsOrganic        *bool
	AvailableFrom    *time.Time
	AvailableUntil   *time.Time
	ImageURL         *string
}

type service struct {
	repo            Repository
	tx              txRunner
	ledger          inventory.Ledger
	defaultCurrency string
}

// NewService builds a product service with the required dependencies.
func NewService(repo Repository, tx txRunner, ledger inventory.Ledger, defaultCurrency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if defaultCurrency == "" {
		defaultCurrency = "ILS"
	}
	return &service{repo: repo, tx: tx, ledger: ledger, defaultCurrency: defaultCurrency}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.FarmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PricePerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.StockQuantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative")
	}

	product := &models.Product{
		FarmerID:       input.FarmerID,
		CategoryID:     input.CategoryID,
		UnitLabelID:    input.UnitLabelID,
		Name:           input.Name,
		Description:    input.Description,
		PricePerUnit:   input.PricePerUnit,
		Currency:       input.Currency,
		StockQuantity:  input.StockQuantity,
		IsActive:       true,
		IsOrganic:      input.IsOrganic,
		AvailableFrom:  input.AvailableFrom,
		AvailableUntil: input.AvailableUntil,
		ImageURL:       input.ImageURL,
	}
	if product.Currency == "" {
		product.Currency = s.defaultCurrency
	}
	product.UnitSize = decimal.NewFromInt(1)
	if input.UnitSize != nil {
		if input.UnitSize.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit size must be positive")
		}
		product.UnitSize = *input.UnitSize
	}
	product.MinOrderQuantity = decimal.NewFromInt(1)
	if input.MinOrderQuantity != nil {
		if input.MinOrderQuantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min order quantity must be positive")
		}
		product.MinOrderQuantity = *input.MinOrderQuantity
	}
	if input.MaxOrderQuantity != nil {
		if input.MaxOrderQuantity.LessThan(product.MinOrderQuantity) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max order quantity below min order quantity")
		}
		product.MaxOrderQuantity = input.MaxOrderQuantity
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) ListLowStock(ctx context.Context, threshold decimal.Decimal) ([]models.Product, error) {
	if threshold.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be positive")
	}
	products, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock products")
	}
	return products, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if input.UnitLabelID != nil {
		updates["unit_label_id"] = *input.UnitLabelID
	}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.UnitSize != nil {
		if input.UnitSize.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit size must be positive")
		}
		updates["unit_size"] = *input.UnitSize
	}
	if input.PricePerUnit != nil {
		if input.PricePerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price_per_unit"] = *input.PricePerUnit
	}
	if input.Currency != nil && *input.Currency != "" {
		updates["currency"] = *input.Currency
	}
	if input.MinOrderQuantity != nil {
		if input.MinOrderQuantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min order quantity must be positive")
		}
		updates["min_order_quantity"] = *input.MinOrderQuantity
	}
	if input.MaxOrderQuantity != nil {
		updates["max_order_quantity"] = *input.MaxOrderQuantity
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsOrganic != nil {
		updates["is_organic"] = *input.IsOrganic
	}
	if input.AvailableFrom != nil {
		updates["available_from"] = *input.AvailableFrom
	}
	if input.AvailableUntil != nil {
		updates["available_until"] = *input.AvailableUntil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.Get(ctx, id)
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*models.Product, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.Adjust(ctx, tx, id, delta)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}
