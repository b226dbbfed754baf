package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

// Ledger mutates product stock levels. Every mutation is a single
// conditional UPDATE so concurrent checkouts can never oversell: the
// guard and the decrement happen in one statement.
type Ledger struct{}

// NewLedger exposes the stock ledger.
func NewLedger() Ledger {
	return Ledger{}
}

// Reserve atomically decrements stock for an active product. The caller
// owns the surrounding transaction; Reserve never commits.
func (Ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reserve")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_active AND stock_quantity >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	return classifyReserveFailure(ctx, tx, productID, qty)
}

// Restore atomically returns previously reserved stock.
func (Ledger) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "restore quantity must be positive")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// Adjust applies a signed stock correction. Negative deltas are guarded
// the same way as reservations so the level never goes below zero.
func (Ledger) Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjust")
	}
	if delta.IsZero() {
		return nil
	}

	var res *gorm.DB
	if delta.IsNegative() {
		needed := delta.Neg()
		res = tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_quantity >= ?
		`, delta, productID, needed)
	} else {
		res = tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, delta, productID)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var product models.Product
	err := tx.WithContext(ctx).Select("id", "stock_quantity").Where("id = ?", productID).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for adjust")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "stock adjustment would go negative").WithDetails(map[string]any{
		"product_id": productID,
		"available":  product.StockQuantity,
		"delta":      delta,
	})
}

func classifyReserveFailure(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error {
	var product models.Product
	err := tx.WithContext(ctx).
		Select("id", "name", "is_active", "stock_quantity").
		Where("id = ?", productID).
		First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for reserve")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not active").WithDetails(map[string]any{
			"product_id": productID,
		})
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").WithDetails(map[string]any{
		"product_id": productID,
		"requested":  qty,
		"available":  product.StockQuantity,
	})
}
