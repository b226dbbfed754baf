package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one product line at order creation. Prices are
// copied from the catalog so later edits never change a placed order.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineSubtotal decimal.Decimal `gorm:"column:line_subtotal;type:numeric(12,2);not null"`
	LineDiscount decimal.Decimal `gorm:"column:line_discount;type:numeric(12,2);not null;default:0"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Product      *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
