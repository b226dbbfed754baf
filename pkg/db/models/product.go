package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable listing. StockQuantity is the authoritative
// available stock and is only mutated through conditional updates.
type Product struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FarmerID         uuid.UUID        `gorm:"column:farmer_id;type:uuid;not null;index"`
	CategoryID       *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	UnitLabelID      *uuid.UUID       `gorm:"column:unit_label_id;type:uuid"`
	Name             string           `gorm:"column:name;not null"`
	Description      *string          `gorm:"column:description"`
	UnitSize         decimal.Decimal  `gorm:"column:unit_size;type:numeric(10,2);not null;default:1"`
	PricePerUnit     decimal.Decimal  `gorm:"column:price_per_unit;type:numeric(12,2);not null"`
	Currency         string           `gorm:"column:currency;not null;default:'ILS'"`
	StockQuantity    decimal.Decimal  `gorm:"column:stock_quantity;type:numeric(10,2);not null;default:0"`
	MinOrderQuantity decimal.Decimal  `gorm:"column:min_order_quantity;type:numeric(10,2);not null;default:1"`
	MaxOrderQuantity *decimal.Decimal `gorm:"column:max_order_quantity;type:numeric(10,2)"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	IsOrganic        bool             `gorm:"column:is_organic;not null;default:false"`
	AvailableFrom    *time.Time       `gorm:"column:available_from"`
	AvailableUntil   *time.Time       `gorm:"column:available_until"`
	ImageURL         *string          `gorm:"column:image_url"`
	Farmer           *Farmer          `gorm:"foreignKey:FarmerID"`
	Category         *Category        `gorm:"foreignKey:CategoryID"`
	UnitLabel        *UnitLabel       `gorm:"foreignKey:UnitLabelID"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
