package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// Order is the purchase aggregate. Creating an order reserves stock for
// every line eagerly; cancellation and draft deletion give it back.
// The shipping address is a flat snapshot taken at creation time.
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	FarmerID         uuid.UUID              `gorm:"column:farmer_id;type:uuid;not null;index"`
	Status           enums.OrderStatus      `gorm:"column:status;not null;default:'DRAFT'"`
	PaymentStatus    enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'NOT_REQUIRED'"`
	PaymentProvider  *enums.PaymentProvider `gorm:"column:payment_provider"`
	PaymentReference *string                `gorm:"column:payment_reference"`
	Subtotal         decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	ShippingAmount   decimal.Decimal        `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount   decimal.Decimal        `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount      decimal.Decimal        `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	RefundedAmount   decimal.Decimal        `gorm:"column:refunded_amount;type:numeric(12,2);not null;default:0"`
	Currency         string                 `gorm:"column:currency;not null;default:'ILS'"`
	ShippingName     *string                `gorm:"column:shipping_name"`
	ShippingPhone    *string                `gorm:"column:shipping_phone"`
	ShippingLine1    *string                `gorm:"column:shipping_line1"`
	ShippingLine2    *string                `gorm:"column:shipping_line2"`
	ShippingCity     *string                `gorm:"column:shipping_city"`
	ShippingRegion   *string                `gorm:"column:shipping_region"`
	ShippingPostal   *string                `gorm:"column:shipping_postal_code"`
	ShippingCountry  *string                `gorm:"column:shipping_country"`
	CustomerNotes    *string                `gorm:"column:customer_notes"`
	InternalNotes    *string                `gorm:"column:internal_notes"`
	Items            []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipment         *Shipment              `gorm:"foreignKey:OrderID"`
	Customer         *Customer              `gorm:"foreignKey:CustomerID"`
	Farmer           *Farmer                `gorm:"foreignKey:FarmerID"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
