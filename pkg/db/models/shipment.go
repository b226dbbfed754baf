package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// Shipment is the single delivery record for an order. ShippedAt and
// DeliveredAt are set once and never overwritten on repeat transitions.
type Shipment struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status                enums.ShipmentStatus `gorm:"column:status;not null;default:'PENDING'"`
	CarrierName           *string              `gorm:"column:carrier_name"`
	TrackingNumber        *string              `gorm:"column:tracking_number;index"`
	EstimatedDeliveryDate *time.Time           `gorm:"column:estimated_delivery_date"`
	ShippedAt             *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt           *time.Time           `gorm:"column:delivered_at"`
	RecipientName         *string              `gorm:"column:recipient_name"`
	AddressLine1          *string              `gorm:"column:address_line1"`
	AddressLine2          *string              `gorm:"column:address_line2"`
	City                  *string              `gorm:"column:city"`
	Region                *string              `gorm:"column:region"`
	PostalCode            *string              `gorm:"column:postal_code"`
	Country               *string              `gorm:"column:country"`
	Notes                 *string              `gorm:"column:notes"`
	Order                 *Order               `gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
