package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// PendingPayment correlates a provider-side payment with the order it
// was initiated for. Completion resolves the order through this record
// rather than trusting identifiers echoed back by the client.
type PendingPayment struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderPaymentID string                `gorm:"column:provider_payment_id;not null;uniqueIndex"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Provider          enums.PaymentProvider `gorm:"column:provider;not null"`
	ConsumedAt        *time.Time            `gorm:"column:consumed_at"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
