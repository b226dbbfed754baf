package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// Cart is a session-scoped basket. At most one ACTIVE cart exists per
// session key; conversion clears the items and stamps ConvertedAt.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID   string           `gorm:"column:session_id;not null;index"`
	CustomerID  *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	Status      enums.CartStatus `gorm:"column:status;not null;default:'ACTIVE'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
