package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a registered buyer.
type Customer struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName      string    `gorm:"column:first_name;not null"`
	LastName       string    `gorm:"column:last_name;not null"`
	Email          string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	Phone          *string   `gorm:"column:phone"`
	AddressLine1   *string   `gorm:"column:address_line1"`
	AddressLine2   *string   `gorm:"column:address_line2"`
	City           *string   `gorm:"column:city"`
	Region         *string   `gorm:"column:region"`
	PostalCode     *string   `gorm:"column:postal_code"`
	Country        string    `gorm:"column:country;not null;default:'Israel'"`
	MarketingOptIn bool      `gorm:"column:marketing_opt_in;not null;default:false"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	Orders         []Order   `gorm:"foreignKey:CustomerID"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
