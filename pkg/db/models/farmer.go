package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Farmer is the seller profile behind the storefront. A farmer owns
// products and receives orders.
type Farmer struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string           `gorm:"column:name;not null"`
	FarmName        string           `gorm:"column:farm_name;not null"`
	Email           string           `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash    string           `gorm:"column:password_hash;not null"`
	Phone           *string          `gorm:"column:phone"`
	AddressLine1    *string          `gorm:"column:address_line1"`
	AddressLine2    *string          `gorm:"column:address_line2"`
	City            *string          `gorm:"column:city"`
	Region          *string          `gorm:"column:region"`
	PostalCode      *string          `gorm:"column:postal_code"`
	Country         string           `gorm:"column:country;not null;default:'Israel'"`
	Description     *string          `gorm:"column:description"`
	FarmType        *string          `gorm:"column:farm_type"`
	FarmSizeAcres   *decimal.Decimal `gorm:"column:farm_size_acres;type:numeric(10,2)"`
	EstablishedYear *int             `gorm:"column:established_year"`
	Certifications  pq.StringArray   `gorm:"column:certifications;type:text[]"`
	WebsiteURL      *string          `gorm:"column:website_url"`
	BusinessHours   *string          `gorm:"column:business_hours"`
	ProfileImageURL *string          `gorm:"column:profile_image_url"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	Products        []Product        `gorm:"foreignKey:FarmerID"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
