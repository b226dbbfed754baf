package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing and filtering.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitLabel names the unit a product is sold in (kg, bunch, crate).
type UnitLabel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Abbreviation *string   `gorm:"column:abbreviation"`
	Description  *string   `gorm:"column:description"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
