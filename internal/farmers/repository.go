package farmers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
)

// ListFilter narrows farmer listings.
type ListFilter struct {
	ActiveOnly bool
	FarmType   *string
	Search     string
	Limit      int
	Offset     int
}

// Repository is the storage surface for farmer profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, farmer *models.Farmer) (*models.Farmer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Farmer, error)
	FindByEmail(ctx context.Context, email string) (*models.Farmer, error)
	List(ctx context.Context, filter ListFilter) ([]models.Farmer, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a farmer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, farmer *models.Farmer) (*models.Farmer, error) {
	if err := r.db.WithContext(ctx).Create(farmer).Error; err != nil {
		return nil, err
	}
	return farmer, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Farmer, error) {
	var farmer models.Farmer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&farmer).Error
	if err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Farmer, error) {
	var farmer models.Farmer
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&farmer).Error
	if err != nil {
		return nil, err
	}
	return &farmer, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Farmer, error) {
	query := r.db.WithContext(ctx).Model(&models.Farmer{})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.FarmType != nil {
		query = query.Where("farm_type = ?", *filter.FarmType)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(farm_name) LIKE ?", pattern, pattern)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var farmers []models.Farmer
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&farmers).Error
	if err != nil {
		return nil, err
	}
	return farmers, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Farmer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Farmer{}, "id = ?", id).Error
}
