package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// ListFilter narrows shipment listings.
type ListFilter struct {
	Status *enums.ShipmentStatus
	Limit  int
	Offset int
}

// Repository is the storage surface for shipments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if err := r.db.WithContext(ctx).Create(shipment).Error; err != nil {
		return nil, err
	}
	return shipment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at DESC").
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Shipment, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var shipments []models.Shipment
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Shipment{}, "id = ?", id).Error
}
