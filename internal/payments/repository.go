package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
)

// Repository is the storage surface for pending payment correlation rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pending *models.PendingPayment) (*models.PendingPayment, error)
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.PendingPayment, error)
	FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*models.PendingPayment, error)
	MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pending payment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pending *models.PendingPayment) (*models.PendingPayment, error) {
	if err := r.db.WithContext(ctx).Create(pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *repository) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.PendingPayment, error) {
	var pending models.PendingPayment
	err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerPaymentID).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *repository) FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*models.PendingPayment, error) {
	var pending models.PendingPayment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *repository) MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PendingPayment{}).
		Where("id = ?", id).
		Update("consumed_at", at).Error
}
