package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// Repository is the storage surface for carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindActiveBySession(ctx context.Context, sessionID string) (*models.Cart, error)
	FindStaleActive(ctx context.Context, cutoff time.Time) ([]models.Cart, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindActiveBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("session_id = ? AND status = ?", sessionID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindStaleActive(ctx context.Context, cutoff time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", id).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

func (r *repository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}
