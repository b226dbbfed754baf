package shipments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

// orderTracker is the slice of the order service the shipment flow needs.
type orderTracker interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
}

// shipmentTransitions is the delivery lifecycle table.
var shipmentTransitions = map[enums.ShipmentStatus][]enums.ShipmentStatus{
	enums.ShipmentStatusPending:   {enums.ShipmentStatusPacked, enums.ShipmentStatusShipped, enums.ShipmentStatusCancelled},
	enums.ShipmentStatusPacked:    {enums.ShipmentStatusShipped, enums.ShipmentStatusCancelled},
	enums.ShipmentStatusShipped:   {enums.ShipmentStatusDelivered, enums.ShipmentStatusCancelled},
	enums.ShipmentStatusDelivered: {},
	enums.ShipmentStatusCancelled: {},
}

func canTransition(from, to enums.ShipmentStatus) bool {
	for _, candidate := range shipmentTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Address overrides the delivery address snapshotted from the order.
type Address struct {
	RecipientName *string
	Line1         *string
	Line2         *string
	City          *string
	Region        *string
	PostalCode    *string
	Country       *string
}

// CreateInput carries a new shipment for an order.
type CreateInput struct {
	OrderID               uuid.UUID
	CarrierName           *string
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
	Address               Address
	Notes                 *string
}

// UpdateInput carries a partial shipment edit. Nil fields are untouched.
type UpdateInput struct {
	CarrierName           *string
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
	Address               *Address
	Notes                 *string
}

// ShipOrderInput marks an order's shipment as handed to the carrier,
// creating the shipment first when none exists yet.
type ShipOrderInput struct {
	OrderID               uuid.UUID
	CarrierName           *string
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
}

// Service defines shipment operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Shipment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	GetByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Shipment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.ShipmentStatus) (*models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Shipment, error)
	ShipOrder(ctx context.Context, input ShipOrderInput) (*models.Shipment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	orders orderTracker
	now    func() time.Time
}

// NewService builds a shipment service with the required dependencies.
func NewService(repo Repository, orderSvc orderTracker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &service{repo: repo, orders: orderSvc, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Create opens the delivery record for an order. Each order gets at most
// one shipment; the delivery address defaults to the order's snapshot.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Shipment, error) {
	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot ship a cancelled order")
	}

	if _, err := s.repo.FindByOrder(ctx, input.OrderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a shipment").
			WithDetails(map[string]any{"order_id": input.OrderID})
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}

	shipment := &models.Shipment{
		OrderID:               input.OrderID,
		Status:                enums.ShipmentStatusPending,
		CarrierName:           input.CarrierName,
		TrackingNumber:        input.TrackingNumber,
		EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		RecipientName:         firstNonNil(input.Address.RecipientName, order.ShippingName),
		AddressLine1:          firstNonNil(input.Address.Line1, order.ShippingLine1),
		AddressLine2:          firstNonNil(input.Address.Line2, order.ShippingLine2),
		City:                  firstNonNil(input.Address.City, order.ShippingCity),
		Region:                firstNonNil(input.Address.Region, order.ShippingRegion),
		PostalCode:            firstNonNil(input.Address.PostalCode, order.ShippingPostal),
		Country:               firstNonNil(input.Address.Country, order.ShippingCountry),
		Notes:                 input.Notes,
	}

	created, err := s.repo.Create(ctx, shipment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no shipment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) GetByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}
	shipment, err := s.repo.FindByTracking(ctx, trackingNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipment with tracking number")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Shipment, error) {
	shipments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return shipments, nil
}

// UpdateStatus walks the delivery lifecycle. ShippedAt and DeliveredAt
// are stamped the first time their status is reached and never after.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.ShipmentStatus) (*models.Shipment, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipment status %q", next))
	}

	shipment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.Status == next {
		return shipment, nil
	}
	if !canTransition(shipment.Status, next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment status transition not allowed").
			WithDetails(map[string]any{"from": shipment.Status, "to": next})
	}

	updates := map[string]any{"status": next}
	if next == enums.ShipmentStatusShipped && shipment.ShippedAt == nil {
		updates["shipped_at"] = s.now()
	}
	if next == enums.ShipmentStatusDelivered && shipment.DeliveredAt == nil {
		updates["delivered_at"] = s.now()
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment status")
	}

	if next == enums.ShipmentStatusDelivered {
		if order, oerr := s.orders.Get(ctx, shipment.OrderID); oerr == nil && order.Status == enums.OrderStatusPaid {
			if _, oerr := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusFulfilled); oerr != nil {
				return nil, oerr
			}
		}
	}

	return s.Get(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Shipment, error) {
	shipment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.Status == enums.ShipmentStatusDelivered || shipment.Status == enums.ShipmentStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment can no longer be edited").
			WithDetails(map[string]any{"status": shipment.Status})
	}

	updates := map[string]any{}
	if input.CarrierName != nil {
		updates["carrier_name"] = *input.CarrierName
	}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = *input.TrackingNumber
	}
	if input.EstimatedDeliveryDate != nil {
		updates["estimated_delivery_date"] = *input.EstimatedDeliveryDate
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Address != nil {
		applyAddressUpdates(updates, *input.Address)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
	}
	return s.Get(ctx, id)
}

// ShipOrder hands an order to the carrier in one call, creating the
// shipment first when the farmer never opened one explicitly.
func (s *service) ShipOrder(ctx context.Context, input ShipOrderInput) (*models.Shipment, error) {
	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid && order.Status != enums.OrderStatusFulfilled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be paid before shipping").
			WithDetails(map[string]any{"status": order.Status})
	}

	shipment, err := s.repo.FindByOrder(ctx, input.OrderID)
	if err == gorm.ErrRecordNotFound {
		shipment, err = s.Create(ctx, CreateInput{
			OrderID:               input.OrderID,
			CarrierName:           input.CarrierName,
			TrackingNumber:        input.TrackingNumber,
			EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		})
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	} else {
		patch := UpdateInput{
			CarrierName:           input.CarrierName,
			TrackingNumber:        input.TrackingNumber,
			EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		}
		if shipment, err = s.Update(ctx, shipment.ID, patch); err != nil {
			return nil, err
		}
	}

	return s.UpdateStatus(ctx, shipment.ID, enums.ShipmentStatusShipped)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	return s.UpdateStatus(ctx, id, enums.ShipmentStatusCancelled)
}

// Delete removes a shipment that never left the farm. Anything already
// shipped or delivered stays on record.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	shipment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if shipment.Status == enums.ShipmentStatusShipped || shipment.Status == enums.ShipmentStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment already in transit").
			WithDetails(map[string]any{"status": shipment.Status})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shipment")
	}
	return nil
}

func applyAddressUpdates(updates map[string]any, address Address) {
	if address.RecipientName != nil {
		updates["recipient_name"] = *address.RecipientName
	}
	if address.Line1 != nil {
		updates["address_line1"] = *address.Line1
	}
	if address.Line2 != nil {
		updates["address_line2"] = *address.Line2
	}
	if address.City != nil {
		updates["city"] = *address.City
	}
	if address.Region != nil {
		updates["region"] = *address.Region
	}
	if address.PostalCode != nil {
		updates["postal_code"] = *address.PostalCode
	}
	if address.Country != nil {
		updates["country"] = *address.Country
	}
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
