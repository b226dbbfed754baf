package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	ordersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	shipmentsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/shipments"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type shipmentAddress struct {
	RecipientName *string `json:"recipient_name,omitempty"`
	Line1         *string `json:"line1,omitempty"`
	Line2         *string `json:"line2,omitempty"`
	City          *string `json:"city,omitempty"`
	Region        *string `json:"region,omitempty"`
	PostalCode    *string `json:"postal_code,omitempty"`
	Country       *string `json:"country,omitempty"`
}

func (a shipmentAddress) toAddress() shipmentsvc.Address {
	return shipmentsvc.Address{
		RecipientName: a.RecipientName,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		Region:        a.Region,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
	}
}

type createShipmentRequest struct {
	CarrierName           *string         `json:"carrier_name,omitempty"`
	TrackingNumber        *string         `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate *string         `json:"estimated_delivery_date,omitempty"`
	Address               shipmentAddress `json:"address"`
	Notes                 *string         `json:"notes,omitempty"`
}

// FarmerShipmentCreate opens the delivery record for an order the
// authenticated farmer sold.
func FarmerShipmentCreate(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		orderID, err := soldOrderID(r, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createShipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eta, err := parseOptionalDate(payload.EstimatedDeliveryDate, "estimated_delivery_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Create(r.Context(), shipmentsvc.CreateInput{
			OrderID:               orderID,
			CarrierName:           payload.CarrierName,
			TrackingNumber:        payload.TrackingNumber,
			EstimatedDeliveryDate: eta,
			Address:               payload.Address.toAddress(),
			Notes:                 payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shipment)
	}
}

// ShipmentByOrder returns the delivery record for an order visible to
// the caller.
func ShipmentByOrder(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		order, err := visibleOrder(r, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.GetByOrder(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

type shipOrderRequest struct {
	CarrierName           *string `json:"carrier_name,omitempty"`
	TrackingNumber        *string `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate *string `json:"estimated_delivery_date,omitempty"`
}

// FarmerShipOrder hands an order to the carrier, creating the shipment
// first when none exists yet.
func FarmerShipOrder(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		orderID, err := soldOrderID(r, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shipOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eta, err := parseOptionalDate(payload.EstimatedDeliveryDate, "estimated_delivery_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.ShipOrder(r.Context(), shipmentsvc.ShipOrderInput{
			OrderID:               orderID,
			CarrierName:           payload.CarrierName,
			TrackingNumber:        payload.TrackingNumber,
			EstimatedDeliveryDate: eta,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

type updateShipmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// FarmerShipmentUpdateStatus moves a shipment the authenticated farmer
// owns along the delivery lifecycle.
func FarmerShipmentUpdateStatus(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		shipmentID, err := ownedShipmentID(r, svc, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateShipmentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseShipmentStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipment status"))
			return
		}

		shipment, err := svc.UpdateStatus(r.Context(), shipmentID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

type updateShipmentRequest struct {
	CarrierName           *string          `json:"carrier_name,omitempty"`
	TrackingNumber        *string          `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate *string          `json:"estimated_delivery_date,omitempty"`
	Address               *shipmentAddress `json:"address,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
}

// FarmerShipmentUpdate edits carrier details on a shipment the
// authenticated farmer owns.
func FarmerShipmentUpdate(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		shipmentID, err := ownedShipmentID(r, svc, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateShipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eta, err := parseOptionalDate(payload.EstimatedDeliveryDate, "estimated_delivery_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := shipmentsvc.UpdateInput{
			CarrierName:           payload.CarrierName,
			TrackingNumber:        payload.TrackingNumber,
			EstimatedDeliveryDate: eta,
			Notes:                 payload.Notes,
		}
		if payload.Address != nil {
			addr := payload.Address.toAddress()
			input.Address = &addr
		}

		shipment, err := svc.Update(r.Context(), shipmentID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

// FarmerShipmentCancel calls off a delivery that has not reached the
// buyer yet.
func FarmerShipmentCancel(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		shipmentID, err := ownedShipmentID(r, svc, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Cancel(r.Context(), shipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

// FarmerShipmentDelete removes a shipment that never left the farm.
func FarmerShipmentDelete(svc shipmentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		shipmentID, err := ownedShipmentID(r, svc, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), shipmentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ShipmentTrack is the public tracking lookup by tracking number.
func ShipmentTrack(svc shipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		tracking := strings.TrimSpace(chi.URLParam(r, "trackingNumber"))
		if tracking == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required"))
			return
		}

		shipment, err := svc.GetByTracking(r.Context(), tracking)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

// soldOrderID resolves the order in the path and checks the
// authenticated farmer sold it.
func soldOrderID(r *http.Request, orderSvc ordersvc.Service) (uuid.UUID, error) {
	farmerID, err := authedUserID(r)
	if err != nil {
		return uuid.Nil, err
	}
	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		return uuid.Nil, err
	}
	order, err := orderSvc.Get(r.Context(), orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if order.FarmerID != farmerID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another farmer")
	}
	return orderID, nil
}

// ownedShipmentID resolves the shipment in the path and checks it
// belongs to an order the authenticated farmer sold.
func ownedShipmentID(r *http.Request, svc shipmentsvc.Service, orderSvc ordersvc.Service) (uuid.UUID, error) {
	farmerID, err := authedUserID(r)
	if err != nil {
		return uuid.Nil, err
	}
	shipmentID, err := pathUUID(r, "shipmentId")
	if err != nil {
		return uuid.Nil, err
	}
	shipment, err := svc.Get(r.Context(), shipmentID)
	if err != nil {
		return uuid.Nil, err
	}
	order, err := orderSvc.Get(r.Context(), shipment.OrderID)
	if err != nil {
		return uuid.Nil, err
	}
	if order.FarmerID != farmerID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "shipment belongs to another farmer")
	}
	return shipmentID, nil
}
