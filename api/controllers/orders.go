package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	ordersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type createOrderRequest struct {
	Items          []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAmount *string            `json:"shipping_amount,omitempty"`
	DiscountAmount *string            `json:"discount_amount,omitempty"`
	Currency       string             `json:"currency,omitempty"`
	Shipping       shippingAddress    `json:"shipping"`
	CustomerNotes  *string            `json:"customer_notes,omitempty"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  string `json:"quantity" validate:"required"`
}

// OrderCreate places an order directly, without going through a cart.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		customerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.CreateInput{
			CustomerID:    customerID,
			Currency:      strings.TrimSpace(payload.Currency),
			Shipping:      payload.Shipping.toOrderAddress(),
			CustomerNotes: payload.CustomerNotes,
		}
		if amount, perr := parseOptionalAmount(payload.ShippingAmount, "shipping_amount"); perr != nil {
			responses.WriteError(r.Context(), logg, w, perr)
			return
		} else if amount != nil {
			input.ShippingAmount = *amount
		}
		if amount, perr := parseOptionalAmount(payload.DiscountAmount, "discount_amount"); perr != nil {
			responses.WriteError(r.Context(), logg, w, perr)
			return
		} else if amount != nil {
			input.DiscountAmount = *amount
		}

		for _, line := range payload.Items {
			productID, perr := uuid.Parse(line.ProductID)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid product id"))
				return
			}
			quantity, perr := parseAmount(line.Quantity, "quantity")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			input.Items = append(input.Items, ordersvc.ItemInput{
				ProductID: productID,
				Quantity:  quantity,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CustomerOrderList returns the authenticated customer's orders.
func CustomerOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		customerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := orderListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CustomerID = &customerID

		orders, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// FarmerOrderList returns orders placed against the authenticated
// farmer's listings.
func FarmerOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		farmerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := orderListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.FarmerID = &farmerID

		orders, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func orderListFilter(r *http.Request) (ordersvc.ListFilter, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil {
		return ordersvc.ListFilter{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return ordersvc.ListFilter{}, err
	}

	filter := ordersvc.ListFilter{Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, perr := enums.ParseOrderStatus(strings.ToUpper(raw))
		if perr != nil {
			return ordersvc.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid order status")
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, perr := enums.ParsePaymentStatus(strings.ToUpper(raw))
		if perr != nil {
			return ordersvc.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid payment status")
		}
		filter.PaymentStatus = &status
	}
	return filter, nil
}

// OrderDetail returns one order visible to the caller, whether they
// placed it or sold it.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := visibleOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderRequest struct {
	ShippingAmount *string          `json:"shipping_amount,omitempty"`
	DiscountAmount *string          `json:"discount_amount,omitempty"`
	Shipping       *shippingAddress `json:"shipping,omitempty"`
	CustomerNotes  *string          `json:"customer_notes,omitempty"`
	InternalNotes  *string          `json:"internal_notes,omitempty"`
}

// OrderUpdate edits the mutable fields of an order the caller can see.
// Amount changes recompute the total and are only accepted pre-payment
// by the service layer.
func OrderUpdate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := visibleOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.UpdateInput{
			CustomerNotes: payload.CustomerNotes,
			InternalNotes: payload.InternalNotes,
		}
		if input.ShippingAmount, err = parseOptionalAmount(payload.ShippingAmount, "shipping_amount"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.DiscountAmount, err = parseOptionalAmount(payload.DiscountAmount, "discount_amount"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Shipping != nil {
			addr := payload.Shipping.toOrderAddress()
			input.Shipping = &addr
		}

		updated, err := svc.Update(r.Context(), order.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// FarmerOrderUpdateStatus moves an order the authenticated farmer sold
// along its lifecycle.
func FarmerOrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		farmerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.FarmerID != farmerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another farmer"))
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), orderID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// OrderCancel cancels an order the caller can see, restoring any stock
// the order had reserved.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := visibleOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := svc.Cancel(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelled)
	}
}

// OrderDelete removes a draft order, releasing its stock reservations.
func OrderDelete(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := visibleOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), order.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// visibleOrder resolves the order in the path and checks the caller is
// either the buyer or the seller.
func visibleOrder(r *http.Request, svc ordersvc.Service) (*models.Order, error) {
	callerID, err := authedUserID(r)
	if err != nil {
		return nil, err
	}
	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		return nil, err
	}
	order, err := svc.Get(r.Context(), orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != callerID && order.FarmerID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to this account")
	}
	return order, nil
}
