package controllers

import (
	"net/http"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	cartsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/cart"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
	"github.com/google/uuid"
)

// CartFetch returns the session's active cart, creating one on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var customerID *uuid.UUID
		if id, aerr := authedUserID(r); aerr == nil {
			customerID = &id
		}

		cart, err := svc.GetOrCreateActive(r.Context(), session, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  string `json:"quantity" validate:"required"`
}

// CartAddItem adds a product to the session's cart, merging duplicate lines.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		quantity, err := parseAmount(payload.Quantity, "quantity")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), cartsvc.AddItemInput{
			SessionID: session,
			ProductID: productID,
			Quantity:  quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

type updateCartItemRequest struct {
	Quantity string `json:"quantity" validate:"required"`
}

// CartUpdateItem changes the quantity on one cart line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := parseAmount(payload.Quantity, "quantity")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateItemQuantity(r.Context(), session, itemID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveItem drops one line from the session's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), session, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the session's cart without deleting it.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Clear(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type cartTotalsResponse struct {
	Subtotal  string `json:"subtotal"`
	ItemCount int    `json:"item_count"`
	Currency  string `json:"currency"`
}

// CartTotals prices the session's cart without persisting anything.
func CartTotals(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals, err := svc.Totals(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartTotalsResponse{
			Subtotal:  totals.Subtotal.StringFixed(2),
			ItemCount: totals.ItemCount,
			Currency:  totals.Currency,
		})
	}
}
