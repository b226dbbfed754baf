package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	checkoutsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/checkout"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type checkoutRequest struct {
	ShippingAmount *string         `json:"shipping_amount,omitempty"`
	DiscountAmount *string         `json:"discount_amount,omitempty"`
	Shipping       shippingAddress `json:"shipping"`
	CustomerNotes  *string         `json:"customer_notes,omitempty"`
}

type shippingAddress struct {
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Line1      *string `json:"line1,omitempty"`
	Line2      *string `json:"line2,omitempty"`
	City       *string `json:"city,omitempty"`
	Region     *string `json:"region,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
}

func (a shippingAddress) toOrderAddress() orders.ShippingAddress {
	return orders.ShippingAddress{
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// Checkout converts the session's active cart into an order for the
// authenticated customer.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipping := decimal.Zero
		if amount, perr := parseOptionalAmount(payload.ShippingAmount, "shipping_amount"); perr != nil {
			responses.WriteError(r.Context(), logg, w, perr)
			return
		} else if amount != nil {
			shipping = *amount
		}
		discount := decimal.Zero
		if amount, perr := parseOptionalAmount(payload.DiscountAmount, "discount_amount"); perr != nil {
			responses.WriteError(r.Context(), logg, w, perr)
			return
		} else if amount != nil {
			discount = *amount
		}

		order, err := svc.Convert(r.Context(), checkoutsvc.ConvertInput{
			SessionID:      session,
			CustomerID:     &customerID,
			ShippingAmount: shipping,
			DiscountAmount: discount,
			Shipping:       payload.Shipping.toOrderAddress(),
			CustomerNotes:  payload.CustomerNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
