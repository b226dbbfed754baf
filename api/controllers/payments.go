package controllers

import (
	"net/http"
	"strings"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	ordersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	paymentsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/payments"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type initiatePaymentResponse struct {
	OrderID         string `json:"order_id"`
	ProviderOrderID string `json:"provider_order_id"`
	ApprovalURL     string `json:"approval_url"`
}

// PaymentInitiate starts the payment flow for a draft order the
// authenticated customer placed.
func PaymentInitiate(svc paymentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		order, err := visibleOrder(r, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, initiatePaymentResponse{
			OrderID:         result.OrderID.String(),
			ProviderOrderID: result.ProviderOrderID,
			ApprovalURL:     result.ApprovalURL,
		})
	}
}

type completePaymentRequest struct {
	ProviderOrderID string `json:"provider_order_id" validate:"required"`
}

// PaymentComplete captures an approved provider order. The target order
// is resolved through the stored correlation, so the endpoint takes the
// provider's identifier rather than ours.
func PaymentComplete(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload completePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Complete(r.Context(), strings.TrimSpace(payload.ProviderOrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type refundPaymentRequest struct {
	Amount *string `json:"amount,omitempty"`
}

// PaymentRefund refunds a captured payment on an order the
// authenticated farmer sold. Omitting the amount refunds the remaining
// balance.
func PaymentRefund(svc paymentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
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
		order, err := orderSvc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.FarmerID != farmerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another farmer"))
			return
		}

		var payload refundPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := parseOptionalAmount(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refunded, err := svc.Refund(r.Context(), paymentsvc.RefundInput{
			OrderID: orderID,
			Amount:  amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refunded)
	}
}

// PaymentDetails reads the provider-side state of the latest payment
// attempt on an order the caller can see.
func PaymentDetails(svc paymentsvc.Service, orderSvc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		order, err := visibleOrder(r, orderSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := svc.Details(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}
