package controllers

import (
	"net/http"
	"strings"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	customersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/customers"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type registerCustomerRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	Phone          *string `json:"phone,omitempty"`
	AddressLine1   *string `json:"address_line1,omitempty"`
	AddressLine2   *string `json:"address_line2,omitempty"`
	City           *string `json:"city,omitempty"`
	Region         *string `json:"region,omitempty"`
	PostalCode     *string `json:"postal_code,omitempty"`
	Country        string  `json:"country,omitempty"`
	MarketingOptIn bool    `json:"marketing_opt_in,omitempty"`
}

// CustomerRegister creates a new buyer account.
func CustomerRegister(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload registerCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Register(r.Context(), customersvc.RegisterInput{
			FirstName:      strings.TrimSpace(payload.FirstName),
			LastName:       strings.TrimSpace(payload.LastName),
			Email:          payload.Email,
			Password:       payload.Password,
			Phone:          payload.Phone,
			AddressLine1:   payload.AddressLine1,
			AddressLine2:   payload.AddressLine2,
			City:           payload.City,
			Region:         payload.Region,
			PostalCode:     payload.PostalCode,
			Country:        strings.TrimSpace(payload.Country),
			MarketingOptIn: payload.MarketingOptIn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

// CustomerProfile returns the authenticated customer's account.
func CustomerProfile(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

type updateCustomerRequest struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	AddressLine1   *string `json:"address_line1,omitempty"`
	AddressLine2   *string `json:"address_line2,omitempty"`
	City           *string `json:"city,omitempty"`
	Region         *string `json:"region,omitempty"`
	PostalCode     *string `json:"postal_code,omitempty"`
	Country        *string `json:"country,omitempty"`
	MarketingOptIn *bool   `json:"marketing_opt_in,omitempty"`
}

// CustomerUpdateProfile edits the authenticated customer's account.
func CustomerUpdateProfile(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), id, customersvc.UpdateInput{
			FirstName:      payload.FirstName,
			LastName:       payload.LastName,
			Phone:          payload.Phone,
			AddressLine1:   payload.AddressLine1,
			AddressLine2:   payload.AddressLine2,
			City:           payload.City,
			Region:         payload.Region,
			PostalCode:     payload.PostalCode,
			Country:        payload.Country,
			MarketingOptIn: payload.MarketingOptIn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// CustomerDeactivate closes the authenticated customer's account.
func CustomerDeactivate(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
