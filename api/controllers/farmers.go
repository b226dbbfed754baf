package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	farmersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/farmers"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type registerFarmerRequest struct {
	Name            string   `json:"name" validate:"required"`
	FarmName        string   `json:"farm_name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	Phone           *string  `json:"phone,omitempty"`
	AddressLine1    *string  `json:"address_line1,omitempty"`
	AddressLine2    *string  `json:"address_line2,omitempty"`
	City            *string  `json:"city,omitempty"`
	Region          *string  `json:"region,omitempty"`
	PostalCode      *string  `json:"postal_code,omitempty"`
	Country         string   `json:"country,omitempty"`
	Description     *string  `json:"description,omitempty"`
	FarmType        *string  `json:"farm_type,omitempty"`
	FarmSizeAcres   *string  `json:"farm_size_acres,omitempty"`
	EstablishedYear *int     `json:"established_year,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	WebsiteURL      *string  `json:"website_url,omitempty"`
	BusinessHours   *string  `json:"business_hours,omitempty"`
}

// FarmerRegister creates a new seller profile.
func FarmerRegister(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		var payload registerFarmerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var farmSize *decimal.Decimal
		if payload.FarmSizeAcres != nil {
			parsed, err := parseAmount(*payload.FarmSizeAcres, "farm_size_acres")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			farmSize = &parsed
		}

		farmer, err := svc.Register(r.Context(), farmersvc.RegisterInput{
			Name:            strings.TrimSpace(payload.Name),
			FarmName:        strings.TrimSpace(payload.FarmName),
			Email:           payload.Email,
			Password:        payload.Password,
			Phone:           payload.Phone,
			AddressLine1:    payload.AddressLine1,
			AddressLine2:    payload.AddressLine2,
			City:            payload.City,
			Region:          payload.Region,
			PostalCode:      payload.PostalCode,
			Country:         strings.TrimSpace(payload.Country),
			Description:     payload.Description,
			FarmType:        payload.FarmType,
			FarmSizeAcres:   farmSize,
			EstablishedYear: payload.EstablishedYear,
			Certifications:  payload.Certifications,
			WebsiteURL:      payload.WebsiteURL,
			BusinessHours:   payload.BusinessHours,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, farmer)
	}
}

// FarmerList is the public farmer directory.
func FarmerList(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := farmersvc.ListFilter{
			ActiveOnly: true,
			Search:     r.URL.Query().Get("search"),
			Limit:      limit,
			Offset:     offset,
		}
		if farmType := strings.TrimSpace(r.URL.Query().Get("farm_type")); farmType != "" {
			filter.FarmType = &farmType
		}

		farmers, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, farmers)
	}
}

// FarmerDetail returns one public farmer profile.
func FarmerDetail(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		id, err := pathUUID(r, "farmerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, farmer)
	}
}

type updateFarmerRequest struct {
	Name            *string  `json:"name,omitempty"`
	FarmName        *string  `json:"farm_name,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	AddressLine1    *string  `json:"address_line1,omitempty"`
	AddressLine2    *string  `json:"address_line2,omitempty"`
	City            *string  `json:"city,omitempty"`
	Region          *string  `json:"region,omitempty"`
	PostalCode      *string  `json:"postal_code,omitempty"`
	Country         *string  `json:"country,omitempty"`
	Description     *string  `json:"description,omitempty"`
	FarmType        *string  `json:"farm_type,omitempty"`
	FarmSizeAcres   *string  `json:"farm_size_acres,omitempty"`
	EstablishedYear *int     `json:"established_year,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	WebsiteURL      *string  `json:"website_url,omitempty"`
	BusinessHours   *string  `json:"business_hours,omitempty"`
	ProfileImageURL *string  `json:"profile_image_url,omitempty"`
}

// FarmerUpdateProfile edits the authenticated farmer's own profile.
func FarmerUpdateProfile(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		id, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateFarmerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmSize, err := parseOptionalAmount(payload.FarmSizeAcres, "farm_size_acres")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.Update(r.Context(), id, farmersvc.UpdateInput{
			Name:            payload.Name,
			FarmName:        payload.FarmName,
			Phone:           payload.Phone,
			AddressLine1:    payload.AddressLine1,
			AddressLine2:    payload.AddressLine2,
			City:            payload.City,
			Region:          payload.Region,
			PostalCode:      payload.PostalCode,
			Country:         payload.Country,
			Description:     payload.Description,
			FarmType:        payload.FarmType,
			FarmSizeAcres:   farmSize,
			EstablishedYear: payload.EstablishedYear,
			Certifications:  payload.Certifications,
			WebsiteURL:      payload.WebsiteURL,
			BusinessHours:   payload.BusinessHours,
			ProfileImageURL: payload.ProfileImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, farmer)
	}
}

// FarmerProfile returns the authenticated farmer's own profile.
func FarmerProfile(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}

		id, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, farmer)
	}
}

// FarmerDeactivate retires the authenticated farmer's profile.
func FarmerDeactivate(svc farmersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
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
