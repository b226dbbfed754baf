package controllers

import (
	"net/http"
	"strings"

	"github.com/fieldtoyou/fieldtoyou-backend/api/responses"
	"github.com/fieldtoyou/fieldtoyou-backend/api/validators"
	authsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/auth"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type" validate:"required"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserType     string `json:"user_type"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
}

// AuthLogin authenticates a farmer or customer account.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), authsvc.LoginRequest{
			Email:    payload.Email,
			Password: payload.Password,
			UserType: enums.UserType(strings.ToUpper(strings.TrimSpace(payload.UserType))),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			UserType:     string(result.UserType),
			UserID:       result.UserID,
			Email:        result.Email,
			DisplayName:  result.DisplayName,
		})
	}
}

type refreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthRefresh rotates the refresh token and issues a new pair.
func AuthRefresh(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload refreshRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refresh(r.Context(), authsvc.RefreshRequest{
			AccessToken:  payload.AccessToken,
			RefreshToken: payload.RefreshToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, refreshResponse{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		})
	}
}

// AuthLogout revokes the session tied to the presented access token.
func AuthLogout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
