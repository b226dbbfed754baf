package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtoyou/fieldtoyou-backend/api/middleware"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").
			WithDetails(map[string]any{"param": name})
	}
	return parsed, nil
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
			WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func parseOptionalAmount(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := parseAmount(*raw, field)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// authedUserID pulls the authenticated account out of the request
// context seeded by the Auth middleware.
func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return parsed, nil
}

// sessionID reads the storefront session key; carts and checkout are
// scoped by it rather than by account.
func sessionID(r *http.Request) (string, error) {
	session := strings.TrimSpace(r.Header.Get("X-Session-ID"))
	if session == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "X-Session-ID header required")
	}
	return session, nil
}
