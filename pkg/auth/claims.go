package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	UserType enums.UserType
	Email    string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	UserType enums.UserType `json:"user_type"`
	Email    string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}
