package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/fieldtoyou/fieldtoyou-backend/pkg/auth"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/auth/session"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// LoginRequest carries one login attempt for either account type.
type LoginRequest struct {
	Email    string
	Password string
	UserType enums.UserType
}

// LoginResponse is the issued token pair plus the identity it belongs to.
type LoginResponse struct {
	AccessToken  string
	RefreshToken string
	UserType     enums.UserType
	UserID       string
	Email        string
	DisplayName  string
}

// RefreshRequest rotates a session using the expired access token's jti.
type RefreshRequest struct {
	AccessToken  string
	RefreshToken string
}

// RefreshResponse is the replacement token pair.
type RefreshResponse struct {
	AccessToken  string
	RefreshToken string
}

// Service defines the authentication flows.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

type farmerDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.Farmer, error)
}

type customerDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Farmers        farmerDirectory
	Customers      customerDirectory
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

type service struct {
	farmers   farmerDirectory
	customers customerDirectory
	session   sessionManager
	jwtCfg    config.JWTConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Farmers == nil {
		return nil, fmt.Errorf("farmer directory is required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		farmers:   params.Farmers,
		customers: params.Customers,
		session:   params.SessionManager,
		jwtCfg:    params.JWTConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !req.UserType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid user type %q", req.UserType))
	}

	identity, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   identity.id,
		UserType: req.UserType,
		Email:    identity.email,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserType:     req.UserType,
		UserID:       identity.id.String(),
		Email:        identity.email,
		DisplayName:  identity.displayName,
	}, nil
}

// Refresh rotates the refresh token tied to the access token's jti and
// issues a fresh pair. The access token may be expired; only its
// signature has to hold.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   claims.UserID,
		UserType: claims.UserType,
		Email:    claims.Email,
		JTI:      newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &RefreshResponse{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

type identity struct {
	id          uuid.UUID
	email       string
	displayName string
}

func (s *service) authenticate(ctx context.Context, req LoginRequest) (*identity, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	var (
		id          uuid.UUID
		hash        string
		active      bool
		displayName string
	)

	switch req.UserType {
	case enums.UserTypeFarmer:
		farmer, err := s.farmers.FindByEmail(ctx, email)
		if err != nil {
			return nil, lookupError(err)
		}
		id, hash, active = farmer.ID, farmer.PasswordHash, farmer.IsActive
		displayName = farmer.Name
	case enums.UserTypeCustomer:
		customer, err := s.customers.FindByEmail(ctx, email)
		if err != nil {
			return nil, lookupError(err)
		}
		id, hash, active = customer.ID, customer.PasswordHash, customer.IsActive
		displayName = strings.TrimSpace(customer.FirstName + " " + customer.LastName)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !active {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return &identity{id: id, email: email, displayName: displayName}, nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
}
