package farmers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/security"
)

// RegisterInput carries a new farmer signup.
type RegisterInput struct {
	Name            string
	FarmName        string
	Email           string
	Password        string
	Phone           *string
	AddressLine1    *string
	AddressLine2    *string
	City            *string
	Region          *string
	PostalCode      *string
	Country         string
	Description     *string
	FarmType        *string
	FarmSizeAcres   *decimal.Decimal
	EstablishedYear *int
	Certifications  []string
	WebsiteURL      *string
	BusinessHours   *string
}

// UpdateInput carries a partial profile edit. Nil fields are untouched.
type UpdateInput struct {
	Name            *string
	FarmName        *string
	Phone           *string
	AddressLine1    *string
	AddressLine2    *string
	City            *string
	Region          *string
	PostalCode      *string
	Country         *string
	Description     *string
	FarmType        *string
	FarmSizeAcres   *decimal.Decimal
	EstablishedYear *int
	Certifications  []string
	WebsiteURL      *string
	BusinessHours   *string
	ProfileImageURL *string
	IsActive        *bool
}

// Service defines farmer profile operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Farmer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Farmer, error)
	GetByEmail(ctx context.Context, email string) (*models.Farmer, error)
	List(ctx context.Context, filter ListFilter) ([]models.Farmer, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Farmer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo           Repository
	passwordCfg    config.PasswordConfig
	defaultCountry string
}

// NewService builds a farmer service with the required dependencies.
func NewService(repo Repository, passwordCfg config.PasswordConfig, defaultCountry string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("farmers repository required")
	}
	if defaultCountry == "" {
		defaultCountry = "Israel"
	}
	return &service{repo: repo, passwordCfg: passwordCfg, defaultCountry: defaultCountry}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Farmer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.Name == "" || input.FarmName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and farm name required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	country := input.Country
	if country == "" {
		country = s.defaultCountry
	}

	farmer := &models.Farmer{
		Name:            input.Name,
		FarmName:        input.FarmName,
		Email:           email,
		PasswordHash:    hash,
		Phone:           input.Phone,
		AddressLine1:    input.AddressLine1,
		AddressLine2:    input.AddressLine2,
		City:            input.City,
		Region:          input.Region,
		PostalCode:      input.PostalCode,
		Country:         country,
		Description:     input.Description,
		FarmType:        input.FarmType,
		FarmSizeAcres:   input.FarmSizeAcres,
		EstablishedYear: input.EstablishedYear,
		Certifications:  pq.StringArray(input.Certifications),
		WebsiteURL:      input.WebsiteURL,
		BusinessHours:   input.BusinessHours,
		IsActive:        true,
	}

	created, err := s.repo.Create(ctx, farmer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create farmer")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Farmer, error) {
	farmer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}
	return farmer, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.Farmer, error) {
	farmer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
	}
	return farmer, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Farmer, error) {
	farmers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list farmers")
	}
	return farmers, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Farmer, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
		}
		updates["name"] = *input.Name
	}
	if input.FarmName != nil {
		if *input.FarmName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "farm name required")
		}
		updates["farm_name"] = *input.FarmName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.AddressLine1 != nil {
		updates["address_line1"] = *input.AddressLine1
	}
	if input.AddressLine2 != nil {
		updates["address_line2"] = *input.AddressLine2
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.Region != nil {
		updates["region"] = *input.Region
	}
	if input.PostalCode != nil {
		updates["postal_code"] = *input.PostalCode
	}
	if input.Country != nil && *input.Country != "" {
		updates["country"] = *input.Country
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.FarmType != nil {
		updates["farm_type"] = *input.FarmType
	}
	if input.FarmSizeAcres != nil {
		updates["farm_size_acres"] = *input.FarmSizeAcres
	}
	if input.EstablishedYear != nil {
		updates["established_year"] = *input.EstablishedYear
	}
	if input.Certifications != nil {
		updates["certifications"] = pq.StringArray(input.Certifications)
	}
	if input.WebsiteURL != nil {
		updates["website_url"] = *input.WebsiteURL
	}
	if input.BusinessHours != nil {
		updates["business_hours"] = *input.BusinessHours
	}
	if input.ProfileImageURL != nil {
		updates["profile_image_url"] = *input.ProfileImageURL
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update farmer")
	}
	return s.Get(ctx, id)
}

// Deactivate retires the profile instead of deleting it; orders keep
// their farmer reference.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate farmer")
	}
	return nil
}
