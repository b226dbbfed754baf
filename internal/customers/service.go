package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	pkgerrors "github.com/fieldtoyou/fieldtoyou-backend/pkg/errors"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/security"
)

// RegisterInput carries a new customer signup.
type RegisterInput struct {
	FirstName      string
	LastName       string
	Email          string
	Password       string
	Phone          *string
	AddressLine1   *string
	AddressLine2   *string
	City           *string
	Region         *string
	PostalCode     *string
	Country        string
	MarketingOptIn bool
}

// UpdateInput carries a partial account edit. Nil fields are untouched.
type UpdateInput struct {
	FirstName      *string
	LastName       *string
	Phone          *string
	AddressLine1   *string
	AddressLine2   *string
	City           *string
	Region         *string
	PostalCode     *string
	Country        *string
	MarketingOptIn *bool
	IsActive       *bool
}

// Service defines customer account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Customer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo           Repository
	passwordCfg    config.PasswordConfig
	defaultCountry string
}

// NewService builds a customer service with the required dependencies.
func NewService(repo Repository, passwordCfg config.PasswordConfig, defaultCountry string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if defaultCountry == "" {
		defaultCountry = "Israel"
	}
	return &service{repo: repo, passwordCfg: passwordCfg, defaultCountry: defaultCountry}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name required")
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

	customer := &models.Customer{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          email,
		PasswordHash:   hash,
		Phone:          input.Phone,
		AddressLine1:   input.AddressLine1,
		AddressLine2:   input.AddressLine2,
		City:           input.City,
		Region:         input.Region,
		PostalCode:     input.PostalCode,
		Country:        country,
		MarketingOptIn: input.MarketingOptIn,
		IsActive:       true,
	}

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Customer, error) {
	customers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return customers, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Customer, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name required")
		}
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name required")
		}
		updates["last_name"] = *input.LastName
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
	if input.MarketingOptIn != nil {
		updates["marketing_opt_in"] = *input.MarketingOptIn
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return s.Get(ctx, id)
}

// Deactivate closes the account without deleting it; order history stays
// attached.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate customer")
	}
	return nil
}
