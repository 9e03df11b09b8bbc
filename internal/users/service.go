package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

var oneHundred = decimal.NewFromInt(100)

// Service exposes account reads plus the admin-side discount management.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListCustomers(ctx context.Context, params pagination.Params) (*CustomerList, error)
	SetGlobalDiscount(ctx context.Context, userID uuid.UUID, rate decimal.Decimal) error
	SetProductDiscount(ctx context.Context, userID, productID uuid.UUID, rate decimal.Decimal) (*models.UserProductDiscount, error)
	RemoveProductDiscount(ctx context.Context, userID, productID uuid.UUID) error
	ListProductDiscounts(ctx context.Context, userID uuid.UUID) ([]models.UserProductDiscount, error)
}

type service struct {
	repo      Repository
	discounts pricing.DiscountRepository
}

// NewService builds the account service.
func NewService(repo Repository, discounts pricing.DiscountRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo, discounts: discounts}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return user, nil
}

func (s *service) ListCustomers(ctx context.Context, params pagination.Params) (*CustomerList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return list, nil
}

func (s *service) SetGlobalDiscount(ctx context.Context, userID uuid.UUID, rate decimal.Decimal) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetGlobalDiscount(ctx, userID, rate); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update global discount")
	}
	return nil
}

func (s *service) SetProductDiscount(ctx context.Context, userID, productID uuid.UUID, rate decimal.Decimal) (*models.UserProductDiscount, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	row, err := s.discounts.UpsertRate(ctx, userID, productID, rate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert product discount")
	}
	return row, nil
}

func (s *service) RemoveProductDiscount(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.discounts.DeleteRate(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product discount")
	}
	return nil
}

func (s *service) ListProductDiscounts(ctx context.Context, userID uuid.UUID) ([]models.UserProductDiscount, error) {
	rows, err := s.discounts.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product discounts")
	}
	return rows, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(oneHundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount rate must be between 0 and 100")
	}
	return nil
}
