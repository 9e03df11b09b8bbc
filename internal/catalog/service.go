package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	"github.com/gearsupply/gearsupply-backend/pkg/db"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// ProductView is a product decorated with the caller's effective unit price.
// EffectivePrice equals ListPrice for anonymous browsing.
type ProductView struct {
	Product        models.Product
	EffectivePrice decimal.Decimal
}

// ProductViewList pages decorated products.
type ProductViewList struct {
	Products   []ProductView
	NextCursor string
}

// CreateProductInput carries admin product creation fields.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description *string
	Brand       string
	Category    string
	Fitment     []string
	ListPrice   decimal.Decimal
	BuyPrice    decimal.Decimal
	StockQty    int
}

// UpdateProductInput carries optional admin updates; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Brand       *string
	Category    *string
	Fitment     []string
	ListPrice   *decimal.Decimal
	BuyPrice    *decimal.Decimal
	StockQty    *int
	IsActive    *bool
	ImagePath   *string
}

// Service exposes catalog browsing and admin product management.
type Service interface {
	Browse(ctx context.Context, userID *uuid.UUID, params pagination.Params, filters ProductFilters) (*ProductViewList, error)
	GetProduct(ctx context.Context, userID *uuid.UUID, productID uuid.UUID) (*ProductView, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	repo     Repository
	users    users.Repository
	resolver pricing.Resolver
}

// NewService builds the catalog service.
func NewService(repo Repository, userRepo users.Repository, resolver pricing.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	return &service{repo: repo, users: userRepo, resolver: resolver}, nil
}

// Browse lists active products. Authenticated customers see their effective prices.
func (s *service) Browse(ctx context.Context, userID *uuid.UUID, params pagination.Params, filters ProductFilters) (*ProductViewList, error) {
	filters.ActiveOnly = true

	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	views, err := s.decorate(ctx, userID, list.Products)
	if err != nil {
		return nil, err
	}
	return &ProductViewList{Products: views, NextCursor: list.NextCursor}, nil
}

func (s *service) GetProduct(ctx context.Context, userID *uuid.UUID, productID uuid.UUID) (*ProductView, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	views, err := s.decorate(ctx, userID, []models.Product{*product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.ListPrice.IsNegative() || input.BuyPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}

	product := &models.Product{
		SKU:         sku,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Brand:       strings.TrimSpace(input.Brand),
		Category:    strings.TrimSpace(input.Category),
		Fitment:     input.Fitment,
		ListPrice:   input.ListPrice,
		BuyPrice:    input.BuyPrice,
		StockQty:    input.StockQty,
		IsActive:    true,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_products_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %q already exists", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Fitment != nil {
		product.Fitment = input.Fitment
	}
	if input.ListPrice != nil {
		if input.ListPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "list price must not be negative")
		}
		product.ListPrice = *input.ListPrice
	}
	if input.BuyPrice != nil {
		if input.BuyPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy price must not be negative")
		}
		product.BuyPrice = *input.BuyPrice
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		product.StockQty = *input.StockQty
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.ImagePath != nil {
		product.ImagePath = input.ImagePath
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

// DeactivateProduct hides the product from the catalog. Existing documents
// keep their snapshots, so nothing is deleted.
func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	inactive := false
	_, err := s.UpdateProduct(ctx, productID, UpdateProductInput{IsActive: &inactive})
	return err
}

func (s *service) decorate(ctx context.Context, userID *uuid.UUID, products []models.Product) ([]ProductView, error) {
	views := make([]ProductView, 0, len(products))

	if userID == nil {
		for _, product := range products {
			views = append(views, ProductView{Product: product, EffectivePrice: product.ListPrice})
		}
		return views, nil
	}

	user, err := s.users.FindByID(ctx, *userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	prices, err := s.resolver.EffectiveUnitPrices(ctx, user, products)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		price, ok := prices[product.ID]
		if !ok {
			price = product.ListPrice
		}
		views = append(views, ProductView{Product: product, EffectivePrice: price})
	}
	return views, nil
}
