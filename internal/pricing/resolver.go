package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)
)

// Resolver computes customer-effective unit prices. Precedence: a positive
// product-specific override beats the customer's global rate; a zero or
// missing override falls through to the global rate.
type Resolver interface {
	EffectiveUnitPrice(ctx context.Context, user *models.User, product *models.Product) (decimal.Decimal, error)
	EffectiveUnitPrices(ctx context.Context, user *models.User, products []models.Product) (map[uuid.UUID]decimal.Decimal, error)
}

type resolver struct {
	discounts DiscountRepository
}

// NewResolver builds a price resolver backed by the discount repository.
func NewResolver(discounts DiscountRepository) (Resolver, error) {
	if discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &resolver{discounts: discounts}, nil
}

func (r *resolver) EffectiveUnitPrice(ctx context.Context, user *models.User, product *models.Product) (decimal.Decimal, error) {
	if user == nil || product == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user and product required")
	}

	specific, err := r.discounts.FindRate(ctx, user.ID, product.ID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product discount")
	}

	rate := pickRate(specific, user.GlobalDiscountRate)
	return ApplyDiscount(product.ListPrice, rate), nil
}

func (r *resolver) EffectiveUnitPrices(ctx context.Context, user *models.User, products []models.Product) (map[uuid.UUID]decimal.Decimal, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}

	ids := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}

	overrides, err := r.discounts.FindRates(ctx, user.ID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product discounts")
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, product := range products {
		var specific *decimal.Decimal
		if rate, ok := overrides[product.ID]; ok {
			r := rate
			specific = &r
		}
		prices[product.ID] = ApplyDiscount(product.ListPrice, pickRate(specific, user.GlobalDiscountRate))
	}
	return prices, nil
}

// pickRate returns the override when it is set and positive; otherwise the
// global rate. A stored zero override is treated as "no override".
func pickRate(specific *decimal.Decimal, global decimal.Decimal) decimal.Decimal {
	if specific != nil && specific.IsPositive() {
		return *specific
	}
	return global
}

// ApplyDiscount reduces the list price by rate percent, clamped to [0, 100],
// and rounds to cents. The result never exceeds the list price.
func ApplyDiscount(listPrice, rate decimal.Decimal) decimal.Decimal {
	clamped := clampRate(rate)
	multiplier := hundred.Sub(clamped).Div(hundred)
	price := listPrice.Mul(multiplier).Round(2)
	if price.GreaterThan(listPrice) {
		return listPrice
	}
	return price
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}
