package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
)

type stubDiscountRepo struct {
	rates map[uuid.UUID]decimal.Decimal
}

func (s *stubDiscountRepo) WithTx(tx *gorm.DB) DiscountRepository {
	return s
}

func (s *stubDiscountRepo) FindRate(ctx context.Context, userID, productID uuid.UUID) (*decimal.Decimal, error) {
	if rate, ok := s.rates[productID]; ok {
		r := rate
		return &r, nil
	}
	return nil, nil
}

func (s *stubDiscountRepo) FindRates(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := map[uuid.UUID]decimal.Decimal{}
	for _, id := range productIDs {
		if rate, ok := s.rates[id]; ok {
			out[id] = rate
		}
	}
	return out, nil
}

func (s *stubDiscountRepo) UpsertRate(ctx context.Context, userID, productID uuid.UUID, rate decimal.Decimal) (*models.UserProductDiscount, error) {
	if s.rates == nil {
		s.rates = map[uuid.UUID]decimal.Decimal{}
	}
	s.rates[productID] = rate
	return &models.UserProductDiscount{UserID: userID, ProductID: productID, DiscountRate: rate}, nil
}

func (s *stubDiscountRepo) DeleteRate(ctx context.Context, userID, productID uuid.UUID) error {
	delete(s.rates, productID)
	return nil
}

func (s *stubDiscountRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserProductDiscount, error) {
	return nil, nil
}

func testUser(globalRate string) *models.User {
	return &models.User{
		ID:                 uuid.New(),
		GlobalDiscountRate: decimal.RequireFromString(globalRate),
	}
}

func testProduct(listPrice string) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		ListPrice: decimal.RequireFromString(listPrice),
	}
}

func TestEffectiveUnitPriceGlobalRate(t *testing.T) {
	user := testUser("10")
	product := testProduct("100.00")
	res, err := NewResolver(&stubDiscountRepo{})
	require.NoError(t, err)

	price, err := res.EffectiveUnitPrice(context.Background(), user, product)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("90.00")), "got %s", price)
}

func TestEffectiveUnitPriceSpecificOverridesGlobal(t *testing.T) {
	user := testUser("10")
	product := testProduct("100.00")
	repo := &stubDiscountRepo{rates: map[uuid.UUID]decimal.Decimal{
		product.ID: decimal.RequireFromString("25"),
	}}
	res, err := NewResolver(repo)
	require.NoError(t, err)

	price, err := res.EffectiveUnitPrice(context.Background(), user, product)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("75.00")), "got %s", price)
}

func TestEffectiveUnitPriceZeroOverrideFallsThrough(t *testing.T) {
	user := testUser("10")
	product := testProduct("100.00")
	repo := &stubDiscountRepo{rates: map[uuid.UUID]decimal.Decimal{
		product.ID: decimal.Zero,
	}}
	res, err := NewResolver(repo)
	require.NoError(t, err)

	price, err := res.EffectiveUnitPrice(context.Background(), user, product)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("90.00")), "got %s", price)
}

func TestEffectiveUnitPriceClampsRate(t *testing.T) {
	res, err := NewResolver(&stubDiscountRepo{})
	require.NoError(t, err)

	over := testUser("150")
	product := testProduct("40.00")
	price, err := res.EffectiveUnitPrice(context.Background(), over, product)
	require.NoError(t, err)
	assert.True(t, price.IsZero(), "got %s", price)

	negative := testUser("-5")
	price, err = res.EffectiveUnitPrice(context.Background(), negative, product)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("40.00")), "got %s", price)
}

func TestEffectiveUnitPriceRoundsToCents(t *testing.T) {
	user := testUser("33.33")
	product := testProduct("19.99")
	res, err := NewResolver(&stubDiscountRepo{})
	require.NoError(t, err)

	price, err := res.EffectiveUnitPrice(context.Background(), user, product)
	require.NoError(t, err)
	// 19.99 * 0.6667 = 13.327333 -> 13.33
	assert.True(t, price.Equal(decimal.RequireFromString("13.33")), "got %s", price)
	assert.True(t, price.LessThanOrEqual(product.ListPrice))
}

func TestEffectiveUnitPricesBulk(t *testing.T) {
	user := testUser("10")
	discounted := testProduct("100.00")
	plain := testProduct("50.00")
	repo := &stubDiscountRepo{rates: map[uuid.UUID]decimal.Decimal{
		discounted.ID: decimal.RequireFromString("25"),
	}}
	res, err := NewResolver(repo)
	require.NoError(t, err)

	prices, err := res.EffectiveUnitPrices(context.Background(), user, []models.Product{*discounted, *plain})
	require.NoError(t, err)
	assert.True(t, prices[discounted.ID].Equal(decimal.RequireFromString("75.00")))
	assert.True(t, prices[plain.ID].Equal(decimal.RequireFromString("45.00")))
}
