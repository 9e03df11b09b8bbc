package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
)

type stubCartRepo struct {
	items map[uuid.UUID]map[uuid.UUID]*models.CartItem
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: make(map[uuid.UUID]map[uuid.UUID]*models.CartItem)}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range s.items[userID] {
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[userID][productID]
	if !ok {
		return nil, nil
	}
	return item, nil
}

func (s *stubCartRepo) Upsert(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if s.items[item.UserID] == nil {
		s.items[item.UserID] = make(map[uuid.UUID]*models.CartItem)
	}
	s.items[item.UserID][item.ProductID] = item
	return item, nil
}

func (s *stubCartRepo) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	delete(s.items[userID], productID)
	return nil
}

func (s *stubCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(s.items, userID)
	return nil
}

type stubProductRepo struct {
	catalog.Repository
	products map[uuid.UUID]*models.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

type stubUserRepo struct {
	users.Repository
	byID map[uuid.UUID]*models.User
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubResolver struct {
	price decimal.Decimal
}

func (s *stubResolver) EffectiveUnitPrice(ctx context.Context, user *models.User, product *models.Product) (decimal.Decimal, error) {
	return s.price, nil
}

func (s *stubResolver) EffectiveUnitPrices(ctx context.Context, user *models.User, products []models.Product) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, product := range products {
		out[product.ID] = s.price
	}
	return out, nil
}

type cartFixture struct {
	svc      Service
	repo     *stubCartRepo
	products *stubProductRepo
	resolver *stubResolver
	product  models.Product
	userID   uuid.UUID
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	userID := uuid.New()
	product := models.Product{
		ID:        uuid.New(),
		SKU:       "BRK-1001",
		Name:      "Front brake pad set",
		ListPrice: decimal.RequireFromString("10.00"),
		StockQty:  10,
		IsActive:  true,
	}

	repo := newStubCartRepo()
	products := newStubProductRepo()
	products.products[product.ID] = &product
	userRepo := &stubUserRepo{byID: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "shop@example.com", IsActive: true, IsVerified: true},
	}}
	resolver := &stubResolver{price: decimal.RequireFromString("8.50")}

	svc, err := NewService(repo, products, userRepo, resolver, decimal.RequireFromString("0.13"))
	require.NoError(t, err)

	return &cartFixture{
		svc:      svc,
		repo:     repo,
		products: products,
		resolver: resolver,
		product:  product,
		userID:   userID,
	}
}

func TestAddItemSnapshotsEffectivePrice(t *testing.T) {
	f := newCartFixture(t)

	view, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 3)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	line := view.Lines[0]
	assert.True(t, line.Item.PriceAtEntry.Equal(decimal.RequireFromString("8.50")))
	assert.Equal(t, 3, line.Item.Quantity)
	assert.True(t, line.LineTotal.Equal(decimal.RequireFromString("25.50")))

	assert.True(t, view.Totals.Subtotal.Equal(decimal.RequireFromString("25.50")))
	assert.True(t, view.Totals.Tax.Equal(decimal.RequireFromString("3.315")))
	assert.True(t, view.Totals.Total.Equal(decimal.RequireFromString("28.82")))
}

func TestAddItemKeepsSnapshotWhenPriceChanges(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 2)
	require.NoError(t, err)

	// A later discount change must not touch lines already in the cart.
	f.resolver.price = decimal.RequireFromString("5.00")

	view, err := f.svc.Get(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].Item.PriceAtEntry.Equal(decimal.RequireFromString("8.50")))
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 0)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	f := newCartFixture(t)
	f.products.products[f.product.ID].IsActive = false

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 1)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 11)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, uuid.New(), 1)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateItemChangesQuantity(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 2)
	require.NoError(t, err)

	view, err := f.svc.UpdateItem(context.Background(), f.userID, f.product.ID, 5)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Item.Quantity)
}

func TestUpdateItemNotInCart(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.UpdateItem(context.Background(), f.userID, f.product.ID, 2)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 2)
	require.NoError(t, err)

	view, err := f.svc.RemoveItem(context.Background(), f.userID, f.product.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Totals.Total.IsZero())

	_, err = f.svc.AddItem(context.Background(), f.userID, f.product.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(context.Background(), f.userID))

	view, err = f.svc.Get(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestGetDropsOrphanedLines(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 2)
	require.NoError(t, err)

	// Product deleted from the catalog after being carted.
	delete(f.products.products, f.product.ID)

	view, err := f.svc.Get(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Totals.Total.IsZero())
}
