package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
)

// Line is a cart row joined with its product and extension.
type Line struct {
	Item      models.CartItem
	Product   models.Product
	LineTotal decimal.Decimal
}

// View is the customer's cart with aggregated totals. Totals are rounded for
// presentation and derive from the unit prices snapshotted when each line was
// added; checkout charges those same snapshots.
type View struct {
	Lines  []Line
	Totals pricing.Totals
}

// Service manages the customer's cart.
type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	products catalog.Repository
	users    users.Repository
	resolver pricing.Resolver
	taxRate  decimal.Decimal
}

// NewService builds the cart service.
func NewService(repo Repository, products catalog.Repository, userRepo users.Repository, resolver pricing.Resolver, taxRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	return &service{
		repo:     repo,
		products: products,
		users:    userRepo,
		resolver: resolver,
		taxRate:  taxRate,
	}, nil
}

// AddItem puts the product in the cart with the customer's current effective
// price snapshotted. Adding an existing product replaces its quantity.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}
	if product.StockQty < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
	}

	price, err := s.resolver.EffectiveUnitPrice(ctx, user, product)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{
		UserID:       userID,
		ProductID:    productID,
		Quantity:     quantity,
		PriceAtEntry: price,
	}
	if _, err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}

	return s.Get(ctx, userID)
}

// UpdateItem changes the quantity of an existing line.
func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	existing, err := s.repo.FindItem(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.StockQty < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
	}

	existing.Quantity = quantity
	if _, err := s.repo.Upsert(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.Get(ctx, userID)
}

// Get assembles the cart view from the snapshotted entry prices.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	lines := make([]Line, 0, len(items))
	totalLines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			// Product removed since it was carted; drop the orphan line.
			continue
		}
		lines = append(lines, Line{
			Item:      item,
			Product:   product,
			LineTotal: pricing.LineTotal(item.PriceAtEntry, item.Quantity),
		})
		totalLines = append(totalLines, pricing.Line{UnitPrice: item.PriceAtEntry, Quantity: item.Quantity})
	}

	totals := pricing.ComputeTotals(totalLines, s.taxRate).Rounded()
	return &View{Lines: lines, Totals: totals}, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return user, nil
}
