package checkout

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/cart"
	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/internal/orders"
	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
	"github.com/gearsupply/gearsupply-backend/pkg/square"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCounterRepo struct {
	next int64
}

func (s *stubCounterRepo) WithTx(tx *gorm.DB) sequence.Repository { return s }

func (s *stubCounterRepo) AllocateNext(ctx context.Context, entity enums.DocumentType) (string, error) {
	claimed := s.next
	s.next++
	return fmt.Sprintf("OR%d", claimed), nil
}

func (s *stubCounterRepo) Peek(ctx context.Context, entity enums.DocumentType) (string, int64, error) {
	return "OR", s.next, nil
}

type stubOrderRepo struct {
	created       []*models.Order
	statusUpdates []enums.OrderStatus
	transactionID string
	finalStatus   enums.OrderStatus
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = append(s.created, order)
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) List(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}

func (s *stubOrderRepo) SetTransaction(ctx context.Context, id uuid.UUID, transactionID string, status enums.OrderStatus) error {
	s.transactionID = transactionID
	s.finalStatus = status
	return nil
}

type stubStockRepo struct {
	catalog.Repository
	adjustments map[uuid.UUID]int
	available   map[uuid.UUID]int
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{
		adjustments: make(map[uuid.UUID]int),
		available:   make(map[uuid.UUID]int),
	}
}

func (s *stubStockRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubStockRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	if limit, ok := s.available[id]; ok && delta < 0 && -delta > limit+s.adjustments[id] {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
	}
	s.adjustments[id] += delta
	return nil
}

type stubCartService struct {
	view    *cart.View
	cleared bool
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.View, error) {
	return s.view, nil
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.View, error) {
	return s.view, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.View, error) {
	return s.view, nil
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return s.view, nil
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return nil
}

type stubGateway struct {
	err     error
	charges []square.PaymentCreateParams
}

func (s *stubGateway) ChargeCard(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	s.charges = append(s.charges, params)
	if s.err != nil {
		return nil, s.err
	}
	id := "sq-payment-1"
	return &sq.Payment{ID: &id}, nil
}

func (s *stubGateway) RefundPayment(ctx context.Context, params square.RefundCreateParams) (*sq.PaymentRefund, error) {
	return &sq.PaymentRefund{}, nil
}

func (s *stubGateway) LocationID() string { return "loc-test" }

type checkoutFixture struct {
	svc     Service
	repo    *stubOrderRepo
	stock   *stubStockRepo
	carts   *stubCartService
	gateway *stubGateway
	product models.Product
	userID  uuid.UUID
}

func newCheckoutFixture(t *testing.T, gatewayErr error) *checkoutFixture {
	t.Helper()

	product := models.Product{
		ID:   uuid.New(),
		SKU:  "BRK-1001",
		Name: "Front brake pad set",
	}
	view := &cart.View{
		Lines: []cart.Line{
			{
				Item: models.CartItem{
					ProductID:    product.ID,
					Quantity:     3,
					PriceAtEntry: decimal.RequireFromString("8.50"),
				},
				Product:   product,
				LineTotal: decimal.RequireFromString("25.50"),
			},
		},
		Totals: pricing.Totals{
			Subtotal: decimal.RequireFromString("25.50"),
			Tax:      decimal.RequireFromString("3.315"),
			Total:    decimal.RequireFromString("28.82"),
		},
	}

	repo := &stubOrderRepo{}
	stock := newStubStockRepo()
	carts := &stubCartService{view: view}
	gateway := &stubGateway{err: gatewayErr}

	allocator, err := sequence.NewAllocator(&stubCounterRepo{next: 21000}, stubTxRunner{}, metrics.NewCommerceMetrics(nil))
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, carts, stock, allocator, gateway, stubTxRunner{}, metrics.NewCommerceMetrics(nil), "USD", logg)
	require.NoError(t, err)

	return &checkoutFixture{
		svc:     svc,
		repo:    repo,
		stock:   stock,
		carts:   carts,
		gateway: gateway,
		product: product,
		userID:  uuid.New(),
	}
}

func TestPlaceOrderChargesAndClearsCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	order, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{SourceID: "cnon:card-nonce"})
	require.NoError(t, err)

	assert.Equal(t, "OR21000", order.OrderNumber)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "sq-payment-1", *order.TransactionID)

	require.Len(t, f.gateway.charges, 1)
	assert.Equal(t, int64(2882), f.gateway.charges[0].AmountCents)
	assert.Equal(t, "OR21000", f.gateway.charges[0].ReferenceID)

	assert.Equal(t, -3, f.stock.adjustments[f.product.ID])
	assert.True(t, f.carts.cleared)
	assert.Equal(t, enums.OrderStatusPaid, f.repo.finalStatus)
}

func TestPlaceOrderDeclinedReleasesStock(t *testing.T) {
	declined := pkgerrors.New(pkgerrors.CodePayment, "payment declined")
	f := newCheckoutFixture(t, declined)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{SourceID: "cnon:card-nonce"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodePayment, appErr.Code())

	// Reservation rolled back and the order left cancelled.
	assert.Equal(t, 0, f.stock.adjustments[f.product.ID])
	require.Len(t, f.repo.statusUpdates, 1)
	assert.Equal(t, enums.OrderStatusCancelled, f.repo.statusUpdates[0])
	assert.False(t, f.carts.cleared)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.stock.available[f.product.ID] = 2

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{SourceID: "cnon:card-nonce"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Empty(t, f.gateway.charges)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.carts.view = &cart.View{}

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{SourceID: "cnon:card-nonce"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestPlaceOrderRequiresSource(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{SourceID: "  "})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Empty(t, f.gateway.charges)
}
