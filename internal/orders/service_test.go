package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

type stubOrderRepo struct {
	orders        map[uuid.UUID]*models.Order
	statusUpdates []enums.OrderStatus
}

func newStubOrderRepo(orders ...*models.Order) *stubOrderRepo {
	repo := &stubOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.OrderNumber == number {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) List(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if filters.UserID != nil && order.UserID != *filters.UserID {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		rows = append(rows, *order)
	}
	return &OrderList{Orders: rows}, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if order, ok := s.orders[id]; ok {
		order.Status = status
	}
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}

func (s *stubOrderRepo) SetTransaction(ctx context.Context, id uuid.UUID, transactionID string, status enums.OrderStatus) error {
	if order, ok := s.orders[id]; ok {
		order.TransactionID = &transactionID
		order.Status = status
	}
	return nil
}

type stubStockRepo struct {
	catalog.Repository
	adjustments map[uuid.UUID]int
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{adjustments: make(map[uuid.UUID]int)}
}

func (s *stubStockRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubStockRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	s.adjustments[id] += delta
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func orderFixture(userID uuid.UUID, status enums.OrderStatus) *models.Order {
	productID := uuid.New()
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "OR21000",
		UserID:      userID,
		Status:      status,
		Subtotal:    decimal.RequireFromString("25.50"),
		Tax:         decimal.RequireFromString("3.315"),
		Total:       decimal.RequireFromString("28.82"),
		Currency:    "USD",
		Items: []models.OrderItem{
			{
				ID:        uuid.New(),
				ProductID: productID,
				SKU:       "BRK-1001",
				Name:      "Front brake pad set",
				UnitPrice: decimal.RequireFromString("8.50"),
				Quantity:  3,
				LineTotal: decimal.RequireFromString("25.50"),
			},
		},
	}
}

func newOrderService(t *testing.T, repo Repository, stock catalog.Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stock, stubTxRunner{}, testLogger())
	require.NoError(t, err)
	return svc
}

func TestGetEnforcesOwnership(t *testing.T) {
	owner := uuid.New()
	order := orderFixture(owner, enums.OrderStatusPaid)
	svc := newOrderService(t, newStubOrderRepo(order), newStubStockRepo())

	found, err := svc.Get(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "OR21000", found.OrderNumber)

	_, err = svc.Get(context.Background(), uuid.New(), order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestCancelPendingRestoresStock(t *testing.T) {
	owner := uuid.New()
	order := orderFixture(owner, enums.OrderStatusPending)
	stock := newStubStockRepo()
	svc := newOrderService(t, newStubOrderRepo(order), stock)

	cancelled, err := svc.Cancel(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 3, stock.adjustments[order.Items[0].ProductID])
}

func TestCancelShippedOrderRefused(t *testing.T) {
	owner := uuid.New()
	order := orderFixture(owner, enums.OrderStatusShipped)
	stock := newStubStockRepo()
	svc := newOrderService(t, newStubOrderRepo(order), stock)

	_, err := svc.Cancel(context.Background(), owner, order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Empty(t, stock.adjustments)
}

func TestCancelByStrangerLooksLikeMissing(t *testing.T) {
	order := orderFixture(uuid.New(), enums.OrderStatusPending)
	svc := newOrderService(t, newStubOrderRepo(order), newStubStockRepo())

	_, err := svc.Cancel(context.Background(), uuid.New(), order.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestAdminSetStatusForwardOnly(t *testing.T) {
	order := orderFixture(uuid.New(), enums.OrderStatusPaid)
	repo := newStubOrderRepo(order)
	svc := newOrderService(t, repo, newStubStockRepo())

	updated, err := svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	// Delivered orders are terminal; walking back to paid is refused.
	updated, err = svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)

	_, err = svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatusPaid)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestAdminSetStatusRejectsUnknownValue(t *testing.T) {
	order := orderFixture(uuid.New(), enums.OrderStatusPending)
	svc := newOrderService(t, newStubOrderRepo(order), newStubStockRepo())

	_, err := svc.AdminSetStatus(context.Background(), order.ID, enums.OrderStatus("teleported"))
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestListForUserScopesToOwner(t *testing.T) {
	owner := uuid.New()
	mine := orderFixture(owner, enums.OrderStatusPaid)
	other := orderFixture(uuid.New(), enums.OrderStatusPaid)
	other.OrderNumber = "OR21001"
	svc := newOrderService(t, newStubOrderRepo(mine, other), newStubStockRepo())

	list, err := svc.ListForUser(context.Background(), owner, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "OR21000", list.Orders[0].OrderNumber)
}
