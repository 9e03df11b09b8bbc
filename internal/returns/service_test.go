package returns

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/orders"
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
	return fmt.Sprintf("RT%d", claimed), nil
}

func (s *stubCounterRepo) Peek(ctx context.Context, entity enums.DocumentType) (string, int64, error) {
	return "RT", s.next, nil
}

type stubReturnRepo struct {
	requests map[uuid.UUID]*models.ReturnRequest
}

func newStubReturnRepo(requests ...*models.ReturnRequest) *stubReturnRepo {
	repo := &stubReturnRepo{requests: make(map[uuid.UUID]*models.ReturnRequest)}
	for _, request := range requests {
		repo.requests[request.ID] = request
	}
	return repo
}

func (s *stubReturnRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReturnRepo) Create(ctx context.Context, request *models.ReturnRequest) (*models.ReturnRequest, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	s.requests[request.ID] = request
	return request, nil
}

func (s *stubReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (s *stubReturnRepo) List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error) {
	var rows []models.ReturnRequest
	for _, request := range s.requests {
		if filters.UserID != nil && request.UserID != *filters.UserID {
			continue
		}
		if filters.Status != nil && request.Status != *filters.Status {
			continue
		}
		rows = append(rows, *request)
	}
	return &ReturnList{Returns: rows}, nil
}

func (s *stubReturnRepo) UpdateDecision(ctx context.Context, id uuid.UUID, status enums.ReturnStatus, notes string, decidedAt time.Time) error {
	if request, ok := s.requests[id]; ok {
		request.Status = status
		request.DecisionNotes = &notes
		request.DecidedAt = &decidedAt
	}
	return nil
}

type stubOrderLookup struct {
	orders.Repository
	order *models.Order
}

func (s *stubOrderLookup) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderLookup) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type stubGateway struct {
	refundErr error
	refunds   []square.RefundCreateParams
}

func (s *stubGateway) ChargeCard(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	return &sq.Payment{}, nil
}

func (s *stubGateway) RefundPayment(ctx context.Context, params square.RefundCreateParams) (*sq.PaymentRefund, error) {
	s.refunds = append(s.refunds, params)
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return &sq.PaymentRefund{}, nil
}

func (s *stubGateway) LocationID() string { return "loc-test" }

type memoryFileStore struct {
	saved   []string
	deleted []string
}

func (s *memoryFileStore) Save(ctx context.Context, dir, filename string, contents io.Reader) (string, error) {
	path := dir + "/" + filename
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *memoryFileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (s *memoryFileStore) Delete(ctx context.Context, path string) error {
	s.deleted = append(s.deleted, path)
	return nil
}

type returnsFixture struct {
	svc     Service
	repo    *stubReturnRepo
	gateway *stubGateway
	files   *memoryFileStore
	order   *models.Order
	userID  uuid.UUID
}

func newReturnsFixture(t *testing.T, orderStatus enums.OrderStatus) *returnsFixture {
	t.Helper()

	userID := uuid.New()
	transactionID := "sq-payment-1"
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "OR21000",
		UserID:        userID,
		Status:        orderStatus,
		Total:         decimal.RequireFromString("28.82"),
		Currency:      "USD",
		TransactionID: &transactionID,
	}

	repo := newStubReturnRepo()
	gateway := &stubGateway{}
	files := &memoryFileStore{}

	allocator, err := sequence.NewAllocator(&stubCounterRepo{next: 41000}, stubTxRunner{}, metrics.NewCommerceMetrics(nil))
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, &stubOrderLookup{order: order}, allocator, gateway, files, "USD", logg)
	require.NoError(t, err)

	decided := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return decided }

	return &returnsFixture{
		svc:     svc,
		repo:    repo,
		gateway: gateway,
		files:   files,
		order:   order,
		userID:  userID,
	}
}

func TestCreateReturnForDeliveredOrder(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusDelivered)

	request, err := f.svc.Create(context.Background(), f.userID, CreateInput{
		OrderID: f.order.ID,
		Reason:  "wrong fitment",
		Attachment: &Attachment{
			Filename: "damage.jpg",
			Contents: strings.NewReader("jpeg bytes"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "RT41000", request.ReturnNumber)
	assert.Equal(t, enums.ReturnStatusRequested, request.Status)
	require.NotNil(t, request.AttachmentPath)
	assert.Equal(t, "returns/damage.jpg", *request.AttachmentPath)
	require.Len(t, f.files.saved, 1)
}

func TestCreateReturnRejectsUndeliveredOrder(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusPending)

	_, err := f.svc.Create(context.Background(), f.userID, CreateInput{OrderID: f.order.ID, Reason: "changed my mind"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCreateReturnHidesForeignOrder(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusDelivered)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{OrderID: f.order.ID, Reason: "not mine"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestCreateReturnRequiresReason(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusDelivered)

	_, err := f.svc.Create(context.Background(), f.userID, CreateInput{OrderID: f.order.ID, Reason: "   "})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestDecideApproveRefundsPayment(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusDelivered)
	request, err := f.svc.Create(context.Background(), f.userID, CreateInput{OrderID: f.order.ID, Reason: "wrong fitment"})
	require.NoError(t, err)

	decided, err := f.svc.Decide(context.Background(), request.ID, DecisionInput{Approve: true, Notes: "restock on arrival"})
	require.NoError(t, err)

	assert.Equal(t, enums.ReturnStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), *decided.DecidedAt)

	require.Len(t, f.gateway.refunds, 1)
	assert.Equal(t, "sq-payment-1", f.gateway.refunds[0].PaymentID)
	assert.Equal(t, int64(2882), f.gateway.refunds[0].AmountCents)
}

func TestDecideRejectSkipsRefund(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusDelivered)
	request, err := f.svc.Create(context.Background(), f.userID, CreateInput{OrderID: f.order.ID, Reason: "wrong fitment"})
	require.NoError(t, err)

	decided, err := f.svc.Decide(context.Background(), request.ID, DecisionInput{Approve: false, Notes: "outside the window"})
	require.NoError(t, err)

	assert.Equal(t, enums.ReturnStatusRejected, decided.Status)
	assert.Empty(t, f.gateway.refunds)
}

func TestDecideTwiceRefused(t *testing.T) {
	f := newReturnsFixture(t, enums.OrderStatusDelivered)
	request, err := f.svc.Create(context.Background(), f.userID, CreateInput{OrderID: f.order.ID, Reason: "wrong fitment"})
	require.NoError(t, err)

	_, err = f.svc.Decide(context.Background(), request.ID, DecisionInput{Approve: false})
	require.NoError(t, err)

	_, err = f.svc.Decide(context.Background(), request.ID, DecisionInput{Approve: true})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Empty(t, f.gateway.refunds)
}
