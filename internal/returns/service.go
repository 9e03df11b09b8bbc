package returns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/orders"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
	"github.com/gearsupply/gearsupply-backend/pkg/square"
	"github.com/gearsupply/gearsupply-backend/pkg/storage"
)

const (
	returnNumberConstraint = "idx_return_requests_return_number"
	attachmentDir          = "returns"
)

// Attachment is an optional customer-supplied file (photo of the damage,
// packing slip) streamed in with the request.
type Attachment struct {
	Filename string
	Contents io.Reader
}

// CreateInput is a customer's request to return an order.
type CreateInput struct {
	OrderID    uuid.UUID
	Reason     string
	Attachment *Attachment
}

// DecisionInput is the admin's ruling on a requested return.
type DecisionInput struct {
	Approve bool
	Notes   string
}

// Service handles the return request lifecycle.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.ReturnRequest, error)
	Get(ctx context.Context, userID, returnID uuid.UUID) (*models.ReturnRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReturnList, error)
	AdminList(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error)
	Decide(ctx context.Context, returnID uuid.UUID, input DecisionInput) (*models.ReturnRequest, error)
}

type service struct {
	repo      Repository
	orders    orders.Repository
	allocator *sequence.Allocator
	gateway   square.PaymentGateway
	files     storage.Store
	currency  string
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the returns service.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	allocator *sequence.Allocator,
	gateway square.PaymentGateway,
	files storage.Store,
	currency string,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		orders:    orderRepo,
		allocator: allocator,
		gateway:   gateway,
		files:     files,
		currency:  currency,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Create opens a numbered return request against the customer's own delivered
// (or still shipped) order.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.ReturnRequest, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason required")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusDelivered && order.Status != enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not eligible for return")
	}

	var attachmentPath *string
	if input.Attachment != nil {
		saved, err := s.files.Save(ctx, attachmentDir, input.Attachment.Filename, input.Attachment.Contents)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store attachment")
		}
		attachmentPath = &saved
	}

	var created *models.ReturnRequest
	err = s.allocator.RunNumbered(ctx, enums.DocumentTypeReturn, returnNumberConstraint, func(tx *gorm.DB, number string) error {
		request := &models.ReturnRequest{
			ReturnNumber:   number,
			OrderID:        order.ID,
			UserID:         userID,
			Reason:         reason,
			Status:         enums.ReturnStatusRequested,
			AttachmentPath: attachmentPath,
		}
		saved, err := s.repo.WithTx(tx).Create(ctx, request)
		if err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		if attachmentPath != nil {
			if cleanupErr := s.files.Delete(ctx, *attachmentPath); cleanupErr != nil {
				s.logg.Error(ctx, "remove orphaned attachment", cleanupErr)
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
	}

	ctx = s.logg.WithDocumentNumber(ctx, created.ReturnNumber)
	s.logg.Info(ctx, "return requested")
	return created, nil
}

func (s *service) Get(ctx context.Context, userID, returnID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.load(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}
	return request, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReturnList, error) {
	list, err := s.repo.List(ctx, params, ReturnFilters{UserID: &userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list return requests")
	}
	return list, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list return requests")
	}
	return list, nil
}

// Decide rules on a requested return. Approval refunds the order's captured
// payment in full; the refund failing leaves the request untouched so the
// admin can retry.
func (s *service) Decide(ctx context.Context, returnID uuid.UUID, input DecisionInput) (*models.ReturnRequest, error) {
	request, err := s.load(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.ReturnStatusRequested {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return request already decided")
	}

	status := enums.ReturnStatusRejected
	if input.Approve {
		status = enums.ReturnStatusApproved
		if err := s.refund(ctx, request, input.Notes); err != nil {
			return nil, err
		}
	}

	decidedAt := s.now().UTC()
	notes := strings.TrimSpace(input.Notes)
	if err := s.repo.UpdateDecision(ctx, request.ID, status, notes, decidedAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record return decision")
	}

	request.Status = status
	request.DecisionNotes = &notes
	request.DecidedAt = &decidedAt

	ctx = s.logg.WithDocumentNumber(ctx, request.ReturnNumber)
	s.logg.Info(ctx, "return decided")
	return request, nil
}

func (s *service) refund(ctx context.Context, request *models.ReturnRequest, notes string) error {
	order, err := s.orders.FindByID(ctx, request.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for refund")
	}
	if order.TransactionID == nil || *order.TransactionID == "" {
		// Nothing was captured; approval stands on its own.
		return nil
	}

	_, err = s.gateway.RefundPayment(ctx, square.RefundCreateParams{
		PaymentID:   *order.TransactionID,
		AmountCents: order.Total.Round(2).Shift(2).IntPart(),
		Currency:    s.currency,
		Reason:      strings.TrimSpace(notes),
	})
	if err != nil {
		return err
	}
	return nil
}

func (s *service) load(ctx context.Context, returnID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
	}
	return request, nil
}
