package leads

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
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
	return fmt.Sprintf("LD%d", claimed), nil
}

func (s *stubCounterRepo) Peek(ctx context.Context, entity enums.DocumentType) (string, int64, error) {
	return "LD", s.next, nil
}

type stubLeadRepo struct {
	leads map[uuid.UUID]*models.Lead
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: make(map[uuid.UUID]*models.Lead)}
}

func (s *stubLeadRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLeadRepo) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *stubLeadRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return lead, nil
}

func (s *stubLeadRepo) List(ctx context.Context, params pagination.Params, filters LeadFilters) (*LeadList, error) {
	var rows []models.Lead
	for _, lead := range s.leads {
		if filters.Status != nil && lead.Status != *filters.Status {
			continue
		}
		rows = append(rows, *lead)
	}
	return &LeadList{Leads: rows}, nil
}

func (s *stubLeadRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LeadStatus) error {
	if lead, ok := s.leads[id]; ok {
		lead.Status = status
	}
	return nil
}

func newLeadService(t *testing.T, repo Repository) Service {
	t.Helper()
	allocator, err := sequence.NewAllocator(&stubCounterRepo{next: 31000}, stubTxRunner{}, metrics.NewCommerceMetrics(nil))
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, allocator, logg)
	require.NoError(t, err)
	return svc
}

func TestCreateLeadAssignsNumber(t *testing.T) {
	repo := newStubLeadRepo()
	svc := newLeadService(t, repo)

	lead, err := svc.Create(context.Background(), CreateInput{
		Name:        "Dana Whitfield",
		Email:       "Dana@Example.com ",
		Phone:       "555-0134",
		CompanyName: "Whitfield Fleet Services",
		Message:     "Looking for bulk pricing on brake kits.",
	})
	require.NoError(t, err)

	assert.Equal(t, "LD31000", lead.LeadNumber)
	assert.Equal(t, enums.LeadStatusNew, lead.Status)
	assert.Equal(t, "dana@example.com", lead.Email)
	require.NotNil(t, lead.Phone)
	assert.Equal(t, "555-0134", *lead.Phone)
}

func TestCreateLeadOmitsEmptyOptionalFields(t *testing.T) {
	svc := newLeadService(t, newStubLeadRepo())

	lead, err := svc.Create(context.Background(), CreateInput{
		Name:    "Dana Whitfield",
		Email:   "dana@example.com",
		Message: "Do you ship to Canada?",
	})
	require.NoError(t, err)
	assert.Nil(t, lead.Phone)
	assert.Nil(t, lead.CompanyName)
}

func TestCreateLeadRequiresFields(t *testing.T) {
	svc := newLeadService(t, newStubLeadRepo())

	for name, input := range map[string]CreateInput{
		"missing name":    {Email: "dana@example.com", Message: "hi"},
		"missing email":   {Name: "Dana", Message: "hi"},
		"missing message": {Name: "Dana", Email: "dana@example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), input)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestAdminSetStatus(t *testing.T) {
	repo := newStubLeadRepo()
	svc := newLeadService(t, repo)

	lead, err := svc.Create(context.Background(), CreateInput{
		Name:    "Dana Whitfield",
		Email:   "dana@example.com",
		Message: "Bulk pricing?",
	})
	require.NoError(t, err)

	updated, err := svc.AdminSetStatus(context.Background(), lead.ID, enums.LeadStatusContacted)
	require.NoError(t, err)
	assert.Equal(t, enums.LeadStatusContacted, updated.Status)

	_, err = svc.AdminSetStatus(context.Background(), lead.ID, enums.LeadStatus("archived"))
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.AdminSetStatus(context.Background(), uuid.New(), enums.LeadStatusClosed)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
