package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

const leadNumberConstraint = "idx_leads_lead_number"

// CreateInput is an inbound inquiry from the public contact form.
type CreateInput struct {
	Name        string
	Email       string
	Phone       string
	CompanyName string
	Message     string
}

// Service captures and tracks sales leads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Lead, error)
	AdminList(ctx context.Context, params pagination.Params, filters LeadFilters) (*LeadList, error)
	AdminSetStatus(ctx context.Context, leadID uuid.UUID, status enums.LeadStatus) (*models.Lead, error)
}

type service struct {
	repo      Repository
	allocator *sequence.Allocator
	logg      *logger.Logger
}

// NewService builds the lead service.
func NewService(repo Repository, allocator *sequence.Allocator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leads repository required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, allocator: allocator, logg: logg}, nil
}

// Create records a numbered lead. The form is public, so everything is
// trimmed and the required fields checked here rather than trusted upstream.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Lead, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	message := strings.TrimSpace(input.Message)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}

	var created *models.Lead
	err := s.allocator.RunNumbered(ctx, enums.DocumentTypeLead, leadNumberConstraint, func(tx *gorm.DB, number string) error {
		lead := &models.Lead{
			LeadNumber:  number,
			Name:        name,
			Email:       email,
			Phone:       optional(input.Phone),
			CompanyName: optional(input.CompanyName),
			Message:     message,
			Status:      enums.LeadStatusNew,
		}
		saved, err := s.repo.WithTx(tx).Create(ctx, lead)
		if err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lead")
	}

	ctx = s.logg.WithDocumentNumber(ctx, created.LeadNumber)
	s.logg.Info(ctx, "lead captured")
	return created, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters LeadFilters) (*LeadList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list leads")
	}
	return list, nil
}

func (s *service) AdminSetStatus(ctx context.Context, leadID uuid.UUID, status enums.LeadStatus) (*models.Lead, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", status))
	}

	lead, err := s.repo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}

	if err := s.repo.UpdateStatus(ctx, lead.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lead status")
	}
	lead.Status = status
	return lead, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
