package leads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// LeadList is one page of leads plus the next cursor.
type LeadList struct {
	Leads      []models.Lead
	NextCursor string
}

// LeadFilters narrows admin listings.
type LeadFilters struct {
	Status *enums.LeadStatus
}

// Repository persists sales leads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context, params pagination.Params, filters LeadFilters) (*LeadList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LeadStatus) error
}
