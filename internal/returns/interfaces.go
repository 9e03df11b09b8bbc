package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// ReturnList is one page of return requests plus the next cursor.
type ReturnList struct {
	Returns    []models.ReturnRequest
	NextCursor string
}

// ReturnFilters narrows admin listings.
type ReturnFilters struct {
	Status *enums.ReturnStatus
	UserID *uuid.UUID
}

// Repository persists return requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.ReturnRequest) (*models.ReturnRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	List(ctx context.Context, params pagination.Params, filters ReturnFilters) (*ReturnList, error)
	UpdateDecision(ctx context.Context, id uuid.UUID, status enums.ReturnStatus, notes string, decidedAt time.Time) error
}
