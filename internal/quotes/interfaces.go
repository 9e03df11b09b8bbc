package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// QuoteList is one page of quotes plus the next cursor.
type QuoteList struct {
	Quotes     []models.Quote
	NextCursor string
}

// Repository persists saved quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.QuoteStatus) error
}
