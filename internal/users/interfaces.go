package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// Repository persists customer accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByCustomerNumber(ctx context.Context, number string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetGlobalDiscount(ctx context.Context, id uuid.UUID, rate decimal.Decimal) error
	List(ctx context.Context, params pagination.Params) (*CustomerList, error)
}

// CustomerList is one page of accounts plus the cursor for the next page.
type CustomerList struct {
	Users      []models.User
	NextCursor string
}
