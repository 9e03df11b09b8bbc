package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
)

// DiscountRepository persists per-customer product discount overrides.
type DiscountRepository interface {
	WithTx(tx *gorm.DB) DiscountRepository
	FindRate(ctx context.Context, userID, productID uuid.UUID) (*decimal.Decimal, error)
	FindRates(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	UpsertRate(ctx context.Context, userID, productID uuid.UUID, rate decimal.Decimal) (*models.UserProductDiscount, error)
	DeleteRate(ctx context.Context, userID, productID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserProductDiscount, error)
}
