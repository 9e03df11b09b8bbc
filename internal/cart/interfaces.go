package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
)

// Repository persists cart lines. One row per (user, product).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
