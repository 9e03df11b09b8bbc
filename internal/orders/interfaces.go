package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// OrderList is one page of orders plus the next cursor.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// OrderFilters narrows listings, used by the admin surface.
type OrderFilters struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// Repository persists orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	SetTransaction(ctx context.Context, id uuid.UUID, transactionID string, status enums.OrderStatus) error
}
