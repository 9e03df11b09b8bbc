package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

// ProductFilters narrows catalog listings.
type ProductFilters struct {
	Brand      *string
	Category   *string
	Fitment    *string
	Query      string
	ActiveOnly bool
}

// ProductList is one page of products plus the next cursor.
type ProductList struct {
	Products   []models.Product
	NextCursor string
}

// Repository persists catalog products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}
