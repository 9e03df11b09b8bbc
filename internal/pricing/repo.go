package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
)

type discountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository builds a repository tied to the provided GORM DB.
func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) WithTx(tx *gorm.DB) DiscountRepository {
	if tx == nil {
		return r
	}
	return &discountRepository{db: tx}
}

// FindRate returns the customer's override for the product, or nil when none exists.
func (r *discountRepository) FindRate(ctx context.Context, userID, productID uuid.UUID) (*decimal.Decimal, error) {
	var row models.UserProductDiscount
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rate := row.DiscountRate
	return &rate, nil
}

// FindRates bulk-loads overrides for the given products.
func (r *discountRepository) FindRates(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rates := make(map[uuid.UUID]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return rates, nil
	}

	var rows []models.UserProductDiscount
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		rates[row.ProductID] = row.DiscountRate
	}
	return rates, nil
}

// UpsertRate creates or replaces the customer's override for the product.
func (r *discountRepository) UpsertRate(ctx context.Context, userID, productID uuid.UUID, rate decimal.Decimal) (*models.UserProductDiscount, error) {
	row := models.UserProductDiscount{
		UserID:       userID,
		ProductID:    productID,
		DiscountRate: rate,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"discount_rate", "updated_at"}),
		}).
		Create(&row).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteRate removes the override, tolerating an already-missing row.
func (r *discountRepository) DeleteRate(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.UserProductDiscount{}).
		Error
}

// ListForUser returns every override held by the customer.
func (r *discountRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserProductDiscount, error) {
	var rows []models.UserProductDiscount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}
