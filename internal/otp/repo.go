package otp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, code *models.OTP) (*models.OTP, error) {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return nil, err
	}
	return code, nil
}

// FindActiveForUpdate loads the single active code for (user, purpose) with a
// row lock so concurrent verification attempts serialize. Returns nil when no
// active code exists.
func (r *repository) FindActiveForUpdate(ctx context.Context, userID uuid.UUID, purpose enums.OTPPurpose) (*models.OTP, error) {
	var row models.OTP
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND purpose = ? AND active = ?", userID, purpose, true).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// DeactivateAll clears the active flag on every outstanding code for the pair.
func (r *repository) DeactivateAll(ctx context.Context, userID uuid.UUID, purpose enums.OTPPurpose) error {
	return r.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("user_id = ? AND purpose = ? AND active = ?", userID, purpose, true).
		Update("active", false).
		Error
}

// IncrementAttempts bumps the attempt counter and returns the new value.
func (r *repository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := r.db.WithContext(ctx).
		Raw(`UPDATE otps SET attempts = attempts + 1, updated_at = now() WHERE id = ? RETURNING attempts`, id).
		Scan(&attempts).
		Error
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *repository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_verified": true,
			"verified_at": at,
			"active":      false,
		}).
		Error
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("id = ?", id).
		Update("active", false).
		Error
}
