package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

// Repository persists issued one-time codes. Rows are append-only history;
// state changes flip flags rather than delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.OTP) (*models.OTP, error)
	FindActiveForUpdate(ctx context.Context, userID uuid.UUID, purpose enums.OTPPurpose) (*models.OTP, error)
	DeactivateAll(ctx context.Context, userID uuid.UUID, purpose enums.OTPPurpose) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
