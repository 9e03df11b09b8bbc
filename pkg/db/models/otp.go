package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

// OTP is one issued one-time code. History is append-only for audit; the
// Active flag marks the single authoritative row per (user, purpose) and is
// cleared when a newer code supersedes it.
type OTP struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_otp_user_purpose"`
	Code       string           `gorm:"column:code;not null"`
	Purpose    enums.OTPPurpose `gorm:"column:purpose;not null;index:idx_otp_user_purpose"`
	ExpiresAt  time.Time        `gorm:"column:expires_at;not null"`
	Active     bool             `gorm:"column:active;not null;default:true;index:idx_otp_user_purpose"`
	IsVerified bool             `gorm:"column:is_verified;not null;default:false"`
	VerifiedAt *time.Time       `gorm:"column:verified_at"`
	Attempts   int              `gorm:"column:attempts;not null;default:0"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
