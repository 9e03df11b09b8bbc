package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a B2B customer account (or an admin).
type User struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string          `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash       string          `gorm:"column:password_hash;not null"`
	FirstName          string          `gorm:"column:first_name;not null"`
	LastName           string          `gorm:"column:last_name;not null"`
	CompanyName        *string         `gorm:"column:company_name"`
	Phone              *string         `gorm:"column:phone"`
	CustomerNumber     string          `gorm:"column:customer_number;not null;uniqueIndex"`
	GlobalDiscountRate decimal.Decimal `gorm:"column:global_discount_rate;type:numeric(5,2);not null;default:0"`
	SystemRole         *string         `gorm:"column:system_role"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	IsVerified         bool            `gorm:"column:is_verified;not null;default:false"`
	LastLoginAt        *time.Time      `gorm:"column:last_login_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
