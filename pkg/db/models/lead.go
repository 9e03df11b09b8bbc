package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

// Lead is a numbered inbound sales inquiry.
type Lead struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeadNumber  string           `gorm:"column:lead_number;not null;uniqueIndex"`
	Name        string           `gorm:"column:name;not null"`
	Email       string           `gorm:"column:email;not null"`
	Phone       *string          `gorm:"column:phone"`
	CompanyName *string          `gorm:"column:company_name"`
	Message     string           `gorm:"column:message;not null"`
	Status      enums.LeadStatus `gorm:"column:status;not null;default:new"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
