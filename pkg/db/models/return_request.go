package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

// ReturnRequest is a numbered request to return items from a delivered order.
type ReturnRequest struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnNumber   string             `gorm:"column:return_number;not null;uniqueIndex"`
	OrderID        uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Reason         string             `gorm:"column:reason;not null"`
	Status         enums.ReturnStatus `gorm:"column:status;not null;default:requested"`
	AttachmentPath *string            `gorm:"column:attachment_path"`
	DecisionNotes  *string            `gorm:"column:decision_notes"`
	DecidedAt      *time.Time         `gorm:"column:decided_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
