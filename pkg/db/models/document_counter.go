package models

import (
	"time"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

// DocumentCounter is the authoritative next value for one document number
// sequence. Allocation happens via UPDATE ... RETURNING so concurrent
// creations can never observe the same value.
type DocumentCounter struct {
	EntityType enums.DocumentType `gorm:"column:entity_type;primaryKey"`
	Prefix     string             `gorm:"column:prefix;not null"`
	NextValue  int64              `gorm:"column:next_value;not null"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
