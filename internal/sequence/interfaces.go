package sequence

import (
	"context"

	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
)

// Repository persists document counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AllocateNext(ctx context.Context, entity enums.DocumentType) (string, error)
	Peek(ctx context.Context, entity enums.DocumentType) (prefix string, next int64, err error)
}
