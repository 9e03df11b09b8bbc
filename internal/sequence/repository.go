package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
)

// allocateQuery claims the counter's current value and advances it in one
// statement. The row-level write lock serializes concurrent allocations, so
// two callers can never read the same value.
const allocateQuery = `
UPDATE document_counters
SET next_value = next_value + 1,
    updated_at = now()
WHERE entity_type = ?
RETURNING prefix, next_value - 1 AS claimed
`

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

type allocationRow struct {
	Prefix  string
	Claimed int64
}

// AllocateNext claims the next number for the entity. A missing counter row is
// a deployment fault, not a recoverable condition, so it maps to an internal error.
func (r *repository) AllocateNext(ctx context.Context, entity enums.DocumentType) (string, error) {
	if !entity.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown document type %q", entity))
	}

	var row allocationRow
	result := r.db.WithContext(ctx).Raw(allocateQuery, entity).Scan(&row)
	if result.Error != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "allocate document number")
	}
	if result.RowsAffected == 0 || row.Prefix == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("document counter missing for %q", entity))
	}

	return fmt.Sprintf("%s%d", row.Prefix, row.Claimed), nil
}

// Peek returns the counter state without advancing it. Backs the admin
// counters view.
func (r *repository) Peek(ctx context.Context, entity enums.DocumentType) (string, int64, error) {
	var row struct {
		Prefix    string
		NextValue int64
	}
	result := r.db.WithContext(ctx).
		Table("document_counters").
		Select("prefix", "next_value").
		Where("entity_type = ?", entity).
		Scan(&row)
	if result.Error != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "read document counter")
	}
	if result.RowsAffected == 0 {
		return "", 0, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("document counter missing for %q", entity))
	}
	return row.Prefix, row.NextValue, nil
}
