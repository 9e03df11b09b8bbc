package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/db"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
)

const maxAllocateAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Allocator hands out sequential document numbers (OR21000, QT11000, ...)
// backed by the document_counters table.
type Allocator struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.CommerceMetrics
}

// NewAllocator builds the allocator with its persistence dependencies.
func NewAllocator(repo Repository, tx txRunner, m *metrics.CommerceMetrics) (*Allocator, error) {
	if repo == nil {
		return nil, fmt.Errorf("sequence repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Allocator{repo: repo, tx: tx, metrics: m}, nil
}

// NextInTx allocates the next number inside the caller's transaction. The
// counter advance commits or rolls back together with the document insert.
func (a *Allocator) NextInTx(ctx context.Context, tx *gorm.DB, entity enums.DocumentType) (string, error) {
	return a.repo.WithTx(tx).AllocateNext(ctx, entity)
}

// Next allocates a number in its own transaction. Prefer NextInTx when the
// caller already holds one; a standalone allocation leaves a gap if the
// surrounding work later fails.
func (a *Allocator) Next(ctx context.Context, entity enums.DocumentType) (string, error) {
	var number string
	err := a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		allocated, err := a.repo.WithTx(tx).AllocateNext(ctx, entity)
		if err != nil {
			return err
		}
		number = allocated
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// CounterState is a point-in-time view of one document counter.
type CounterState struct {
	Entity enums.DocumentType
	Prefix string
	Next   int64
}

// Counters reports every document counter without advancing any of them.
func (a *Allocator) Counters(ctx context.Context) ([]CounterState, error) {
	entities := []enums.DocumentType{
		enums.DocumentTypeOrder,
		enums.DocumentTypeQuote,
		enums.DocumentTypeLead,
		enums.DocumentTypeReturn,
		enums.DocumentTypeCustomer,
	}
	states := make([]CounterState, 0, len(entities))
	for _, entity := range entities {
		prefix, next, err := a.repo.Peek(ctx, entity)
		if err != nil {
			return nil, err
		}
		states = append(states, CounterState{Entity: entity, Prefix: prefix, Next: next})
	}
	return states, nil
}

// RunNumbered executes fn in a transaction with a freshly allocated number,
// retrying the whole transaction when the insert collides on the document
// number's unique constraint (counters repaired by hand, backfills).
func (a *Allocator) RunNumbered(ctx context.Context, entity enums.DocumentType, constraint string, fn func(tx *gorm.DB, number string) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		err := a.tx.WithTx(ctx, func(tx *gorm.DB) error {
			number, err := a.repo.WithTx(tx).AllocateNext(ctx, entity)
			if err != nil {
				return err
			}
			return fn(tx, number)
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, constraint) {
			return err
		}
		lastErr = err
		a.metrics.IncSequenceRetry(string(entity))
	}
	return lastErr
}
