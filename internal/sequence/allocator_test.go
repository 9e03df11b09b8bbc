package sequence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
)

type stubCounterRepo struct {
	prefix string
	next   int64
	err    error
}

func (s *stubCounterRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubCounterRepo) AllocateNext(ctx context.Context, entity enums.DocumentType) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	value := s.next
	s.next++
	return fmt.Sprintf("%s%d", s.prefix, value), nil
}

func (s *stubCounterRepo) Peek(ctx context.Context, entity enums.DocumentType) (string, int64, error) {
	if s.err != nil {
		return "", 0, s.err
	}
	return s.prefix, s.next, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestAllocator(t *testing.T, repo Repository) *Allocator {
	t.Helper()
	alloc, err := NewAllocator(repo, stubTxRunner{}, metrics.NewCommerceMetrics(nil))
	require.NoError(t, err)
	return alloc
}

func TestNextAllocatesSequentialNumbers(t *testing.T) {
	repo := &stubCounterRepo{prefix: "OR", next: 21000}
	alloc := newTestAllocator(t, repo)

	first, err := alloc.Next(context.Background(), enums.DocumentTypeOrder)
	require.NoError(t, err)
	second, err := alloc.Next(context.Background(), enums.DocumentTypeOrder)
	require.NoError(t, err)

	assert.Equal(t, "OR21000", first)
	assert.Equal(t, "OR21001", second)
}

func TestNextPropagatesMissingCounter(t *testing.T) {
	repo := &stubCounterRepo{err: errors.New("document counter missing for \"order\"")}
	alloc := newTestAllocator(t, repo)

	_, err := alloc.Next(context.Background(), enums.DocumentTypeOrder)
	assert.Error(t, err)
}

func TestCountersReportsEveryEntityWithoutAdvancing(t *testing.T) {
	repo := &stubCounterRepo{prefix: "OR", next: 21000}
	alloc := newTestAllocator(t, repo)

	states, err := alloc.Counters(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 5)

	assert.Equal(t, enums.DocumentTypeOrder, states[0].Entity)
	assert.Equal(t, "OR", states[0].Prefix)
	assert.Equal(t, int64(21000), states[0].Next)
	// Reading the counters must not claim a number.
	assert.Equal(t, int64(21000), repo.next)
}

func TestCountersPropagatesMissingCounter(t *testing.T) {
	repo := &stubCounterRepo{err: errors.New("document counter missing for \"order\"")}
	alloc := newTestAllocator(t, repo)

	_, err := alloc.Counters(context.Background())
	assert.Error(t, err)
}

func TestRunNumberedRetriesOnCollision(t *testing.T) {
	repo := &stubCounterRepo{prefix: "QT", next: 11000}
	alloc := newTestAllocator(t, repo)

	collisions := 2
	var numbers []string
	err := alloc.RunNumbered(context.Background(), enums.DocumentTypeQuote, "idx_quotes_quote_number", func(tx *gorm.DB, number string) error {
		numbers = append(numbers, number)
		if collisions > 0 {
			collisions--
			return fmt.Errorf(`duplicate key value violates unique constraint "idx_quotes_quote_number"`)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"QT11000", "QT11001", "QT11002"}, numbers)
}

func TestRunNumberedGivesUpAfterMaxAttempts(t *testing.T) {
	repo := &stubCounterRepo{prefix: "QT", next: 11000}
	alloc := newTestAllocator(t, repo)

	attempts := 0
	err := alloc.RunNumbered(context.Background(), enums.DocumentTypeQuote, "idx_quotes_quote_number", func(tx *gorm.DB, number string) error {
		attempts++
		return fmt.Errorf(`duplicate key value violates unique constraint "idx_quotes_quote_number"`)
	})

	assert.Error(t, err)
	assert.Equal(t, maxAllocateAttempts, attempts)
}

func TestRunNumberedStopsOnUnrelatedError(t *testing.T) {
	repo := &stubCounterRepo{prefix: "LD", next: 31000}
	alloc := newTestAllocator(t, repo)

	boom := errors.New("connection reset")
	attempts := 0
	err := alloc.RunNumbered(context.Background(), enums.DocumentTypeLead, "idx_leads_lead_number", func(tx *gorm.DB, number string) error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}
