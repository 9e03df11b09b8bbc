package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/cart"
	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/pagination"
)

const quoteNumberConstraint = "idx_quotes_quote_number"

// Service turns carts into numbered quotes and serves quote history.
type Service interface {
	SaveFromCart(ctx context.Context, userID uuid.UUID) (*models.Quote, error)
	Get(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteList, error)
}

type service struct {
	repo      Repository
	carts     cart.Service
	allocator *sequence.Allocator
	currency  string
	logg      *logger.Logger
}

// NewService builds the quote service.
func NewService(repo Repository, carts cart.Service, allocator *sequence.Allocator, currency string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		carts:     carts,
		allocator: allocator,
		currency:  currency,
		logg:      logg,
	}, nil
}

// SaveFromCart freezes the current cart into a numbered quote. The cart is
// left untouched so the customer can keep editing or check out.
func (s *service) SaveFromCart(ctx context.Context, userID uuid.UUID) (*models.Quote, error) {
	view, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var saved *models.Quote
	err = s.allocator.RunNumbered(ctx, enums.DocumentTypeQuote, quoteNumberConstraint, func(tx *gorm.DB, number string) error {
		quote := &models.Quote{
			QuoteNumber: number,
			UserID:      userID,
			Status:      enums.QuoteStatusOpen,
			Subtotal:    view.Totals.Subtotal,
			Tax:         view.Totals.Tax,
			Total:       view.Totals.Total,
			Currency:    s.currency,
			Items:       quoteItems(view.Lines),
		}
		created, err := s.repo.WithTx(tx).Create(ctx, quote)
		if err != nil {
			return err
		}
		saved = created
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save quote")
	}

	ctx = s.logg.WithDocumentNumber(ctx, saved.QuoteNumber)
	s.logg.Info(ctx, "quote saved")
	return saved, nil
}

func (s *service) Get(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	if quote.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return quote, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteList, error) {
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	return list, nil
}

func quoteItems(lines []cart.Line) []models.QuoteItem {
	items := make([]models.QuoteItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.QuoteItem{
			ProductID: line.Product.ID,
			SKU:       line.Product.SKU,
			Name:      line.Product.Name,
			UnitPrice: line.Item.PriceAtEntry,
			Quantity:  line.Item.Quantity,
			LineTotal: pricing.LineTotal(line.Item.PriceAtEntry, line.Item.Quantity),
		})
	}
	return items
}
