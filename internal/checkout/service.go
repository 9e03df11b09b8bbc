package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/cart"
	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/internal/orders"
	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
	"github.com/gearsupply/gearsupply-backend/pkg/square"
)

const orderNumberConstraint = "idx_orders_order_number"

// PlaceOrderInput carries the tokenized payment source from the client.
type PlaceOrderInput struct {
	SourceID string
}

// Service turns the cart into a paid, numbered order.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      orders.Repository
	carts     cart.Service
	products  catalog.Repository
	allocator *sequence.Allocator
	gateway   square.PaymentGateway
	tx        txRunner
	metrics   *metrics.CommerceMetrics
	currency  string
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	repo orders.Repository,
	carts cart.Service,
	products catalog.Repository,
	allocator *sequence.Allocator,
	gateway square.PaymentGateway,
	tx txRunner,
	m *metrics.CommerceMetrics,
	currency string,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		carts:     carts,
		products:  products,
		allocator: allocator,
		gateway:   gateway,
		tx:        tx,
		metrics:   m,
		currency:  currency,
		logg:      logg,
	}, nil
}

// PlaceOrder reserves stock and creates a pending order in one transaction,
// then charges the card. A declined charge releases the stock and cancels the
// order, so the only lasting trace of a failed checkout is a cancelled row.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	sourceID := strings.TrimSpace(input.SourceID)
	if sourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source required")
	}

	view, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var placed *models.Order
	err = s.allocator.RunNumbered(ctx, enums.DocumentTypeOrder, orderNumberConstraint, func(tx *gorm.DB, number string) error {
		products := s.products.WithTx(tx)
		for _, line := range view.Lines {
			if err := products.AdjustStock(ctx, line.Product.ID, -line.Item.Quantity); err != nil {
				return err
			}
		}

		order := &models.Order{
			OrderNumber: number,
			UserID:      userID,
			Status:      enums.OrderStatusPending,
			Subtotal:    view.Totals.Subtotal,
			Tax:         view.Totals.Tax,
			Total:       view.Totals.Total,
			Currency:    s.currency,
			Items:       orderItems(view.Lines),
		}
		created, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		placed = created
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	ctx = s.logg.WithDocumentNumber(ctx, placed.OrderNumber)

	payment, err := s.gateway.ChargeCard(ctx, square.PaymentCreateParams{
		AmountCents: placed.Total.Round(2).Shift(2).IntPart(),
		Currency:    s.currency,
		SourceID:    sourceID,
		Note:        fmt.Sprintf("GearSupply order %s", placed.OrderNumber),
		ReferenceID: placed.OrderNumber,
	})
	if err != nil {
		s.metrics.IncPayment("declined")
		s.metrics.IncOrderCreated(string(enums.OrderStatusCancelled))
		s.release(ctx, placed)
		return nil, err
	}

	transactionID := ""
	if payment != nil && payment.ID != nil {
		transactionID = *payment.ID
	}
	if err := s.repo.SetTransaction(ctx, placed.ID, transactionID, enums.OrderStatusPaid); err != nil {
		// The charge went through; surface the order anyway and leave the
		// reconciliation to the payment reference on the Square side.
		s.logg.Error(ctx, "record payment on order", err)
	} else {
		placed.Status = enums.OrderStatusPaid
		placed.TransactionID = &transactionID
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logg.Error(ctx, "clear cart after checkout", err)
	}

	s.metrics.IncPayment("succeeded")
	s.metrics.IncOrderCreated(string(enums.OrderStatusPaid))
	s.logg.Info(ctx, "order placed")
	return placed, nil
}

// release undoes the stock reservation and cancels the order after a declined
// charge. Failures here are logged, not returned; the caller already has the
// payment error.
func (s *service) release(ctx context.Context, order *models.Order) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		for _, item := range order.Items {
			if err := products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	})
	if err != nil {
		s.logg.Error(ctx, "release stock after declined payment", err)
	}
}

func orderItems(lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
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
