package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gearsupply/gearsupply-backend/api/middleware"
	"github.com/gearsupply/gearsupply-backend/internal/cart"
	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
)

// actorID extracts the authenticated user's id seeded by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

type userResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Email              string          `json:"email"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	CompanyName        *string         `json:"company_name,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	CustomerNumber     string          `json:"customer_number"`
	GlobalDiscountRate decimal.Decimal `json:"global_discount_rate"`
	IsActive           bool            `json:"is_active"`
	IsVerified         bool            `json:"is_verified"`
	CreatedAt          time.Time       `json:"created_at"`
}

func newUserResponse(user *models.User) userResponse {
	if user == nil {
		return userResponse{}
	}
	return userResponse{
		ID:                 user.ID,
		Email:              user.Email,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		CompanyName:        user.CompanyName,
		Phone:              user.Phone,
		CustomerNumber:     user.CustomerNumber,
		GlobalDiscountRate: user.GlobalDiscountRate,
		IsActive:           user.IsActive,
		IsVerified:         user.IsVerified,
		CreatedAt:          user.CreatedAt,
	}
}

type productResponse struct {
	ID             uuid.UUID        `json:"id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Description    *string          `json:"description,omitempty"`
	Brand          string           `json:"brand"`
	Category       string           `json:"category"`
	Fitment        []string         `json:"fitment"`
	ListPrice      decimal.Decimal  `json:"list_price"`
	EffectivePrice *decimal.Decimal `json:"effective_price,omitempty"`
	ImagePath      *string          `json:"image_path,omitempty"`
	StockQty       int              `json:"stock_qty"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
}

func newProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		Brand:       product.Brand,
		Category:    product.Category,
		Fitment:     []string(product.Fitment),
		ListPrice:   product.ListPrice,
		ImagePath:   product.ImagePath,
		StockQty:    product.StockQty,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
	}
}

func newProductViewResponse(view catalog.ProductView) productResponse {
	resp := newProductResponse(view.Product)
	price := view.EffectivePrice
	resp.EffectivePrice = &price
	return resp
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func newProductViewListResponse(list *catalog.ProductViewList) productListResponse {
	if list == nil {
		return productListResponse{Products: []productResponse{}}
	}
	products := make([]productResponse, 0, len(list.Products))
	for _, view := range list.Products {
		products = append(products, newProductViewResponse(view))
	}
	return productListResponse{Products: products, NextCursor: list.NextCursor}
}

type cartLineResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PriceAtEntry decimal.Decimal `json:"price_at_entry"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type totalsResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type cartResponse struct {
	Lines  []cartLineResponse `json:"lines"`
	Totals totalsResponse     `json:"totals"`
}

func newCartResponse(view *cart.View) cartResponse {
	if view == nil {
		return cartResponse{Lines: []cartLineResponse{}}
	}
	lines := make([]cartLineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, cartLineResponse{
			ProductID:    line.Item.ProductID,
			SKU:          line.Product.SKU,
			Name:         line.Product.Name,
			Quantity:     line.Item.Quantity,
			PriceAtEntry: line.Item.PriceAtEntry,
			LineTotal:    line.LineTotal,
		})
	}
	return cartResponse{
		Lines: lines,
		Totals: totalsResponse{
			Subtotal: view.Totals.Subtotal,
			Tax:      view.Totals.Tax,
			Total:    view.Totals.Total,
		},
	}
}

type documentItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID          uuid.UUID              `json:"id"`
	OrderNumber string                 `json:"order_number"`
	Status      string                 `json:"status"`
	Subtotal    decimal.Decimal        `json:"subtotal"`
	Tax         decimal.Decimal        `json:"tax"`
	Total       decimal.Decimal        `json:"total"`
	Currency    string                 `json:"currency"`
	Items       []documentItemResponse `json:"items"`
	CreatedAt   time.Time              `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]documentItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, documentItemResponse{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return orderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Total:       order.Total,
		Currency:    order.Currency,
		Items:       items,
		CreatedAt:   order.CreatedAt,
	}
}

type quoteResponse struct {
	ID          uuid.UUID              `json:"id"`
	QuoteNumber string                 `json:"quote_number"`
	Status      string                 `json:"status"`
	Subtotal    decimal.Decimal        `json:"subtotal"`
	Tax         decimal.Decimal        `json:"tax"`
	Total       decimal.Decimal        `json:"total"`
	Currency    string                 `json:"currency"`
	Items       []documentItemResponse `json:"items"`
	CreatedAt   time.Time              `json:"created_at"`
}

func newQuoteResponse(quote *models.Quote) quoteResponse {
	if quote == nil {
		return quoteResponse{}
	}
	items := make([]documentItemResponse, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, documentItemResponse{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return quoteResponse{
		ID:          quote.ID,
		QuoteNumber: quote.QuoteNumber,
		Status:      string(quote.Status),
		Subtotal:    quote.Subtotal,
		Tax:         quote.Tax,
		Total:       quote.Total,
		Currency:    quote.Currency,
		Items:       items,
		CreatedAt:   quote.CreatedAt,
	}
}

type returnResponse struct {
	ID             uuid.UUID  `json:"id"`
	ReturnNumber   string     `json:"return_number"`
	OrderID        uuid.UUID  `json:"order_id"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	AttachmentPath *string    `json:"attachment_path,omitempty"`
	DecisionNotes  *string    `json:"decision_notes,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newReturnResponse(request *models.ReturnRequest) returnResponse {
	if request == nil {
		return returnResponse{}
	}
	return returnResponse{
		ID:             request.ID,
		ReturnNumber:   request.ReturnNumber,
		OrderID:        request.OrderID,
		Reason:         request.Reason,
		Status:         string(request.Status),
		AttachmentPath: request.AttachmentPath,
		DecisionNotes:  request.DecisionNotes,
		DecidedAt:      request.DecidedAt,
		CreatedAt:      request.CreatedAt,
	}
}

type leadResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadNumber  string    `json:"lead_number"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	CompanyName *string   `json:"company_name,omitempty"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func newLeadResponse(lead *models.Lead) leadResponse {
	if lead == nil {
		return leadResponse{}
	}
	return leadResponse{
		ID:          lead.ID,
		LeadNumber:  lead.LeadNumber,
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       lead.Phone,
		CompanyName: lead.CompanyName,
		Message:     lead.Message,
		Status:      string(lead.Status),
		CreatedAt:   lead.CreatedAt,
	}
}
