package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gearsupply/gearsupply-backend/api/responses"
	"github.com/gearsupply/gearsupply-backend/api/validators"
	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	"github.com/gearsupply/gearsupply-backend/internal/leads"
	"github.com/gearsupply/gearsupply-backend/internal/orders"
	"github.com/gearsupply/gearsupply-backend/internal/returns"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

type adminProductCreateRequest struct {
	SKU         string          `json:"sku" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description *string         `json:"description,omitempty"`
	Brand       string          `json:"brand" validate:"required,max=100"`
	Category    string          `json:"category" validate:"required,max=100"`
	Fitment     []string        `json:"fitment,omitempty"`
	ListPrice   decimal.Decimal `json:"list_price"`
	BuyPrice    decimal.Decimal `json:"buy_price"`
	StockQty    int             `json:"stock_qty" validate:"min=0"`
}

type adminProductUpdateRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty"`
	Brand       *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Fitment     []string         `json:"fitment,omitempty"`
	ListPrice   *decimal.Decimal `json:"list_price,omitempty"`
	BuyPrice    *decimal.Decimal `json:"buy_price,omitempty"`
	StockQty    *int             `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	IsActive    *bool            `json:"is_active,omitempty"`
	ImagePath   *string          `json:"image_path,omitempty"`
}

func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body adminProductCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			SKU:         body.SKU,
			Name:        body.Name,
			Description: body.Description,
			Brand:       body.Brand,
			Category:    body.Category,
			Fitment:     body.Fitment,
			ListPrice:   body.ListPrice,
			BuyPrice:    body.BuyPrice,
			StockQty:    body.StockQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*product))
	}
}

func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminProductUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, catalog.UpdateProductInput{
			Name:        body.Name,
			Description: body.Description,
			Brand:       body.Brand,
			Category:    body.Category,
			Fitment:     body.Fitment,
			ListPrice:   body.ListPrice,
			BuyPrice:    body.BuyPrice,
			StockQty:    body.StockQty,
			IsActive:    body.IsActive,
			ImagePath:   body.ImagePath,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

func AdminProductDeactivate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

type customerListResponse struct {
	Users      []userResponse `json:"users"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCustomers(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := customerListResponse{Users: make([]userResponse, 0, len(list.Users))}
		for i := range list.Users {
			resp.Users = append(resp.Users, newUserResponse(&list.Users[i]))
		}
		resp.NextCursor = list.NextCursor

		responses.WriteSuccess(w, resp)
	}
}

func AdminUserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParsePathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserResponse(user))
	}
}

type globalDiscountRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

// AdminUserSetGlobalDiscount sets the account-wide discount percentage.
func AdminUserSetGlobalDiscount(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParsePathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body globalDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetGlobalDiscount(r.Context(), userID, body.Rate); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

type productDiscountRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Rate      decimal.Decimal `json:"rate"`
}

type productDiscountResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Rate      decimal.Decimal `json:"rate"`
}

func newProductDiscountResponse(discount models.UserProductDiscount) productDiscountResponse {
	return productDiscountResponse{
		ProductID: discount.ProductID,
		Rate:      discount.DiscountRate,
	}
}

func AdminUserSetProductDiscount(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParsePathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.SetProductDiscount(r.Context(), userID, body.ProductID, body.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductDiscountResponse(*discount))
	}
}

func AdminUserRemoveProductDiscount(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParsePathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveProductDiscount(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func AdminUserListProductDiscounts(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := validators.ParsePathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discounts, err := svc.ListProductDiscounts(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]productDiscountResponse, 0, len(discounts))
		for _, discount := range discounts {
			resp = append(resp, newProductDiscountResponse(discount))
		}

		responses.WriteSuccess(w, resp)
	}
}

func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters orders.OrderFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			userID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id must be a uuid").WithDetails(map[string]any{"field": "user_id"}))
				return
			}
			filters.UserID = &userID
		}

		list, err := svc.AdminList(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderSetStatus advances an order through its lifecycle.
func AdminOrderSetStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AdminSetStatus(r.Context(), orderID, enums.OrderStatus(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func AdminReturnList(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters returns.ReturnFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.ReturnStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown return status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			userID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id must be a uuid").WithDetails(map[string]any{"field": "user_id"}))
				return
			}
			filters.UserID = &userID
		}

		list, err := svc.AdminList(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReturnListResponse(list))
	}
}

type returnDecisionRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AdminReturnDecide approves or rejects a requested return. Approval refunds
// the order total against its original payment.
func AdminReturnDecide(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		returnID, err := validators.ParsePathUUID(r, "returnID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body returnDecisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Decide(r.Context(), returnID, returns.DecisionInput{
			Approve: body.Approve,
			Notes:   body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReturnResponse(request))
	}
}

func AdminLeadList(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lead service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters leads.LeadFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.LeadStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown lead status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filters.Status = &status
		}

		list, err := svc.AdminList(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := struct {
			Leads      []leadResponse `json:"leads"`
			NextCursor string         `json:"next_cursor,omitempty"`
		}{Leads: make([]leadResponse, 0, len(list.Leads))}
		for i := range list.Leads {
			resp.Leads = append(resp.Leads, newLeadResponse(&list.Leads[i]))
		}
		resp.NextCursor = list.NextCursor

		responses.WriteSuccess(w, resp)
	}
}

type leadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func AdminLeadSetStatus(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lead service unavailable"))
			return
		}

		leadID, err := validators.ParsePathUUID(r, "leadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body leadStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lead, err := svc.AdminSetStatus(r.Context(), leadID, enums.LeadStatus(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newLeadResponse(lead))
	}
}

type counterResponse struct {
	Entity string `json:"entity"`
	Prefix string `json:"prefix"`
	Next   int64  `json:"next_value"`
}

// AdminCounterList reports each document counter's prefix and upcoming value
// without claiming a number.
func AdminCounterList(alloc *sequence.Allocator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if alloc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sequence allocator unavailable"))
			return
		}

		states, err := alloc.Counters(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]counterResponse, 0, len(states))
		for _, state := range states {
			resp = append(resp, counterResponse{
				Entity: string(state.Entity),
				Prefix: state.Prefix,
				Next:   state.Next,
			})
		}

		responses.WriteSuccess(w, map[string]any{"counters": resp})
	}
}
