package controllers

import (
	"net/http"

	"github.com/gearsupply/gearsupply-backend/api/responses"
	"github.com/gearsupply/gearsupply-backend/api/validators"
	checkoutsvc "github.com/gearsupply/gearsupply-backend/internal/checkout"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

type checkoutRequest struct {
	SourceID string `json:"source_id" validate:"required"`
}

// Checkout converts the caller's cart into a paid order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, checkoutsvc.PlaceOrderInput{SourceID: body.SourceID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
