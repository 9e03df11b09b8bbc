package controllers

import (
	"net/http"

	"github.com/gearsupply/gearsupply-backend/api/responses"
	"github.com/gearsupply/gearsupply-backend/api/validators"
	"github.com/gearsupply/gearsupply-backend/internal/leads"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

type leadCreateRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,max=40"`
	CompanyName string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Message     string `json:"message" validate:"required,max=5000"`
}

// LeadCreate captures an inbound sales inquiry from the public site.
func LeadCreate(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lead service unavailable"))
			return
		}

		var body leadCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lead, err := svc.Create(r.Context(), leads.CreateInput{
			Name:        body.Name,
			Email:       body.Email,
			Phone:       body.Phone,
			CompanyName: body.CompanyName,
			Message:     body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newLeadResponse(lead))
	}
}
