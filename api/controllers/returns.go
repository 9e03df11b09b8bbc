package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gearsupply/gearsupply-backend/api/responses"
	"github.com/gearsupply/gearsupply-backend/api/validators"
	"github.com/gearsupply/gearsupply-backend/internal/returns"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

type returnListResponse struct {
	Returns    []returnResponse `json:"returns"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func newReturnListResponse(list *returns.ReturnList) returnListResponse {
	resp := returnListResponse{Returns: []returnResponse{}}
	if list == nil {
		return resp
	}
	for i := range list.Returns {
		resp.Returns = append(resp.Returns, newReturnResponse(&list.Returns[i]))
	}
	resp.NextCursor = list.NextCursor
	return resp
}

// ReturnCreate accepts a multipart form: order_id, reason, and an optional
// attachment file (photo of the damaged part).
func ReturnCreate(svc returns.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxUploadMB <= 0 {
			maxUploadMB = 25
		}
		maxBytes := int64(maxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart form required"))
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(r.FormValue("order_id")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id must be a uuid").WithDetails(map[string]any{"field": "order_id"}))
			return
		}

		input := returns.CreateInput{
			OrderID: orderID,
			Reason:  strings.TrimSpace(r.FormValue("reason")),
		}

		if file, header, fileErr := r.FormFile("attachment"); fileErr == nil {
			defer file.Close()
			input.Attachment = &returns.Attachment{
				Filename: filepath.Base(header.Filename),
				Contents: file,
			}
		} else if fileErr != http.ErrMissingFile {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, fileErr, "read attachment"))
			return
		}

		request, err := svc.Create(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newReturnResponse(request))
	}
}

func ReturnList(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReturnListResponse(list))
	}
}

func ReturnGet(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := validators.ParsePathUUID(r, "returnID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Get(r.Context(), userID, returnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReturnResponse(request))
	}
}
