package application

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/internal/api"
)

type ApplicationHandlerImpl struct {
	applicationService ApplicationService
	logger             *slog.Logger
}

func NewApplicationHandlerImpl(applicationService ApplicationService, logger *slog.Logger) *ApplicationHandlerImpl {
	return &ApplicationHandlerImpl{
		logger:             logger,
		applicationService: applicationService,
	}
}

func (h *ApplicationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "candidate_id and job_id are required")
		return
	}

	a, err := h.applicationService.Create(r.Context(), req)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, a)
}

func (h *ApplicationHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	applicationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid application id")
		return
	}

	a, err := h.applicationService.GetByID(r.Context(), applicationID)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, a)
}

func (h *ApplicationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := api.ParsePagination(r)

	var jobID, candidateID *uuid.UUID
	if raw := r.URL.Query().Get("job_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "invalid job_id filter")
			return
		}
		jobID = &id
	}
	if raw := r.URL.Query().Get("candidate_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "invalid candidate_id filter")
			return
		}
		candidateID = &id
	}

	page, err := h.applicationService.List(r.Context(), jobID, candidateID, limit, offset)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

func (h *ApplicationHandlerImpl) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	applicationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid application id")
		return
	}

	var req UpdateStatusRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "status must be one of applied, screening, interview, offer, hired, rejected")
		return
	}

	a, err := h.applicationService.UpdateStatus(r.Context(), applicationID, req)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, a)
}

func (h *ApplicationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	applicationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid application id")
		return
	}

	if err := h.applicationService.Delete(r.Context(), applicationID); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
