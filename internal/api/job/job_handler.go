package job

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/internal/api"
)

type JobHandlerImpl struct {
	jobService JobService
	logger     *slog.Logger
}

func NewJobHandlerImpl(jobService JobService, logger *slog.Logger) *JobHandlerImpl {
	return &JobHandlerImpl{
		logger:     logger,
		jobService: jobService,
	}
}

func (h *JobHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "title is required")
		return
	}

	j, err := h.jobService.Create(r.Context(), req)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, j)
}

func (h *JobHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	j, err := h.jobService.GetByID(r.Context(), jobID)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, j)
}

func (h *JobHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := api.ParsePagination(r)
	status := r.URL.Query().Get("status")

	page, err := h.jobService.List(r.Context(), status, limit, offset)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

func (h *JobHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	var params UpdateJobParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid job fields")
		return
	}

	j, err := h.jobService.Update(r.Context(), jobID, params)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, j)
}

func (h *JobHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := h.jobService.Delete(r.Context(), jobID); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
