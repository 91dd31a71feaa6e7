package candidate

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/internal/api"
)

type CandidateHandlerImpl struct {
	candidateService CandidateService
	logger           *slog.Logger
}

func NewCandidateHandlerImpl(candidateService CandidateService, logger *slog.Logger) *CandidateHandlerImpl {
	return &CandidateHandlerImpl{
		logger:           logger,
		candidateService: candidateService,
	}
}

func (h *CandidateHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCandidateRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "name and a valid email are required")
		return
	}

	c, err := h.candidateService.Create(r.Context(), req)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, c)
}

func (h *CandidateHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid candidate id")
		return
	}

	c, err := h.candidateService.GetByID(r.Context(), candidateID)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, c)
}

func (h *CandidateHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := api.ParsePagination(r)

	page, err := h.candidateService.List(r.Context(), limit, offset)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

func (h *CandidateHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid candidate id")
		return
	}

	var params UpdateCandidateParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid candidate fields")
		return
	}

	c, err := h.candidateService.Update(r.Context(), candidateID, params)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, c)
}

func (h *CandidateHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid candidate id")
		return
	}

	if err := h.candidateService.Delete(r.Context(), candidateID); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
