package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/internal/types"
)

var _ ApplicationService = (*ApplicationServiceImpl)(nil)

type ApplicationService interface {
	Create(ctx context.Context, req CreateApplicationRequest) (*types.Application, error)
	GetByID(ctx context.Context, applicationID uuid.UUID) (*types.Application, error)
	List(ctx context.Context, jobID, candidateID *uuid.UUID, limit, offset int) (*types.Page[types.Application], error)
	UpdateStatus(ctx context.Context, applicationID uuid.UUID, req UpdateStatusRequest) (*types.Application, error)
	Delete(ctx context.Context, applicationID uuid.UUID) error
}

// nextStatuses maps each pipeline status to the statuses it may move to.
// hired and rejected are terminal.
var nextStatuses = map[string][]string{
	types.ApplicationApplied:   {types.ApplicationScreening, types.ApplicationRejected},
	types.ApplicationScreening: {types.ApplicationInterview, types.ApplicationRejected},
	types.ApplicationInterview: {types.ApplicationOffer, types.ApplicationRejected},
	types.ApplicationOffer:     {types.ApplicationHired, types.ApplicationRejected},
	types.ApplicationHired:     {},
	types.ApplicationRejected:  {},
}

func canTransition(from, to string) bool {
	for _, s := range nextStatuses[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ApplicationServiceImpl struct {
	logger *slog.Logger
	repo   ApplicationRepo
}

func NewApplicationService(repo ApplicationRepo, logger *slog.Logger) *ApplicationServiceImpl {
	return &ApplicationServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ApplicationServiceImpl) Create(ctx context.Context, req CreateApplicationRequest) (*types.Application, error) {
	a, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Application created",
		slog.String("applicationID", a.ID.String()),
		slog.String("candidateID", a.CandidateID.String()),
		slog.String("jobID", a.JobID.String()))
	return a, nil
}

func (s *ApplicationServiceImpl) GetByID(ctx context.Context, applicationID uuid.UUID) (*types.Application, error) {
	return s.repo.GetByID(ctx, applicationID)
}

func (s *ApplicationServiceImpl) List(ctx context.Context, jobID, candidateID *uuid.UUID, limit, offset int) (*types.Page[types.Application], error) {
	applications, total, err := s.repo.List(ctx, jobID, candidateID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &types.Page[types.Application]{
		Items:  applications,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *ApplicationServiceImpl) UpdateStatus(ctx context.Context, applicationID uuid.UUID, req UpdateStatusRequest) (*types.Application, error) {
	current, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !canTransition(current.Status, req.Status) {
		return nil, fmt.Errorf("cannot move application from %s to %s: %w", current.Status, req.Status, types.ErrBadRequest)
	}

	a, err := s.repo.UpdateStatus(ctx, applicationID, req.Status, req.Notes)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Application status updated",
		slog.String("applicationID", a.ID.String()),
		slog.String("from", current.Status),
		slog.String("to", a.Status))
	return a, nil
}

func (s *ApplicationServiceImpl) Delete(ctx context.Context, applicationID uuid.UUID) error {
	return s.repo.Delete(ctx, applicationID)
}
