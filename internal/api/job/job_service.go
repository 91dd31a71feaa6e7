package job

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/internal/types"
)

var _ JobService = (*JobServiceImpl)(nil)

type JobService interface {
	Create(ctx context.Context, req CreateJobRequest) (*types.Job, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (*types.Job, error)
	List(ctx context.Context, status string, limit, offset int) (*types.Page[types.Job], error)
	Update(ctx context.Context, jobID uuid.UUID, params UpdateJobParams) (*types.Job, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
}

type JobServiceImpl struct {
	logger *slog.Logger
	repo   JobRepo
}

func NewJobService(repo JobRepo, logger *slog.Logger) *JobServiceImpl {
	return &JobServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *JobServiceImpl) Create(ctx context.Context, req CreateJobRequest) (*types.Job, error) {
	j, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Job created", slog.String("jobID", j.ID.String()), slog.String("title", j.Title))
	return j, nil
}

func (s *JobServiceImpl) GetByID(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	return s.repo.GetByID(ctx, jobID)
}

func (s *JobServiceImpl) List(ctx context.Context, status string, limit, offset int) (*types.Page[types.Job], error) {
	jobs, total, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return &types.Page[types.Job]{
		Items:  jobs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *JobServiceImpl) Update(ctx context.Context, jobID uuid.UUID, params UpdateJobParams) (*types.Job, error) {
	return s.repo.Update(ctx, jobID, params)
}

func (s *JobServiceImpl) Delete(ctx context.Context, jobID uuid.UUID) error {
	return s.repo.Delete(ctx, jobID)
}
