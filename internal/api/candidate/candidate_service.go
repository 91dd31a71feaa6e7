package candidate

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/internal/types"
)

var _ CandidateService = (*CandidateServiceImpl)(nil)

type CandidateService interface {
	Create(ctx context.Context, req CreateCandidateRequest) (*types.Candidate, error)
	GetByID(ctx context.Context, candidateID uuid.UUID) (*types.Candidate, error)
	List(ctx context.Context, limit, offset int) (*types.Page[types.Candidate], error)
	Update(ctx context.Context, candidateID uuid.UUID, params UpdateCandidateParams) (*types.Candidate, error)
	Delete(ctx context.Context, candidateID uuid.UUID) error
}

type CandidateServiceImpl struct {
	logger *slog.Logger
	repo   CandidateRepo
}

func NewCandidateService(repo CandidateRepo, logger *slog.Logger) *CandidateServiceImpl {
	return &CandidateServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *CandidateServiceImpl) Create(ctx context.Context, req CreateCandidateRequest) (*types.Candidate, error) {
	c, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Candidate created", slog.String("candidateID", c.ID.String()))
	return c, nil
}

func (s *CandidateServiceImpl) GetByID(ctx context.Context, candidateID uuid.UUID) (*types.Candidate, error) {
	return s.repo.GetByID(ctx, candidateID)
}

func (s *CandidateServiceImpl) List(ctx context.Context, limit, offset int) (*types.Page[types.Candidate], error) {
	candidates, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &types.Page[types.Candidate]{
		Items:  candidates,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *CandidateServiceImpl) Update(ctx context.Context, candidateID uuid.UUID, params UpdateCandidateParams) (*types.Candidate, error) {
	return s.repo.Update(ctx, candidateID, params)
}

func (s *CandidateServiceImpl) Delete(ctx context.Context, candidateID uuid.UUID) error {
	return s.repo.Delete(ctx, candidateID)
}
