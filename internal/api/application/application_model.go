package application

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type CreateApplicationRequest struct {
	CandidateID uuid.UUID `json:"candidate_id" validate:"required"`
	JobID       uuid.UUID `json:"job_id" validate:"required"`
	Notes       *string   `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=applied screening interview offer hired rejected"`
	Notes  *string `json:"notes,omitempty"`
}
