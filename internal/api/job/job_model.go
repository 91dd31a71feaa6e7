package job

import "github.com/go-playground/validator/v10"

var validate = validator.New()

type CreateJobRequest struct {
	Title          string  `json:"title" validate:"required"`
	Department     *string `json:"department,omitempty"`
	Location       *string `json:"location,omitempty"`
	EmploymentType *string `json:"employment_type,omitempty"`
	Description    *string `json:"description,omitempty"`
}

type UpdateJobParams struct {
	Title          *string `json:"title,omitempty"`
	Department     *string `json:"department,omitempty"`
	Location       *string `json:"location,omitempty"`
	EmploymentType *string `json:"employment_type,omitempty"`
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=open paused closed"`
	Description    *string `json:"description,omitempty"`
}
