package candidate

import "github.com/go-playground/validator/v10"

var validate = validator.New()

type CreateCandidateRequest struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           *string  `json:"phone,omitempty"`
	Location        *string  `json:"location,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	YearsExperience int      `json:"years_experience" validate:"gte=0"`
	Summary         *string  `json:"summary,omitempty"`
}

// UpdateCandidateParams carries partial updates; nil fields stay untouched.
type UpdateCandidateParams struct {
	Name            *string  `json:"name,omitempty"`
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string  `json:"phone,omitempty"`
	Location        *string  `json:"location,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	YearsExperience *int     `json:"years_experience,omitempty" validate:"omitempty,gte=0"`
	Summary         *string  `json:"summary,omitempty"`
}
