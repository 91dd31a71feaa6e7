package types

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	JobOpen   = "open"
	JobPaused = "paused"
	JobClosed = "closed"
)

// Application pipeline statuses. Transitions move forward along the pipeline;
// rejected is reachable from any non-terminal status.
const (
	ApplicationApplied   = "applied"
	ApplicationScreening = "screening"
	ApplicationInterview = "interview"
	ApplicationOffer     = "offer"
	ApplicationHired     = "hired"
	ApplicationRejected  = "rejected"
)

type Candidate struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone,omitempty"`
	Location        *string   `json:"location,omitempty"`
	Skills          []string  `json:"skills"`
	YearsExperience int       `json:"years_experience"`
	Summary         *string   `json:"summary,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Job struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Department     *string   `json:"department,omitempty"`
	Location       *string   `json:"location,omitempty"`
	EmploymentType *string   `json:"employment_type,omitempty"`
	Status         string    `json:"status"`
	Description    *string   `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Application struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	JobID       uuid.UUID `json:"job_id"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	AppliedAt   time.Time `json:"applied_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Page is the list-response envelope shared by all list endpoints.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
