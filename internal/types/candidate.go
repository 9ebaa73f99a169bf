package types

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is an applicant identity independent of any single JD.
type Candidate struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Skills      []string   `json:"skills"`
	Resume      string     `json:"resume,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AppliedJob summarizes one of a candidate's applications.
type AppliedJob struct {
	JDID       uuid.UUID         `json:"jdId"`
	OfferID    uuid.UUID         `json:"offerId"`
	JobSummary string            `json:"jobSummary"`
	Status     ApplicationStatus `json:"status"`
	AppliedAt  time.Time         `json:"appliedAt"`
}
