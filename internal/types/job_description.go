package types

import (
	"time"

	"github.com/google/uuid"
)

// JDSchemaVersion is the current stored shape of a JobDescription.
// Version 1 documents predate AI provenance and the outcome collections.
const JDSchemaVersion = 2

// ApplicationStatus is the screening state of one ApplicationRecord.
type ApplicationStatus string

// Application statuses.
const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationFiltered   ApplicationStatus = "filtered"
	ApplicationUnfiltered ApplicationStatus = "unfiltered"
)

// ApplicationRecord is a candidate's application to a specific JD.
// Contact fields are a snapshot taken when the candidate applied.
type ApplicationRecord struct {
	CandidateID   uuid.UUID         `json:"candidate"`
	Resume        string            `json:"resume"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone,omitempty"`
	Reallocate    bool              `json:"reallocate"`
	AppliedAt     time.Time         `json:"appliedAt"`
	Status        ApplicationStatus `json:"status"`
	AIScore       *int              `json:"aiScore,omitempty"`
	AIExplanation string            `json:"aiExplanation,omitempty"`
}

// OutcomeEntry is one member of the filtered or unfiltered collection.
type OutcomeEntry struct {
	CandidateID   uuid.UUID `json:"candidate"`
	AIScore       int       `json:"aiScore"`
	AIExplanation string    `json:"aiExplanation"`
}

// AIGenerationDetails records provenance for AI-authored JDs.
type AIGenerationDetails struct {
	GeneratedAt   time.Time `json:"generatedAt"`
	Model         string    `json:"model,omitempty"`
	RawAIResponse string    `json:"rawAIResponse,omitempty"`
}

// JobDescription describes a role, owned by the assigned recruiter, and holds
// the applicant roster and the latest screening outcome.
type JobDescription struct {
	SchemaVersion        int                  `json:"schemaVersion"`
	ID                   uuid.UUID            `json:"id"`
	OfferID              uuid.UUID            `json:"offerId"`
	CreatedBy            uuid.UUID            `json:"createdBy"`
	JobSummary           string               `json:"jobSummary"`
	Responsibilities     []string             `json:"responsibilities"`
	Requirements         []string             `json:"requirements"`
	Benefits             []string             `json:"benefits"`
	AdditionalNotes      string               `json:"additionalNotes,omitempty"`
	AdditionalInfo       string               `json:"additionalInfo,omitempty"`
	CompanyName          string               `json:"companyName,omitempty"`
	GeneratedByAI        bool                 `json:"generatedByAI"`
	AIGeneration         *AIGenerationDetails `json:"aiGenerationDetails,omitempty"`
	PublicToken          string               `json:"publicToken"`
	AppliedCandidates    []ApplicationRecord  `json:"appliedCandidates"`
	FilteredCandidates   []OutcomeEntry       `json:"filteredCandidates"`
	UnfilteredCandidates []OutcomeEntry       `json:"unfilteredCandidates"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// Normalize upgrades older documents to the current schema version, filling
// optional fields with their defaults so readers never check for presence.
func (jd *JobDescription) Normalize() {
	if jd.SchemaVersion < 1 {
		jd.SchemaVersion = 1
	}
	if jd.Responsibilities == nil {
		jd.Responsibilities = []string{}
	}
	if jd.Requirements == nil {
		jd.Requirements = []string{}
	}
	if jd.Benefits == nil {
		jd.Benefits = []string{}
	}
	if jd.AppliedCandidates == nil {
		jd.AppliedCandidates = []ApplicationRecord{}
	}
	if jd.FilteredCandidates == nil {
		jd.FilteredCandidates = []OutcomeEntry{}
	}
	if jd.UnfilteredCandidates == nil {
		jd.UnfilteredCandidates = []OutcomeEntry{}
	}
	for i := range jd.AppliedCandidates {
		if jd.AppliedCandidates[i].Status == "" {
			jd.AppliedCandidates[i].Status = ApplicationPending
		}
	}
	if !jd.GeneratedByAI {
		jd.AIGeneration = nil
	}
	jd.SchemaVersion = JDSchemaVersion
}

// HasApplicant reports whether the candidate already applied to this JD.
func (jd *JobDescription) HasApplicant(candidateID uuid.UUID) bool {
	for _, rec := range jd.AppliedCandidates {
		if rec.CandidateID == candidateID {
			return true
		}
	}
	return false
}

// PublicView is the narrative part of a JD, safe to expose through its public token.
type PublicView struct {
	JobSummary       string   `json:"jobSummary"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Benefits         []string `json:"benefits"`
	AdditionalInfo   string   `json:"additionalInfo,omitempty"`
	CompanyName      string   `json:"companyName,omitempty"`
}

// Public returns the public view of the JD.
func (jd *JobDescription) Public() PublicView {
	return PublicView{
		JobSummary:       jd.JobSummary,
		Responsibilities: jd.Responsibilities,
		Requirements:     jd.Requirements,
		Benefits:         jd.Benefits,
		AdditionalInfo:   jd.AdditionalInfo,
		CompanyName:      jd.CompanyName,
	}
}

// JobListing is a JD as advertised to candidates.
type JobListing struct {
	ID          uuid.UUID `json:"id"`
	PublicToken string    `json:"publicToken"`
	PublicView
	CreatedAt time.Time `json:"createdAt"`
}

// Listing returns the candidate-facing listing of the JD.
func (jd *JobDescription) Listing() JobListing {
	return JobListing{ID: jd.ID, PublicToken: jd.PublicToken, PublicView: jd.Public(), CreatedAt: jd.CreatedAt}
}
