package db

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/types"
)

// Store is the persistence surface shared by the Postgres store and MemoryStore.
// Getters return (nil, nil) when the row does not exist.
type Store interface {
	CreateOffer(ctx context.Context, offer *types.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*types.Offer, error)
	UpdateOffer(ctx context.Context, offer *types.Offer) error
	ListOffers(ctx context.Context, filter OfferFilter) ([]types.Offer, error)

	CreateJobDescription(ctx context.Context, jd *types.JobDescription) error
	GetJobDescription(ctx context.Context, id uuid.UUID) (*types.JobDescription, error)
	GetJobDescriptionByOffer(ctx context.Context, offerID uuid.UUID) (*types.JobDescription, error)
	GetJobDescriptionByToken(ctx context.Context, token string) (*types.JobDescription, error)
	ListJobDescriptions(ctx context.Context, filter JDFilter) ([]types.JobDescription, error)
	DeleteJobDescription(ctx context.Context, id uuid.UUID) error
	SaveScreeningOutcome(ctx context.Context, jd *types.JobDescription) error
	AppendApplication(ctx context.Context, jdID uuid.UUID, rec types.ApplicationRecord) (bool, error)
	ListApplications(ctx context.Context, candidateID uuid.UUID) ([]types.AppliedJob, error)

	GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error)
	GetCandidateByEmail(ctx context.Context, email string) (*types.Candidate, error)
	UpsertCandidate(ctx context.Context, c *types.Candidate) error
	UpdateCandidateResume(ctx context.Context, id uuid.UUID, resume string) error

	CreateUser(ctx context.Context, u *types.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	ListUsers(ctx context.Context, role types.Role) ([]types.User, error)
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*MemoryStore)(nil)
)

// OfferFilter narrows ListOffers. Nil fields match everything.
type OfferFilter struct {
	CreatedBy  *uuid.UUID
	AssignedTo *uuid.UUID
}

func (f OfferFilter) matches(o *types.Offer) bool {
	if f.CreatedBy != nil && o.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.AssignedTo != nil && o.AssignedTo != *f.AssignedTo {
		return false
	}
	return true
}

// JDFilter narrows ListJobDescriptions. A nil OfferIDs matches every JD; an
// empty non-nil one matches none.
type JDFilter struct {
	OfferIDs []uuid.UUID
}

func (f JDFilter) matches(jd *types.JobDescription) bool {
	if f.OfferIDs == nil {
		return true
	}
	for _, id := range f.OfferIDs {
		if jd.OfferID == id {
			return true
		}
	}
	return false
}

// appliedJob summarizes rec for the candidate's application history.
func appliedJob(jd *types.JobDescription, rec types.ApplicationRecord) types.AppliedJob {
	return types.AppliedJob{
		JDID:       jd.ID,
		OfferID:    jd.OfferID,
		JobSummary: jd.JobSummary,
		Status:     rec.Status,
		AppliedAt:  rec.AppliedAt,
	}
}

func sortAppliedJobs(jobs []types.AppliedJob) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].AppliedAt.Equal(jobs[j].AppliedAt) {
			return jobs[i].JDID.String() < jobs[j].JDID.String()
		}
		return jobs[i].AppliedAt.After(jobs[j].AppliedAt)
	})
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
