package screening

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Repository is the storage the screening service reads and writes.
type Repository interface {
	GetJobDescription(ctx context.Context, id uuid.UUID) (*types.JobDescription, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*types.Offer, error)
	OutcomeStore
}

// Report is the response of a committed screening run.
type Report struct {
	JDID       uuid.UUID   `json:"jdId"`
	Filtered   []Verdict   `json:"filtered"`
	Unfiltered []Verdict   `json:"unfiltered"`
	Warnings   []string    `json:"warnings,omitempty"`
	Pending    []uuid.UUID `json:"pending,omitempty"`
}

// Service loads a JD, screens its applicants and commits the outcome.
type Service struct {
	repo         Repository
	orchestrator *Orchestrator
	writer       *AggregateWriter
	logger       *zap.Logger
}

// NewService wires a screening service.
func NewService(repo Repository, orchestrator *Orchestrator, log *zap.Logger) *Service {
	log = logger.OrNop(log)
	return &Service{
		repo:         repo,
		orchestrator: orchestrator,
		writer:       NewAggregateWriter(repo, log),
		logger:       log,
	}
}

// Screen runs screening for a JD. A non-nil actor must be the assignee of
// the JD's offer; a nil actor is a trusted operator.
func (s *Service) Screen(ctx context.Context, jdID uuid.UUID, actor *types.Principal) (*Report, error) {
	jd, err := s.repo.GetJobDescription(ctx, jdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load JD: %w", err)
	}
	if jd == nil {
		return nil, &types.NotFoundError{Kind: "job description", ID: jdID.String()}
	}

	offer, err := s.repo.GetOffer(ctx, jd.OfferID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if offer == nil {
		return nil, &types.NotFoundError{Kind: "offer", ID: jd.OfferID.String()}
	}
	if actor != nil && actor.UserID != offer.AssignedTo {
		return nil, &types.ForbiddenError{Reason: "only the offer's assigned recruiter may screen its candidates"}
	}

	result, err := s.orchestrator.Run(ctx, jd)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunCancelled, err)
	}

	merged, err := s.writer.Commit(ctx, jd, result.Filtered, result.Unfiltered)
	if err != nil {
		return nil, err
	}

	report := &Report{
		JDID:       jd.ID,
		Filtered:   merged.Filtered,
		Unfiltered: merged.Unfiltered,
		Pending:    merged.Unscreened,
	}
	for _, miss := range result.Misses {
		report.Warnings = append(report.Warnings, miss.Error())
	}
	for _, v := range merged.Skipped {
		report.Warnings = append(report.Warnings, fmt.Sprintf("verdict for %s matches no applied record", v.CandidateID))
	}
	return report, nil
}
