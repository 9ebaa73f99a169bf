package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// ErrGeneratorUnavailable is returned by CreateJDWithAI when no generator is configured.
var ErrGeneratorUnavailable = errors.New("AI job description generation is not configured")

// gateJDCreation loads the offer and checks that the actor may create its
// only JD. It runs before any generator call.
func (m *Manager) gateJDCreation(ctx context.Context, actor *types.Principal, offerID uuid.UUID) (*types.Offer, error) {
	offer, err := m.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != offer.AssignedTo {
		return nil, &types.ForbiddenError{Reason: "only the offer's assigned recruiter may create its job description"}
	}
	if offer.IsJDCreated {
		return nil, &types.ConflictError{Message: "a job description already exists for this offer"}
	}
	return offer, nil
}

func (m *Manager) newJD(offer *types.Offer, actor *types.Principal) (*types.JobDescription, error) {
	token, err := m.newToken()
	if err != nil {
		return nil, err
	}
	return &types.JobDescription{
		SchemaVersion: types.JDSchemaVersion,
		ID:            uuid.New(),
		OfferID:       offer.ID,
		CreatedBy:     actor.UserID,
		CompanyName:   offer.CompanyName,
		PublicToken:   token,
	}, nil
}

// CreateJD creates the offer's JD from recruiter-authored content.
func (m *Manager) CreateJD(ctx context.Context, actor *types.Principal, offerID uuid.UUID, req types.CreateJDRequest) (*types.JobDescription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offer, err := m.gateJDCreation(ctx, actor, offerID)
	if err != nil {
		return nil, err
	}

	jd, err := m.newJD(offer, actor)
	if err != nil {
		return nil, err
	}
	jd.JobSummary = strings.TrimSpace(req.JobSummary)
	jd.Responsibilities = req.Responsibilities
	jd.Requirements = req.Requirements
	jd.Benefits = req.Benefits
	jd.AdditionalNotes = req.AdditionalNotes
	if req.CompanyName != "" {
		jd.CompanyName = req.CompanyName
	}
	jd.Normalize()

	if _, err := commitJD(ctx, m.store, m.logger, offer, jd); err != nil {
		return nil, err
	}
	m.logger.Info("job description created",
		zap.String(logger.FieldJDID, jd.ID.String()),
		zap.String(logger.FieldOfferID, offer.ID.String()))
	return jd, nil
}

// CreateJDWithAI generates the offer's JD from the offer and company context.
// An offer that already has a JD is rejected before the generator is called.
func (m *Manager) CreateJDWithAI(ctx context.Context, actor *types.Principal, offerID uuid.UUID, req types.GenerateJDRequest) (*types.JobDescription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offer, err := m.gateJDCreation(ctx, actor, offerID)
	if err != nil {
		return nil, err
	}
	if m.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	generated, err := m.generator.Generate(ctx, offer, req)
	if err != nil {
		return nil, err
	}

	jd, err := m.newJD(offer, actor)
	if err != nil {
		return nil, err
	}
	jd.JobSummary = generated.JobSummary
	jd.Responsibilities = generated.Responsibilities
	jd.Requirements = generated.Requirements
	jd.Benefits = generated.Benefits
	jd.AdditionalInfo = generated.AdditionalInfo
	jd.AdditionalNotes = req.AdditionalNotes
	jd.CompanyName = req.CompanyName
	jd.GeneratedByAI = true
	jd.AIGeneration = &types.AIGenerationDetails{
		GeneratedAt:   m.now(),
		Model:         generated.Model,
		RawAIResponse: generated.Raw,
	}
	jd.Normalize()

	if _, err := commitJD(ctx, m.store, m.logger, offer, jd); err != nil {
		return nil, err
	}
	m.logger.Info("job description generated",
		zap.String(logger.FieldJDID, jd.ID.String()),
		zap.String(logger.FieldOfferID, offer.ID.String()),
		zap.String(logger.FieldModel, generated.Model))
	return jd, nil
}

// loadJD returns a JD and its offer after checking the actor may manage it:
// admins always, otherwise the offer's assignee or its creator.
func (m *Manager) loadJD(ctx context.Context, actor *types.Principal, jdID uuid.UUID) (*types.JobDescription, *types.Offer, error) {
	jd, err := m.store.GetJobDescription(ctx, jdID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load job description: %w", err)
	}
	if jd == nil {
		return nil, nil, &types.NotFoundError{Kind: "job description", ID: jdID.String()}
	}
	offer, err := m.loadOffer(ctx, jd.OfferID)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case actor.Role == types.RoleAdmin:
	case actor.Role == types.RoleCandidate:
		return nil, nil, &types.ForbiddenError{Reason: "candidates may only use the public job description"}
	case actor.UserID != offer.AssignedTo && actor.UserID != offer.CreatedBy:
		return nil, nil, &types.ForbiddenError{Reason: "job description belongs to another recruiter"}
	}
	return jd, offer, nil
}

// GetJD returns the full JD, including its candidate collections.
func (m *Manager) GetJD(ctx context.Context, actor *types.Principal, jdID uuid.UUID) (*types.JobDescription, error) {
	jd, _, err := m.loadJD(ctx, actor, jdID)
	return jd, err
}

// AppliedCandidates returns the JD's applicant roster.
func (m *Manager) AppliedCandidates(ctx context.Context, actor *types.Principal, jdID uuid.UUID) ([]types.ApplicationRecord, error) {
	jd, _, err := m.loadJD(ctx, actor, jdID)
	if err != nil {
		return nil, err
	}
	return jd.AppliedCandidates, nil
}

// FilteredCandidates returns the accepted applicants of the latest screening run.
func (m *Manager) FilteredCandidates(ctx context.Context, actor *types.Principal, jdID uuid.UUID) ([]types.OutcomeEntry, error) {
	jd, _, err := m.loadJD(ctx, actor, jdID)
	if err != nil {
		return nil, err
	}
	return jd.FilteredCandidates, nil
}

// PublicJD returns the public narrative of the JD with the given token.
func (m *Manager) PublicJD(ctx context.Context, token string) (*types.PublicView, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &types.NotFoundError{Kind: "job description", ID: token}
	}
	jd, err := m.store.GetJobDescriptionByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load job description: %w", err)
	}
	if jd == nil {
		return nil, &types.NotFoundError{Kind: "job description", ID: token}
	}
	view := jd.Public()
	return &view, nil
}

// PublicLink returns the public URL of a JD.
func (m *Manager) PublicLink(jd *types.JobDescription) string {
	return m.baseURL + "/public/jd/" + jd.PublicToken
}

// ListJDs returns the JDs visible to the actor: every JD for admins, and the
// JDs of offers the actor created or is assigned to otherwise.
func (m *Manager) ListJDs(ctx context.Context, actor *types.Principal) ([]types.JobDescription, error) {
	var filter db.JDFilter
	if actor.Role != types.RoleAdmin {
		var offerFilter db.OfferFilter
		switch actor.Role {
		case types.RoleRMG:
			offerFilter.CreatedBy = &actor.UserID
		case types.RoleHR:
			offerFilter.AssignedTo = &actor.UserID
		default:
			return nil, &types.ForbiddenError{Reason: fmt.Sprintf("role %q may not list job descriptions", actor.Role)}
		}
		offers, err := m.store.ListOffers(ctx, offerFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to list offers: %w", err)
		}
		filter.OfferIDs = make([]uuid.UUID, 0, len(offers))
		for _, o := range offers {
			filter.OfferIDs = append(filter.OfferIDs, o.ID)
		}
		if len(filter.OfferIDs) == 0 {
			return []types.JobDescription{}, nil
		}
	}
	jds, err := m.store.ListJobDescriptions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list job descriptions: %w", err)
	}
	return jds, nil
}

// ListJobs returns the candidate-facing listing of every JD whose offer is
// still open.
func (m *Manager) ListJobs(ctx context.Context) ([]types.JobListing, error) {
	offers, err := m.store.ListOffers(ctx, db.OfferFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	open := make([]uuid.UUID, 0, len(offers))
	for _, o := range offers {
		if o.IsJDCreated && o.Status != types.OfferStatusClosed {
			open = append(open, o.ID)
		}
	}
	listings := []types.JobListing{}
	if len(open) == 0 {
		return listings, nil
	}
	jds, err := m.store.ListJobDescriptions(ctx, db.JDFilter{OfferIDs: open})
	if err != nil {
		return nil, fmt.Errorf("failed to list job descriptions: %w", err)
	}
	for i := range jds {
		listings = append(listings, jds[i].Listing())
	}
	return listings, nil
}
