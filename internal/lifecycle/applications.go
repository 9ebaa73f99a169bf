package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/notify"
	"github.com/jonathan/talent-pipeline/internal/types"
)

func duplicateApplication() error {
	return &types.ConflictError{Message: "candidate has already applied to this job description"}
}

func (m *Manager) getJD(ctx context.Context, jdID uuid.UUID) (*types.JobDescription, error) {
	jd, err := m.store.GetJobDescription(ctx, jdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job description: %w", err)
	}
	if jd == nil {
		return nil, &types.NotFoundError{Kind: "job description", ID: jdID.String()}
	}
	return jd, nil
}

func (m *Manager) appendApplication(ctx context.Context, jd *types.JobDescription, candidate *types.Candidate, req types.ApplicationRequest) (*types.ApplicationRecord, error) {
	rec := types.ApplicationRecord{
		CandidateID: candidate.ID,
		Resume:      req.Resume,
		Name:        strings.TrimSpace(req.Name),
		Email:       db.NormalizeEmail(req.Email),
		Phone:       req.Phone,
		Reallocate:  req.Reallocate,
		AppliedAt:   m.now(),
		Status:      types.ApplicationPending,
	}
	appended, err := m.store.AppendApplication(ctx, jd.ID, rec)
	if err != nil {
		return nil, err
	}
	if !appended {
		return nil, duplicateApplication()
	}
	m.logger.Info("application recorded",
		zap.String(logger.FieldJDID, jd.ID.String()),
		zap.String(logger.FieldCandidateID, candidate.ID.String()))
	return &rec, nil
}

// Apply records the authenticated candidate's application. The candidate's
// latest resume is overwritten first; a second application to the same JD is
// a ConflictError and leaves the roster unchanged.
func (m *Manager) Apply(ctx context.Context, actor *types.Principal, jdID uuid.UUID, req types.ApplicationRequest) (*types.ApplicationRecord, error) {
	if err := requireRole(actor, types.RoleCandidate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	jd, err := m.getJD(ctx, jdID)
	if err != nil {
		return nil, err
	}
	candidate, err := m.store.GetCandidate(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return nil, &types.NotFoundError{Kind: "candidate", ID: actor.UserID.String()}
	}
	if jd.HasApplicant(candidate.ID) {
		return nil, duplicateApplication()
	}

	if err := m.store.UpdateCandidateResume(ctx, candidate.ID, req.Resume); err != nil {
		return nil, err
	}
	return m.appendApplication(ctx, jd, candidate, req)
}

// AddResume adds an application on a candidate's behalf, creating the
// candidate from the email when unknown. A duplicate is rejected before the
// stored candidate is touched.
func (m *Manager) AddResume(ctx context.Context, actor *types.Principal, jdID uuid.UUID, req types.ApplicationRequest) (*types.ApplicationRecord, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleHR); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	jd, _, err := m.loadJD(ctx, actor, jdID)
	if err != nil {
		return nil, err
	}

	existing, err := m.store.GetCandidateByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if existing != nil && jd.HasApplicant(existing.ID) {
		return nil, duplicateApplication()
	}

	candidate := &types.Candidate{
		Name:   strings.TrimSpace(req.Name),
		Email:  req.Email,
		Phone:  req.Phone,
		Resume: req.Resume,
	}
	if err := m.store.UpsertCandidate(ctx, candidate); err != nil {
		return nil, err
	}
	return m.appendApplication(ctx, jd, candidate, req)
}

// InviteResult summarizes an invite batch.
type InviteResult struct {
	SentCount int      `json:"sentCount"`
	Failed    []string `json:"failed,omitempty"`
}

// Invite emails each listed candidate the JD's public link. Unknown candidates
// and failed sends are reported in Failed and do not stop the batch.
func (m *Manager) Invite(ctx context.Context, actor *types.Principal, jdID uuid.UUID, req types.InviteRequest) (*InviteResult, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleHR); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	jd, _, err := m.loadJD(ctx, actor, jdID)
	if err != nil {
		return nil, err
	}

	link := m.PublicLink(jd)
	result := &InviteResult{}
	for _, raw := range req.CandidateIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		id, _ := uuid.Parse(raw)
		candidate, err := m.store.GetCandidate(ctx, id)
		if err != nil || candidate == nil {
			result.Failed = append(result.Failed, raw)
			continue
		}
		if err := m.notifier.Send(ctx, notify.JDInvite(candidate, jd, link)); err != nil {
			m.logger.Warn("invite not sent",
				zap.String(logger.FieldJDID, jd.ID.String()),
				zap.String(logger.FieldCandidateID, raw),
				zap.Error(err))
			result.Failed = append(result.Failed, raw)
			continue
		}
		result.SentCount++
	}
	m.logger.Info("invites sent",
		zap.String(logger.FieldJDID, jd.ID.String()),
		zap.Int("sent", result.SentCount),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// AppliedJobs returns the authenticated candidate's applications, most recent first.
func (m *Manager) AppliedJobs(ctx context.Context, actor *types.Principal) ([]types.AppliedJob, error) {
	if err := requireRole(actor, types.RoleCandidate); err != nil {
		return nil, err
	}
	jobs, err := m.store.ListApplications(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return jobs, nil
}
