package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/screening"
	"github.com/jonathan/talent-pipeline/internal/server/middleware"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// FilterResponse is the body of a screening run response.
type FilterResponse struct {
	Success    bool                `json:"success"`
	Filtered   []screening.Verdict `json:"filtered"`
	Unfiltered []screening.Verdict `json:"unfiltered"`
	Warnings   []string            `json:"warnings,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// handleFilterResumes screens every applicant of the JD and commits the outcome.
// The run is bounded by the screening timeout; a run that does not finish
// commits nothing.
func (s *Server) handleFilterResumes(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jdID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.screeningTimeout)
	defer cancel()

	report, err := s.screener.Screen(ctx, jdID, actor)
	if err != nil {
		var pe *screening.PersistenceError
		switch {
		case errors.As(err, &pe):
			s.logger.Error("screening results not saved", zap.String(logger.FieldJDID, jdID.String()), zap.Error(err))
			s.jsonResponse(w, http.StatusInternalServerError, FilterResponse{
				Filtered:   []screening.Verdict{},
				Unfiltered: []screening.Verdict{},
				Error:      "failed to save screening results; the previous outcome is unchanged",
			})
		case errors.Is(err, context.DeadlineExceeded):
			s.logger.Warn("screening run timed out", zap.String(logger.FieldJDID, jdID.String()), zap.Duration("timeout", s.screeningTimeout))
			s.jsonResponse(w, http.StatusGatewayTimeout, FilterResponse{
				Filtered:   []screening.Verdict{},
				Unfiltered: []screening.Verdict{},
				Error:      "screening run timed out; no results were saved",
			})
		default:
			s.fail(w, r, err)
		}
		return
	}

	resp := FilterResponse{
		Success:    true,
		Filtered:   report.Filtered,
		Unfiltered: report.Unfiltered,
		Warnings:   report.Warnings,
	}
	if resp.Filtered == nil {
		resp.Filtered = []screening.Verdict{}
	}
	if resp.Unfiltered == nil {
		resp.Unfiltered = []screening.Verdict{}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleApply records the calling candidate's application.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	s.handleApplication(w, r, s.manager.Apply)
}

// handleAddResume adds an application on a candidate's behalf.
func (s *Server) handleAddResume(w http.ResponseWriter, r *http.Request) {
	s.handleApplication(w, r, s.manager.AddResume)
}

type applicationFunc func(ctx context.Context, actor *types.Principal, jdID uuid.UUID, req types.ApplicationRequest) (*types.ApplicationRecord, error)

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request, apply applicationFunc) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jdID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req types.ApplicationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := apply(r.Context(), actor, jdID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"success": true, "application": rec})
}

// handleInvite emails the JD's public link to the listed candidates.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	jdID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req types.InviteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.manager.Invite(r.Context(), actor, jdID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"sentCount": result.SentCount,
		"failed":    result.Failed,
	})
}

// handleAppliedJobs lists the calling candidate's applications.
func (s *Server) handleAppliedJobs(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobs, err := s.manager.AppliedJobs(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "jobs": jobs, "count": len(jobs)})
}
