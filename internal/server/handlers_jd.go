package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/talent-pipeline/internal/server/middleware"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// handleCreateJD creates a JD by hand for the offer in the path.
func (s *Server) handleCreateJD(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	offerID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req types.CreateJDRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	jd, err := s.manager.CreateJD(r.Context(), actor, offerID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jdCreated(w, jd)
}

// handleCreateJDWithAI generates a JD from the offer and the posted company context.
func (s *Server) handleCreateJDWithAI(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	offerID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req types.GenerateJDRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	jd, err := s.manager.CreateJDWithAI(r.Context(), actor, offerID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jdCreated(w, jd)
}

func (s *Server) jdCreated(w http.ResponseWriter, jd *types.JobDescription) {
	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"success":    true,
		"jd":         jd,
		"publicLink": s.manager.PublicLink(jd),
	})
}

func (s *Server) handleGetJD(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	jd, err := s.manager.GetJD(r.Context(), actor, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "jd": jd})
}

// handleAppliedCandidates returns the JD's roster with the latest statuses.
func (s *Server) handleAppliedCandidates(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	records, err := s.manager.AppliedCandidates(r.Context(), actor, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "candidates": records, "count": len(records)})
}

// handleFilteredCandidates returns the accepted pool of the last screening run.
func (s *Server) handleFilteredCandidates(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	entries, err := s.manager.FilteredCandidates(r.Context(), actor, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "candidates": entries, "count": len(entries)})
}

// handlePublicJD serves the narrative part of a JD by its public token. No auth.
func (s *Server) handlePublicJD(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		s.errorResponse(w, http.StatusBadRequest, "token is required")
		return
	}

	view, err := s.manager.PublicJD(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "jd": view})
}

// handleListJDs lists the JDs visible to the calling staff member.
func (s *Server) handleListJDs(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jds, err := s.manager.ListJDs(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "jds": jds, "count": len(jds)})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.manager.ListJobs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "jobs": jobs, "count": len(jobs)})
}
