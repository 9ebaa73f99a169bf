package server

import (
	"net/http"

	"github.com/jonathan/talent-pipeline/internal/server/middleware"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// handleCreateOffer opens an Offer and notifies its recruiter.
func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.CreateOfferRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	offer, err := s.manager.CreateOffer(r.Context(), actor, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"success": true, "offer": offer})
}

// handleListOffers lists the Offers visible to the caller.
func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	offers, err := s.manager.ListOffers(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if offers == nil {
		offers = []types.Offer{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "offers": offers, "count": len(offers)})
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
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

	offer, err := s.manager.GetOffer(r.Context(), actor, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "offer": offer})
}

// handleAssignOffer re-assigns an Offer to another recruiter.
func (s *Server) handleAssignOffer(w http.ResponseWriter, r *http.Request) {
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

	var req types.AssignOfferRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	offer, err := s.manager.AssignRecruiter(r.Context(), actor, id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "offer": offer})
}

// handleUpdateOfferStatus applies an administrative forward transition.
func (s *Server) handleUpdateOfferStatus(w http.ResponseWriter, r *http.Request) {
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

	var req types.UpdateOfferStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	offer, err := s.manager.UpdateStatus(r.Context(), actor, id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "offer": offer})
}

// handleUpdateOffer edits the posted fields of an Offer.
func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
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

	var req types.UpdateOfferRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	offer, err := s.manager.UpdateOffer(r.Context(), actor, id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "offer": offer})
}

// handleListRecruiters lists the users offers can be assigned to.
func (s *Server) handleListRecruiters(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetPrincipal(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	users, err := s.manager.ListRecruiters(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "users": users, "count": len(users)})
}
