package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

// RequestJoinRequest is the body of POST /trips/{tripID}/memberships.
type RequestJoinRequest struct {
	// Message is an optional note to the trip creator.
	Message string `json:"message" validate:"max=1000"`
}

// RespondRequest is the body of POST
// /trips/{tripID}/memberships/{membershipID}/response.
type RespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve decline"`
}

// MembershipResponse is the wire representation of a membership row.
type MembershipResponse struct {
	ID          uuid.UUID  `json:"id"`
	TripID      uuid.UUID  `json:"trip_id"`
	ActorID     uuid.UUID  `json:"actor_id"`
	ActorName   string     `json:"actor_name"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// RequestJoin handles POST /trips/{tripID}/memberships.
func (s *Server) RequestJoin(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tripID, err := tripIDParam(r)
	if err != nil {
		requestError(w, "invalid trip id")
		return
	}

	var req RequestJoinRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	membership, err := s.memberships.RequestJoin(r.Context(), actor, tripID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, membershipToResponse(membership))
}

// RespondToRequest handles POST /trips/{tripID}/memberships/{membershipID}/response.
func (s *Server) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tripID, err := tripIDParam(r)
	if err != nil {
		requestError(w, "invalid trip id")
		return
	}
	membershipID, err := uuid.Parse(chi.URLParam(r, "membershipID"))
	if err != nil {
		requestError(w, "invalid membership id")
		return
	}

	var req RespondRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		writeError(w, err)
		return
	}

	membership, err := s.memberships.Respond(r.Context(), actor, tripID, membershipID, decision)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, membershipToResponse(membership))
}

func membershipToResponse(m domain.Membership) MembershipResponse {
	return MembershipResponse{
		ID:          m.ID,
		TripID:      m.TripID,
		ActorID:     m.ActorID,
		ActorName:   m.ActorName,
		Message:     m.Message,
		Status:      string(m.Status),
		RequestedAt: m.RequestedAt,
		RespondedAt: m.RespondedAt,
	}
}
