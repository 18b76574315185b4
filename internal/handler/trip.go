package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/middleware"
	"github.com/psoldner/tripcrew/backend/internal/service"
)

// --- wire types -------------------------------------------------------------

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	MaxPeople    int             `json:"max_people" validate:"required,min=1"`
	Itinerary    json.RawMessage `json:"itinerary"`
	MeetingPoint string          `json:"meeting_point"`
}

// UpdateTripRequest is the body of PATCH /trips/{tripID}.
// All fields are optional; absent fields are left unchanged.
type UpdateTripRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	MaxPeople    *int    `json:"max_people,omitempty" validate:"omitempty,min=1"`
	MeetingPoint *string `json:"meeting_point,omitempty"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=OPEN CLOSED"`
}

// TripResponse is the full trip representation returned to actors with view
// capability. Itinerary and meeting point are omitted for public-only views.
type TripResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	MaxPeople      int             `json:"max_people"`
	CurrentMembers int             `json:"current_members"`
	Status         string          `json:"status"`
	Itinerary      json.RawMessage `json:"itinerary,omitempty"`
	MeetingPoint   string          `json:"meeting_point,omitempty"`
	CreatorID      uuid.UUID       `json:"creator_id"`
	CreatorName    string          `json:"creator_name"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TripPublic is the public listing representation: name, description, and
// summary stats only.
type TripPublic struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	MaxPeople      int       `json:"max_people"`
	CurrentMembers int       `json:"current_members"`
	Status         string    `json:"status"`
	CreatorName    string    `json:"creator_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Pagination echoes the applied paging parameters alongside the total count.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TripListResponse is the body of GET /trips.
type TripListResponse struct {
	Data       []TripPublic `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// TripDetailResponse is the body of GET /trips/{tripID}: the actor-scoped
// snapshot a view renders from. Capabilities are the actor's freshly derived
// permission names so clients never cache authorization across mutations.
type TripDetailResponse struct {
	Trip             TripResponse         `json:"trip"`
	Memberships      []MembershipResponse `json:"memberships"`
	ChatPreviewCount int64                `json:"chat_preview_count"`
	Capabilities     []string             `json:"capabilities"`
}

// capabilityNames maps guard bits to their wire names, in a stable order.
var capabilityNames = []struct {
	cap  domain.Capability
	name string
}{
	{domain.CapViewPublic, "view_public"},
	{domain.CapRequestJoin, "request_join"},
	{domain.CapView, "view"},
	{domain.CapSendChat, "send_chat"},
	{domain.CapRespond, "respond"},
	{domain.CapManageSettings, "manage_settings"},
	{domain.CapViewAllMemberships, "view_all_memberships"},
}

// --- handlers ---------------------------------------------------------------

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateTripRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	created, err := s.trips.Create(r.Context(), actor, domain.Trip{
		Name:         req.Name,
		Description:  req.Description,
		MaxPeople:    req.MaxPeople,
		Itinerary:    domain.NewItinerary(req.Itinerary),
		MeetingPoint: req.MeetingPoint,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips: the public browse listing of open trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	trips, total, err := s.trips.ListOpen(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]TripPublic, len(trips))
	for i, t := range trips {
		data[i] = tripToPublic(t)
	}
	writeJSON(w, http.StatusOK, TripListResponse{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTripDetail handles GET /trips/{tripID}.
func (s *Server) GetTripDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tripID, err := tripIDParam(r)
	if err != nil {
		requestError(w, "invalid trip id")
		return
	}

	detail, err := s.trips.GetDetail(r.Context(), actor, tripID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detailToResponse(detail))
}

// UpdateTripSettings handles PATCH /trips/{tripID}.
func (s *Server) UpdateTripSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tripID, err := tripIDParam(r)
	if err != nil {
		requestError(w, "invalid trip id")
		return
	}

	var req UpdateTripRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	patch := domain.TripPatch{
		Name:         req.Name,
		Description:  req.Description,
		MaxPeople:    req.MaxPeople,
		MeetingPoint: req.MeetingPoint,
	}
	if req.Status != nil {
		status := domain.TripStatus(*req.Status)
		patch.Status = &status
	}

	updated, err := s.trips.UpdateSettings(r.Context(), actor, tripID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// --- helpers ----------------------------------------------------------------

// requireActor reads the authenticated identity set by the actor middleware.
// Writes a 401 and returns ok=false when the request carried none.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		unauthorized(w)
		return domain.Actor{}, false
	}
	return actor, true
}

// decodeBody decodes and validates a JSON request body.
// On failure it writes the 422 response itself and returns a non-nil error.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		requestError(w, "invalid request body")
		return err
	}
	if err := validate.Struct(v); err != nil {
		requestError(w, err.Error())
		return err
	}
	return nil
}

// queryInt parses an optional integer query parameter, returning nil when
// absent or malformed.
func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func tripToResponse(t domain.Trip) TripResponse {
	resp := TripResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		MaxPeople:      t.MaxPeople,
		CurrentMembers: t.CurrentMembers,
		Status:         string(t.Status),
		MeetingPoint:   t.MeetingPoint,
		CreatorID:      t.CreatorID,
		CreatorName:    t.CreatorName,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if !t.Itinerary.IsZero() {
		resp.Itinerary = t.Itinerary.Raw()
	}
	return resp
}

func tripToPublic(t domain.Trip) TripPublic {
	return TripPublic{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		MaxPeople:      t.MaxPeople,
		CurrentMembers: t.CurrentMembers,
		Status:         string(t.Status),
		CreatorName:    t.CreatorName,
		CreatedAt:      t.CreatedAt,
	}
}

func detailToResponse(d service.TripDetail) TripDetailResponse {
	memberships := make([]MembershipResponse, len(d.Memberships))
	for i, m := range d.Memberships {
		memberships[i] = membershipToResponse(m)
	}

	caps := []string{}
	for _, c := range capabilityNames {
		if d.Capabilities.Has(c.cap) {
			caps = append(caps, c.name)
		}
	}

	return TripDetailResponse{
		Trip:             tripToResponse(d.Trip),
		Memberships:      memberships,
		ChatPreviewCount: d.ChatPreviewCount,
		Capabilities:     caps,
	}
}
