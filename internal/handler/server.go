// Package handler implements the HTTP surface of the TripCrew registry.
// Handlers are methods on Server, split into domain-specific files (trip.go,
// membership.go, chat.go, health.go) that all share the same struct. The wire
// types live here too and are exported so the sync client package can decode
// the same shapes it sends.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/service"
)

// validate checks the `validate` struct tags on request bodies.
// WithRequiredStructEnabled opts into the v11 behavior for required structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, actor domain.Actor, trip domain.Trip) (domain.Trip, error)
	ListOpen(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	GetDetail(ctx context.Context, actor domain.Actor, tripID uuid.UUID) (service.TripDetail, error)
	UpdateSettings(ctx context.Context, actor domain.Actor, tripID uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
}

// MembershipServicer defines the join-workflow operations the membership
// handlers depend on.
type MembershipServicer interface {
	RequestJoin(ctx context.Context, actor domain.Actor, tripID uuid.UUID, message string) (domain.Membership, error)
	Respond(ctx context.Context, actor domain.Actor, tripID, membershipID uuid.UUID, decision domain.Decision) (domain.Membership, error)
}

// ChatServicer defines the chat operations the chat handlers depend on.
type ChatServicer interface {
	Send(ctx context.Context, actor domain.Actor, tripID uuid.UUID, body string) (domain.ChatMessage, error)
	List(ctx context.Context, actor domain.Actor, tripID uuid.UUID) ([]domain.ChatMessage, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	trips       TripServicer
	memberships MembershipServicer
	chat        ChatServicer
	openapi     []byte
}

// NewServer constructs the Server with all its dependencies.
// openapi is the raw spec document served at /openapi.yaml; pass nil to
// disable the route.
func NewServer(trips TripServicer, memberships MembershipServicer, chat ChatServicer, openapi []byte) *Server {
	return &Server{trips: trips, memberships: memberships, chat: chat, openapi: openapi}
}

// Routes returns the chi router for the full API surface.
// Actor extraction happens in middleware before this router; handlers read
// the identity from the request context and pass it explicitly to services.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTripDetail)
			r.Patch("/", s.UpdateTripSettings)
			r.Post("/memberships", s.RequestJoin)
			r.Post("/memberships/{membershipID}/response", s.RespondToRequest)
			r.Get("/chat", s.ListChat)
			r.Post("/chat", s.SendChat)
		})
	})

	return r
}

// tripIDParam parses the {tripID} path parameter.
func tripIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "tripID"))
}
