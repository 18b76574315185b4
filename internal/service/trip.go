// Package service contains the business logic for the TripCrew registry.
// Services validate inputs, enforce the capability guard, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations, and always receive the acting identity explicitly.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/repo"
)

// TripDetail is the actor-scoped view of a single trip: the trip itself, the
// membership rows the actor is allowed to see, the chat preview count, and
// the actor's freshly derived capability set. Capabilities ride along so
// clients re-evaluate authorization from the same snapshot they render.
type TripDetail struct {
	Trip             domain.Trip
	Memberships      []domain.Membership
	ChatPreviewCount int64
	Capabilities     domain.CapabilitySet
}

// TripService implements business logic for Trip operations.
type TripService struct {
	trips       repo.TripRepo
	memberships repo.MembershipRepo
	chat        repo.ChatRepo
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, memberships repo.MembershipRepo, chat repo.ChatRepo) *TripService {
	return &TripService{trips: trips, memberships: memberships, chat: chat}
}

// Create validates and persists a new trip owned by the acting user.
func (s *TripService) Create(ctx context.Context, actor domain.Actor, trip domain.Trip) (domain.Trip, error) {
	if strings.TrimSpace(trip.Name) == "" {
		return domain.Trip{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if trip.MaxPeople < 1 {
		return domain.Trip{}, fmt.Errorf("%w: max_people must be at least 1", domain.ErrValidation)
	}

	trip.CreatorID = actor.ID
	trip.CreatorName = actor.Name

	result, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// ListOpen returns the public browse listing: open trips, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListOpen(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListOpen(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListOpen: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// GetDetail assembles the actor-scoped trip detail.
//
// Membership visibility follows the guard: actors with view-all-memberships
// (the creator) see every row; actors with plain view see only their own;
// actors with only public visibility get the trip's public fields and no
// memberships or chat count.
func (s *TripService) GetDetail(ctx context.Context, actor domain.Actor, tripID uuid.UUID) (TripDetail, error) {
	trip, membership, caps, err := snapshot(ctx, s.trips, s.memberships, actor, tripID)
	if err != nil {
		return TripDetail{}, fmt.Errorf("service.TripService.GetDetail: %w", err)
	}

	detail := TripDetail{Trip: trip, Memberships: []domain.Membership{}, Capabilities: caps}

	if !caps.Has(domain.CapView) {
		// Public-only visibility: strip trip internals.
		detail.Trip.Itinerary = domain.Itinerary{}
		detail.Trip.MeetingPoint = ""
		return detail, nil
	}

	switch {
	case caps.Has(domain.CapViewAllMemberships):
		all, err := s.memberships.ListByTrip(ctx, tripID)
		if err != nil {
			return TripDetail{}, fmt.Errorf("service.TripService.GetDetail: %w", err)
		}
		if all != nil {
			detail.Memberships = all
		}
	case membership != nil:
		detail.Memberships = []domain.Membership{*membership}
	}

	count, err := s.chat.CountByTrip(ctx, tripID)
	if err != nil {
		return TripDetail{}, fmt.Errorf("service.TripService.GetDetail: %w", err)
	}
	detail.ChatPreviewCount = count

	return detail, nil
}

// UpdateSettings applies a partial settings patch to a trip. Only the creator
// may call this; capacity may not drop below the current member count, and
// status may only be toggled between OPEN and CLOSED (FULL is derived).
func (s *TripService) UpdateSettings(ctx context.Context, actor domain.Actor, tripID uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	trip, _, caps, err := snapshot(ctx, s.trips, s.memberships, actor, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateSettings: %w", err)
	}
	if !caps.Has(domain.CapManageSettings) {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateSettings: %w: only the creator may change settings", domain.ErrForbidden)
	}

	if patch.Name != nil {
		trip.Name = *patch.Name
	}
	if patch.Description != nil {
		trip.Description = *patch.Description
	}
	if patch.MaxPeople != nil {
		trip.MaxPeople = *patch.MaxPeople
	}
	if patch.MeetingPoint != nil {
		trip.MeetingPoint = *patch.MeetingPoint
	}
	if patch.Status != nil {
		if *patch.Status != domain.TripOpen && *patch.Status != domain.TripClosed {
			return domain.Trip{}, fmt.Errorf("%w: status may only be set to OPEN or CLOSED", domain.ErrValidation)
		}
		trip.Status = *patch.Status
	}

	if strings.TrimSpace(trip.Name) == "" {
		return domain.Trip{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if trip.MaxPeople < 1 {
		return domain.Trip{}, fmt.Errorf("%w: max_people must be at least 1", domain.ErrValidation)
	}
	if trip.MaxPeople < trip.CurrentMembers {
		return domain.Trip{}, fmt.Errorf("%w: max_people cannot drop below the current member count (%d)", domain.ErrValidation, trip.CurrentMembers)
	}

	result, err := s.trips.UpdateSettings(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateSettings: %w", err)
	}
	return result, nil
}

// snapshot loads the trip and the actor's membership (nil when none) and
// derives the capability set — the one way every service evaluates
// authorization, so the guard is always applied to a fresh read.
func snapshot(ctx context.Context, trips repo.TripRepo, memberships repo.MembershipRepo, actor domain.Actor, tripID uuid.UUID) (domain.Trip, *domain.Membership, domain.CapabilitySet, error) {
	trip, err := trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, nil, 0, err
	}

	var membership *domain.Membership
	if actor.ID != trip.CreatorID {
		m, err := memberships.GetByTripAndActor(ctx, tripID, actor.ID)
		switch {
		case err == nil:
			membership = &m
		case !errors.Is(err, domain.ErrNotFound):
			return domain.Trip{}, nil, 0, err
		}
	}

	return trip, membership, domain.Capabilities(actor, trip, membership), nil
}
