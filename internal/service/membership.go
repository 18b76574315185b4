package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/repo"
)

// MembershipPolicy carries the registry-level policy knobs for the join
// workflow.
type MembershipPolicy struct {
	// AllowRejoinAfterDecline lets a previously declined actor file a fresh
	// join request (as a new membership row; the declined row stays as
	// history). When false, a decline is final for that trip.
	AllowRejoinAfterDecline bool
}

// MembershipService implements the join-request workflow: filing requests and
// the creator's approve/decline responses.
type MembershipService struct {
	trips       repo.TripRepo
	memberships repo.MembershipRepo
	policy      MembershipPolicy
}

// NewMembershipService constructs a MembershipService backed by the provided
// repos.
func NewMembershipService(trips repo.TripRepo, memberships repo.MembershipRepo, policy MembershipPolicy) *MembershipService {
	return &MembershipService{trips: trips, memberships: memberships, policy: policy}
}

// RequestJoin files a join request for the acting user on a trip.
//
// The request is rejected with ErrConflict when the actor already holds a
// live membership (or a declined one, unless the rejoin policy allows it),
// and with ErrForbidden when the actor's capability set lacks request-join —
// which covers the creator requesting their own trip and trips that are FULL
// or CLOSED. Rejecting on FULL here is an additive guard; the authoritative
// capacity check still happens at approval time.
func (s *MembershipService) RequestJoin(ctx context.Context, actor domain.Actor, tripID uuid.UUID, message string) (domain.Membership, error) {
	trip, membership, caps, err := snapshot(ctx, s.trips, s.memberships, actor, tripID)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.RequestJoin: %w", err)
	}

	if membership != nil {
		if membership.Live() {
			return domain.Membership{}, fmt.Errorf("service.MembershipService.RequestJoin: %w: a %s membership already exists", domain.ErrConflict, membership.Status)
		}
		if !s.policy.AllowRejoinAfterDecline {
			return domain.Membership{}, fmt.Errorf("service.MembershipService.RequestJoin: %w: a previous request was declined", domain.ErrConflict)
		}
		// The declined row no longer constrains the actor: the guard below
		// evaluates the trip as if they held no membership, so only the
		// trip's own state (FULL, CLOSED) can still reject the request.
		caps = domain.Capabilities(actor, trip, nil)
	}

	if !caps.Has(domain.CapRequestJoin) {
		if actor.ID == trip.CreatorID {
			return domain.Membership{}, fmt.Errorf("service.MembershipService.RequestJoin: %w: the creator cannot request to join their own trip", domain.ErrForbidden)
		}
		return domain.Membership{}, fmt.Errorf("service.MembershipService.RequestJoin: %w: trip is %s", domain.ErrForbidden, trip.Status)
	}

	created, err := s.memberships.Create(ctx, domain.Membership{
		TripID:    tripID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Message:   message,
	})
	if err != nil {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.RequestJoin: %w", err)
	}
	return created, nil
}

// Respond applies the creator's decision to a pending join request.
//
// Only the trip creator may respond. Responding to a membership that is no
// longer REQUESTED surfaces ErrConflict ("someone already handled it");
// approving with no free slot surfaces ErrCapacityExceeded. Both leave the
// membership untouched.
func (s *MembershipService) Respond(ctx context.Context, actor domain.Actor, tripID, membershipID uuid.UUID, decision domain.Decision) (domain.Membership, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.Respond: %w", err)
	}
	if caps := domain.Capabilities(actor, trip, nil); !caps.Has(domain.CapRespond) {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.Respond: %w: only the creator may respond to join requests", domain.ErrForbidden)
	}

	membership, err := s.memberships.GetByID(ctx, tripID, membershipID)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.Respond: %w", err)
	}
	if err := domain.CanRespond(membership, decision); err != nil {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.Respond: %w", err)
	}

	// The repo re-checks the precondition (and capacity, for approvals)
	// atomically; the check above only short-circuits the common stale case.
	switch decision {
	case domain.DecisionApprove:
		membership, err = s.memberships.Approve(ctx, tripID, membershipID)
	case domain.DecisionDecline:
		membership, err = s.memberships.Decline(ctx, tripID, membershipID)
	}
	if err != nil {
		return domain.Membership{}, fmt.Errorf("service.MembershipService.Respond: %w", err)
	}
	return membership, nil
}
