package domain

import "github.com/google/uuid"

// Actor is the authenticated identity performing an operation. Identity is
// issued by the external auth collaborator; the core only consumes it, and
// always receives it explicitly — never from ambient state.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Capability is a single action an actor may be authorized to perform on a trip.
type Capability uint

const (
	// CapViewPublic grants access to the public listing fields of a trip
	// (name, description, summary stats). Everyone holds it.
	CapViewPublic Capability = 1 << iota
	// CapRequestJoin allows filing a join request.
	CapRequestJoin
	// CapView grants access to trip internals: itinerary, meeting point,
	// the full chat log, and the actor's own membership.
	CapView
	// CapSendChat allows appending to the trip's chat channel.
	CapSendChat
	// CapRespond allows approving or declining pending join requests.
	CapRespond
	// CapManageSettings allows editing the trip's settings fields.
	CapManageSettings
	// CapViewAllMemberships exposes every membership row, not just the
	// actor's own.
	CapViewAllMemberships
)

// CapabilitySet is a bitmask of capabilities.
type CapabilitySet uint

// Has reports whether every capability in c is present.
func (s CapabilitySet) Has(c Capability) bool {
	return s&CapabilitySet(c) == CapabilitySet(c)
}

// Capabilities derives the permitted action set for an actor on a trip from
// the latest fetched snapshot. membership is the actor's own row, or nil when
// none exists (the creator never has one).
//
// Callers must re-evaluate this on every fresh snapshot; capability flags are
// never cached across a state-changing action, so a stale "approved" flag can
// never grant chat access after a revocation.
func Capabilities(actor Actor, trip Trip, membership *Membership) CapabilitySet {
	if actor.ID == trip.CreatorID {
		return CapabilitySet(CapViewPublic | CapView | CapSendChat |
			CapRespond | CapManageSettings | CapViewAllMemberships)
	}

	if membership != nil && membership.TripID == trip.ID && membership.ActorID == actor.ID {
		switch membership.Status {
		case MembershipAccepted:
			return CapabilitySet(CapViewPublic | CapView | CapSendChat)
		case MembershipRequested:
			// Pending requesters see the trip read-only, chat included.
			// Visibility while a request is outstanding is deliberate;
			// the channel is presented as "pending, read-only" rather
			// than hidden.
			return CapabilitySet(CapViewPublic | CapView)
		case MembershipDeclined:
			return CapabilitySet(CapViewPublic)
		}
	}

	if trip.Status == TripOpen {
		return CapabilitySet(CapViewPublic | CapRequestJoin)
	}
	return CapabilitySet(CapViewPublic)
}
