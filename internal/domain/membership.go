package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MembershipStatus is the state of one actor's join request on one trip.
//
// The state machine is REQUESTED → {ACCEPTED, DECLINED}; both outcomes are
// terminal. There is no path back to REQUESTED — a fresh request after a
// decline is a new Membership row, gated by the registry's rejoin policy.
type MembershipStatus string

const (
	MembershipRequested MembershipStatus = "REQUESTED"
	MembershipAccepted  MembershipStatus = "ACCEPTED"
	MembershipDeclined  MembershipStatus = "DECLINED"
)

// Membership is the relationship record between one non-creator actor and one
// trip. The trip creator never holds a Membership row; their authority is
// derived from trip ownership.
type Membership struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	ActorID     uuid.UUID
	ActorName   string
	Message     string // optional free text supplied at request time
	Status      MembershipStatus
	RequestedAt time.Time
	RespondedAt *time.Time // nil until the creator responds
}

// Terminal reports whether the membership has reached a final state.
func (m Membership) Terminal() bool {
	return m.Status == MembershipAccepted || m.Status == MembershipDeclined
}

// Live reports whether the membership blocks the actor from filing another
// join request on the same trip.
func (m Membership) Live() bool {
	return m.Status == MembershipRequested || m.Status == MembershipAccepted
}

// Decision is a creator's response to a pending join request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
)

// ParseDecision validates a wire-level decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove, DecisionDecline:
		return Decision(s), nil
	}
	return "", fmt.Errorf("%w: decision must be %q or %q", ErrValidation, DecisionApprove, DecisionDecline)
}

// Target returns the membership status the decision transitions to.
func (d Decision) Target() MembershipStatus {
	if d == DecisionApprove {
		return MembershipAccepted
	}
	return MembershipDeclined
}

// CanRespond checks the state-machine precondition for responding to a
// membership. Responding to a terminal membership is rejected with
// ErrConflict, not silently ignored: the caller's snapshot is stale and the
// correct recovery is a re-fetch.
//
// The capacity check for approvals is deliberately not here — capacity is
// re-checked at the instant of the authoritative write, because multiple
// requests may be pending concurrently against a shrinking capacity.
func CanRespond(m Membership, d Decision) error {
	if _, err := ParseDecision(string(d)); err != nil {
		return err
	}
	if m.Status != MembershipRequested {
		return fmt.Errorf("%w: membership is already %s", ErrConflict, m.Status)
	}
	return nil
}
