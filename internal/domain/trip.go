// Package domain contains the core data types and pure rules for the TripCrew
// backend: the membership state machine and the capability guard live here.
// This package has zero knowledge of HTTP or SQL and is imported by every
// other internal package (repo, service, handler, sync).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a trip's member intake.
type TripStatus string

const (
	// TripOpen means the trip accepts new join requests.
	TripOpen TripStatus = "OPEN"
	// TripFull is set automatically when current_members reaches max_people.
	// It flips back to OPEN when capacity increases or a member leaves.
	TripFull TripStatus = "FULL"
	// TripClosed is a manual creator override that rejects new join requests
	// regardless of remaining capacity.
	TripClosed TripStatus = "CLOSED"
)

// Trip is a shareable travel plan wrapping an opaque itinerary.
// The creator owns the settings fields; CurrentMembers and Status are only
// ever mutated by the registry as part of a membership transition, never
// written directly by callers.
type Trip struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	MaxPeople      int        `json:"max_people"`
	CurrentMembers int        `json:"current_members"`
	Status         TripStatus `json:"status"`
	Itinerary      Itinerary  `json:"itinerary,omitempty"`
	MeetingPoint   string     `json:"meeting_point,omitempty"`
	CreatorID      uuid.UUID  `json:"creator_id"`
	CreatorName    string     `json:"creator_name"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TripPatch carries a partial settings update. Nil pointers mean "leave
// unchanged". Status may only be set to OPEN or CLOSED by the creator;
// FULL is always derived from the member count.
type TripPatch struct {
	Name         *string
	Description  *string
	MaxPeople    *int
	MeetingPoint *string
	Status       *TripStatus
}
