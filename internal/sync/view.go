package sync

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/handler"
)

// Snapshot is the last authoritative state a view fetched: the actor-scoped
// trip detail plus the chat log (when the actor may read it). Capabilities
// inside the detail are whatever the registry derived at fetch time — a view
// renders from these and only these.
type Snapshot struct {
	Detail    handler.TripDetailResponse
	Chat      []handler.ChatMessageResponse
	FetchedAt time.Time
}

// clone copies the snapshot deeply enough that optimistic patches on the
// copy never leak into the saved rollback state.
func (s Snapshot) clone() Snapshot {
	s.Detail.Memberships = slices.Clone(s.Detail.Memberships)
	s.Detail.Capabilities = slices.Clone(s.Detail.Capabilities)
	s.Chat = slices.Clone(s.Chat)
	return s
}

// hasCapability reports whether the fetched capability set names cap.
func (s Snapshot) hasCapability(cap string) bool {
	return slices.Contains(s.Detail.Capabilities, cap)
}

// View is one open panel pinned to a trip — a detail panel opened from the
// Browse listing, or the creator's Manage panel. Views are single-goroutine;
// two concurrently open views (even in the same process) coordinate only
// through the registry.
//
// The synchronization discipline: after any mutation this view initiated, the
// optimistic local patch is discarded and the authoritative snapshot
// re-fetched before further mutations on the same trip are allowed. A failed
// mutation rolls the displayed state back to the last authoritative fetch.
// Mutations by other actors are picked up lazily, on the next Refresh.
type View struct {
	client *Client
	tripID uuid.UUID

	snapshot Snapshot
	// stale is set when a mutation's outcome is unknown (transient failure,
	// timeout) or a post-mutation refetch failed. While set, further
	// mutations are refused; a successful Refresh clears it.
	stale bool
}

// NewView opens a view on a trip and performs the initial fetch.
func NewView(ctx context.Context, client *Client, tripID uuid.UUID) (*View, error) {
	v := &View{client: client, tripID: tripID}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// Snapshot returns the currently displayed state. After a failed mutation
// this is always the last authoritative fetch, never the optimistic patch.
func (v *View) Snapshot() Snapshot { return v.snapshot }

// Stale reports whether the view must Refresh before mutating again.
func (v *View) Stale() bool { return v.stale }

// Refresh re-fetches the authoritative snapshot from the registry and clears
// the stale flag on success. Chat is fetched only when the fresh capability
// set permits reading it.
func (v *View) Refresh(ctx context.Context) error {
	detail, err := v.client.GetTripDetail(ctx, v.tripID)
	if err != nil {
		return fmt.Errorf("sync.View.Refresh: %w", err)
	}

	next := Snapshot{Detail: detail, FetchedAt: time.Now()}
	if next.hasCapability("view") {
		chat, err := v.client.ListChat(ctx, v.tripID)
		if err != nil {
			return fmt.Errorf("sync.View.Refresh: %w", err)
		}
		next.Chat = chat.Data
	}

	v.snapshot = next
	v.stale = false
	return nil
}

// RequestJoin files a join request for the view's actor, optimistically
// showing the pending membership until the authoritative refetch lands.
func (v *View) RequestJoin(ctx context.Context, message string) error {
	actor := v.client.Actor()
	return v.mutate(ctx,
		func(s *Snapshot) {
			s.Detail.Memberships = append(s.Detail.Memberships, handler.MembershipResponse{
				TripID:      v.tripID,
				ActorID:     actor.ID,
				ActorName:   actor.Name,
				Message:     message,
				Status:      string(domain.MembershipRequested),
				RequestedAt: time.Now(),
			})
		},
		func(ctx context.Context) error {
			_, err := v.client.RequestJoin(ctx, v.tripID, message)
			return err
		})
}

// Respond approves or declines a pending request from the Manage panel,
// optimistically flipping the row's status.
func (v *View) Respond(ctx context.Context, membershipID uuid.UUID, decision domain.Decision) error {
	return v.mutate(ctx,
		func(s *Snapshot) {
			for i := range s.Detail.Memberships {
				if s.Detail.Memberships[i].ID == membershipID {
					s.Detail.Memberships[i].Status = string(decision.Target())
				}
			}
		},
		func(ctx context.Context) error {
			_, err := v.client.Respond(ctx, v.tripID, membershipID, decision)
			return err
		})
}

// SendChat appends a message, optimistically echoing it at the end of the
// local log. The authoritative refetch replaces the placeholder with the
// server-assigned id and ordering.
func (v *View) SendChat(ctx context.Context, body string) error {
	actor := v.client.Actor()
	return v.mutate(ctx,
		func(s *Snapshot) {
			var nextID int64 = 1
			if n := len(s.Chat); n > 0 {
				nextID = s.Chat[n-1].ID + 1
			}
			s.Chat = append(s.Chat, handler.ChatMessageResponse{
				ID:         nextID,
				TripID:     v.tripID,
				SenderID:   actor.ID,
				SenderName: actor.Name,
				Body:       body,
				SentAt:     time.Now(),
			})
		},
		func(ctx context.Context) error {
			_, err := v.client.SendChat(ctx, v.tripID, body)
			return err
		})
}

// UpdateSettings patches the trip's settings from the Manage panel.
func (v *View) UpdateSettings(ctx context.Context, req handler.UpdateTripRequest) error {
	return v.mutate(ctx,
		func(s *Snapshot) {
			if req.Name != nil {
				s.Detail.Trip.Name = *req.Name
			}
			if req.Description != nil {
				s.Detail.Trip.Description = *req.Description
			}
			if req.MaxPeople != nil {
				s.Detail.Trip.MaxPeople = *req.MaxPeople
			}
			if req.MeetingPoint != nil {
				s.Detail.Trip.MeetingPoint = *req.MeetingPoint
			}
			if req.Status != nil {
				s.Detail.Trip.Status = *req.Status
			}
		},
		func(ctx context.Context) error {
			_, err := v.client.UpdateSettings(ctx, v.tripID, req)
			return err
		})
}

// mutate runs one mutation under the synchronization discipline:
//
//  1. Refuse if a previous mutation is unresolved (stale view).
//  2. Apply the optimistic patch to the displayed snapshot.
//  3. Issue the call. On any failure — including transient/failed-unknown —
//     roll the snapshot back to the last authoritative fetch and surface the
//     error unchanged; never retry a mutation.
//  4. Either way, attempt a refetch so the view converges on authoritative
//     state. If the refetch itself fails, the view is marked stale and
//     refuses further mutations until a Refresh succeeds.
func (v *View) mutate(ctx context.Context, apply func(*Snapshot), call func(context.Context) error) error {
	if v.stale {
		return fmt.Errorf("sync.View: %w: previous mutation unresolved; refresh first", domain.ErrConflict)
	}

	saved := v.snapshot.clone()
	apply(&v.snapshot)

	callErr := call(ctx)
	if callErr != nil {
		// Full rollback: the displayed state must match the last
		// authoritative fetch, not the optimistic value.
		v.snapshot = saved
	}

	if refreshErr := v.Refresh(ctx); refreshErr != nil {
		v.snapshot = saved
		v.stale = true
		if callErr == nil {
			return refreshErr
		}
	}

	return callErr
}
