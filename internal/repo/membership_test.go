package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/repo"
)

// newTrip inserts a trip with the given capacity and returns it.
func newTrip(t *testing.T, tx pgx.Tx, maxPeople int) domain.Trip {
	t.Helper()
	f := tripFixture()
	f.MaxPeople = maxPeople
	trip, err := repo.NewTripRepo(tx).Create(context.Background(), f)
	require.NoError(t, err)
	return trip
}

func TestMembershipRepo_Create(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	actorID := uuid.New()
	got, err := r.Create(ctx, domain.Membership{
		TripID:    trip.ID,
		ActorID:   actorID,
		ActorName: "Sam",
		Message:   "count me in",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, actorID, got.ActorID)
	assert.Equal(t, domain.MembershipRequested, got.Status, "new memberships start REQUESTED")
	assert.Equal(t, "count me in", got.Message)
	assert.False(t, got.RequestedAt.IsZero())
	assert.Nil(t, got.RespondedAt)
}

// TestMembershipRepo_Create_DuplicateLiveRow exercises the partial unique
// index: a second row for the same actor is rejected while the first is
// REQUESTED or ACCEPTED, but allowed again once it is DECLINED.
func TestMembershipRepo_Create_DuplicateLiveRow(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	actorID := uuid.New()
	first, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: actorID})
	require.NoError(t, err)

	_, err = r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: actorID})
	assert.ErrorIs(t, err, domain.ErrConflict, "REQUESTED row blocks a duplicate")

	_, err = r.Approve(ctx, trip.ID, first.ID)
	require.NoError(t, err)

	_, err = r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: actorID})
	assert.ErrorIs(t, err, domain.ErrConflict, "ACCEPTED row blocks a duplicate")
}

func TestMembershipRepo_Create_AfterDecline(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	actorID := uuid.New()
	first, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: actorID})
	require.NoError(t, err)
	_, err = r.Decline(ctx, trip.ID, first.ID)
	require.NoError(t, err)

	// The declined row stays as history; a fresh request gets its own row.
	second, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: actorID})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	current, err := r.GetByTripAndActor(ctx, trip.ID, actorID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID, "the live row wins over declined history")
	assert.Equal(t, domain.MembershipRequested, current.Status)
}

func TestMembershipRepo_GetByID(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	created, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	got, err := r.GetByID(ctx, trip.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// Scoped to the trip: the same id under another trip is not found.
	other := newTrip(t, tx, 4)
	_, err = r.GetByID(ctx, other.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMembershipRepo_GetByTripAndActor_NotFound(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)

	_, err := r.GetByTripAndActor(context.Background(), trip.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMembershipRepo_ListByTrip(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
		require.NoError(t, err)
	}

	got, err := r.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMembershipRepo_Approve(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	m, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	got, err := r.Approve(ctx, trip.ID, m.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.MembershipAccepted, got.Status)
	require.NotNil(t, got.RespondedAt)

	// The member count moves in the same transaction as the status flip.
	updated, err := repo.NewTripRepo(tx).GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentMembers)
	assert.Equal(t, domain.TripOpen, updated.Status, "slots remain, trip stays OPEN")
}

// TestMembershipRepo_Approve_LastSlotRace approves two requests against a
// single free slot. Exactly one wins; the loser gets the capacity error and
// the trip ends FULL with a consistent count.
func TestMembershipRepo_Approve_LastSlotRace(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 1)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	first, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)
	second, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	_, err = r.Approve(ctx, trip.ID, first.ID)
	require.NoError(t, err)

	_, err = r.Approve(ctx, trip.ID, second.ID)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	updated, err := repo.NewTripRepo(tx).GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentMembers, "failed approval must not move the count")
	assert.Equal(t, domain.TripFull, updated.Status)

	// The losing membership is untouched and can still be declined.
	loser, err := r.GetByID(ctx, trip.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipRequested, loser.Status)
}

// TestMembershipRepo_Approve_AfterDecline covers responding twice: the second
// transition hits the terminal-state check and reports what it found.
func TestMembershipRepo_Approve_AfterDecline(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	m, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)
	_, err = r.Decline(ctx, trip.ID, m.ID)
	require.NoError(t, err)

	_, err = r.Approve(ctx, trip.ID, m.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := r.GetByID(ctx, trip.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipDeclined, got.Status, "the first decision stands")

	updated, err := repo.NewTripRepo(tx).GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentMembers)
}

func TestMembershipRepo_Approve_NotFound(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)

	_, err := r.Approve(context.Background(), trip.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMembershipRepo_Decline(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	m, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	got, err := r.Decline(ctx, trip.ID, m.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.MembershipDeclined, got.Status)
	require.NotNil(t, got.RespondedAt)

	// Declines never held a slot, so the count stays put.
	updated, err := repo.NewTripRepo(tx).GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentMembers)
}

func TestMembershipRepo_Decline_AlreadyAccepted(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)
	ctx := context.Background()

	m, err := r.Create(ctx, domain.Membership{TripID: trip.ID, ActorID: uuid.New()})
	require.NoError(t, err)
	_, err = r.Approve(ctx, trip.ID, m.ID)
	require.NoError(t, err)

	_, err = r.Decline(ctx, trip.ID, m.ID)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMembershipRepo_Decline_NotFound(t *testing.T) {
	tx := testTx(t)
	trip := newTrip(t, tx, 4)
	r := repo.NewMembershipRepo(tx)

	_, err := r.Decline(context.Background(), trip.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
