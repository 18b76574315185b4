package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (trip_id, actor_id) for non-DECLINED rows. Two concurrent join
// requests from the same actor resolve to exactly one winner at the database.
const uniqueViolation = "23505"

const membershipColumns = `id, trip_id, actor_id, actor_name, message, status, requested_at, responded_at`

// MembershipRepo defines the persistence operations for Memberships,
// including the two terminal transitions of the state machine. Approve and
// Decline are the registry's single point of serialization: each call is
// atomic, and a race between two approvals for the last capacity slot yields
// exactly one success and one domain.ErrCapacityExceeded.
type MembershipRepo interface {
	// Create inserts a membership in REQUESTED state.
	// Returns domain.ErrConflict if the actor already holds a live
	// (REQUESTED or ACCEPTED) membership on the trip.
	Create(ctx context.Context, m domain.Membership) (domain.Membership, error)

	// GetByID retrieves a membership scoped to a trip.
	// Returns domain.ErrNotFound if no such membership exists under that trip.
	GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error)

	// GetByTripAndActor returns the actor's relevant membership on a trip:
	// the live row if one exists, otherwise the most recent declined row.
	// Returns domain.ErrNotFound when the actor has no history on the trip.
	GetByTripAndActor(ctx context.Context, tripID, actorID uuid.UUID) (domain.Membership, error)

	// ListByTrip returns all memberships for a trip, oldest request first.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error)

	// Approve transitions a REQUESTED membership to ACCEPTED and increments
	// the trip's member count in one transaction. The capacity check happens
	// at the instant of this write, not at request time.
	// Returns domain.ErrNotFound if the membership does not exist under the
	// trip, domain.ErrConflict if it is no longer REQUESTED, and
	// domain.ErrCapacityExceeded if the trip has no free slot.
	Approve(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error)

	// Decline transitions a REQUESTED membership to DECLINED.
	// Returns domain.ErrNotFound or domain.ErrConflict as Approve does.
	Decline(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error)
}

// pgMembershipRepo is the Postgres implementation of MembershipRepo.
type pgMembershipRepo struct {
	db txdb
}

// NewMembershipRepo constructs a MembershipRepo backed by the provided
// connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx —
// Approve and Decline then run inside savepoints, preserving rollback isolation.
func NewMembershipRepo(db txdb) MembershipRepo {
	return &pgMembershipRepo{db: db}
}

// Create inserts a REQUESTED membership row.
func (r *pgMembershipRepo) Create(ctx context.Context, m domain.Membership) (domain.Membership, error) {
	const q = `
		INSERT INTO memberships (trip_id, actor_id, actor_name, message)
		VALUES (@trip_id, @actor_id, @actor_name, @message)
		RETURNING ` + membershipColumns

	args := pgx.NamedArgs{
		"trip_id":    m.TripID,
		"actor_id":   m.ActorID,
		"actor_name": m.ActorName,
		"message":    m.Message,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanMembership(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Create: %w: a live membership already exists", domain.ErrConflict)
		}
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a membership by primary key, scoped to the given trip.
func (r *pgMembershipRepo) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error) {
	const q = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE id = @id AND trip_id = @trip_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID})
	result, err := scanMembership(row)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetByTripAndActor returns the actor's live membership, falling back to the
// most recent declined one. Live rows sort first so a rejoin after decline
// always reports the current request.
func (r *pgMembershipRepo) GetByTripAndActor(ctx context.Context, tripID, actorID uuid.UUID) (domain.Membership, error) {
	const q = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE trip_id = @trip_id AND actor_id = @actor_id
		ORDER BY (status <> 'DECLINED') DESC, requested_at DESC
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "actor_id": actorID})
	result, err := scanMembership(row)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.GetByTripAndActor: %w", err)
	}
	return result, nil
}

// ListByTrip returns every membership on the trip, oldest request first.
func (r *pgMembershipRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	const q = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE trip_id = @trip_id
		ORDER BY requested_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.MembershipRepo.ListByTrip: scan: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.ListByTrip: rows: %w", err)
	}

	return memberships, nil
}

// Approve flips a REQUESTED membership to ACCEPTED and increments the trip's
// member count in a single transaction, so there is no window where the
// membership is ACCEPTED but the count is stale.
func (r *pgMembershipRepo) Approve(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Approve: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Lock the membership row and verify the state-machine precondition.
	if err := lockRequested(ctx, tx, tripID, id); err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Approve: %w", err)
	}

	// Conditional increment: zero rows affected means another approval
	// already took the last slot. The CASE keeps current_members <= max_people
	// and flips status to FULL exactly when the last slot is taken.
	const qTrip = `
		UPDATE trips
		SET current_members = current_members + 1,
		    status          = CASE
		                        WHEN current_members + 1 >= max_people THEN 'FULL'
		                        ELSE status
		                      END,
		    updated_at      = now()
		WHERE id = @trip_id AND current_members < max_people`

	tag, err := tx.Exec(ctx, qTrip, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Approve: increment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Approve: %w", domain.ErrCapacityExceeded)
	}

	const qMembership = `
		UPDATE memberships
		SET status = 'ACCEPTED', responded_at = now()
		WHERE id = @id
		RETURNING ` + membershipColumns

	result, err := scanMembership(tx.QueryRow(ctx, qMembership, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Approve: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Approve: commit: %w", err)
	}
	return result, nil
}

// Decline flips a REQUESTED membership to DECLINED. The trip's member count
// is untouched — declined requests never held a slot.
func (r *pgMembershipRepo) Decline(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error) {
	const q = `
		UPDATE memberships
		SET status = 'DECLINED', responded_at = now()
		WHERE id = @id AND trip_id = @trip_id AND status = 'REQUESTED'
		RETURNING ` + membershipColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID})
	result, err := scanMembership(row)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Decline: %w", err)
	}

	// Zero rows updated: distinguish a missing membership from one that has
	// already reached a terminal state.
	current, getErr := r.GetByID(ctx, tripID, id)
	if getErr != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Decline: %w", domain.ErrNotFound)
	}
	return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Decline: %w: membership is already %s", domain.ErrConflict, current.Status)
}

// lockRequested locks the membership row for the duration of the transaction
// and rejects the transition unless the row exists and is still REQUESTED.
func lockRequested(ctx context.Context, tx pgx.Tx, tripID, id uuid.UUID) error {
	const q = `
		SELECT status FROM memberships
		WHERE id = @id AND trip_id = @trip_id
		FOR UPDATE`

	var status string
	err := tx.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "trip_id": tripID}).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if status != string(domain.MembershipRequested) {
		return fmt.Errorf("%w: membership is already %s", domain.ErrConflict, status)
	}
	return nil
}

// scanMembership maps a single database row into a domain.Membership.
func scanMembership(s scanner) (domain.Membership, error) {
	var (
		m           domain.Membership
		id          pgtype.UUID
		tripID      pgtype.UUID
		actorID     pgtype.UUID
		status      string
		respondedAt pgtype.Timestamptz
	)

	err := s.Scan(&id, &tripID, &actorID, &m.ActorName, &m.Message, &status, &m.RequestedAt, &respondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, domain.ErrNotFound
		}
		return domain.Membership{}, err
	}

	m.ID = uuid.UUID(id.Bytes)
	m.TripID = uuid.UUID(tripID.Bytes)
	m.ActorID = uuid.UUID(actorID.Bytes)
	m.Status = domain.MembershipStatus(status)
	if respondedAt.Valid {
		t := respondedAt.Time
		m.RespondedAt = &t
	}

	return m, nil
}
