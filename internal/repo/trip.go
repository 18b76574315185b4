// Package repo contains all database access logic for the TripCrew registry.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping. The one exception
// is the approve transition, whose capacity recheck must be atomic with the
// status flip and therefore lives in the membership transaction.
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

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txdb adds transaction support to db. *pgxpool.Pool begins a real
// transaction; pgx.Tx begins a savepoint, so repo tests keep their
// rollback isolation even through transactional methods.
type txdb interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

const tripColumns = `id, name, description, max_people, current_members, status,
		       itinerary, meeting_point, creator_id, creator_name, created_at, updated_at`

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated). New trips
	// start OPEN with zero members.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListOpen returns trips whose status is OPEN, newest first, plus the
	// total count of open trips for pagination.
	ListOpen(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// UpdateSettings overwrites the creator-owned settings fields of a trip
	// and returns the updated record. Status is recomputed from the member
	// count unless the new status is the manual CLOSED override.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	UpdateSettings(ctx context.Context, trip domain.Trip) (domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (name, description, max_people, itinerary, meeting_point, creator_id, creator_name)
		VALUES (@name, @description, @max_people, @itinerary, @meeting_point, @creator_id, @creator_name)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"name":          trip.Name,
		"description":   trip.Description,
		"max_people":    trip.MaxPeople,
		"itinerary":     rawOrNil(trip.Itinerary),
		"meeting_point": trip.MeetingPoint,
		"creator_id":    trip.CreatorID,
		"creator_name":  trip.CreatorName,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListOpen returns open trips, newest first, with the total open-trip count.
func (r *pgTripRepo) ListOpen(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const q = `
		SELECT ` + tripColumns + `, count(*) OVER () AS total
		FROM trips
		WHERE status = 'OPEN'
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListOpen: %w", err)
	}
	defer rows.Close()

	var (
		trips []domain.Trip
		total int64
	)
	for rows.Next() {
		t, err := scanTripWithTotal(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListOpen: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListOpen: rows: %w", err)
	}

	return trips, total, nil
}

// UpdateSettings overwrites the settings fields and recomputes status.
// FULL is derived: a capacity increase on a full trip reopens it, and a
// capacity decrease down to the member count closes intake.
func (r *pgTripRepo) UpdateSettings(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET name          = @name,
		    description   = @description,
		    max_people    = @max_people,
		    meeting_point = @meeting_point,
		    status        = CASE
		                      WHEN @status::text = 'CLOSED' THEN 'CLOSED'
		                      WHEN current_members >= @max_people THEN 'FULL'
		                      ELSE 'OPEN'
		                    END,
		    updated_at    = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":            trip.ID,
		"name":          trip.Name,
		"description":   trip.Description,
		"max_people":    trip.MaxPeople,
		"meeting_point": trip.MeetingPoint,
		"status":        string(trip.Status),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateSettings: %w", err)
	}
	return result, nil
}

// rawOrNil converts an itinerary to a jsonb parameter, mapping the zero value
// to NULL.
func rawOrNil(i domain.Itinerary) any {
	if i.IsZero() {
		return nil
	}
	return []byte(i.Raw())
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var total int64
	return scanTripInto(s, &total, false)
}

// scanTripWithTotal maps a row carrying a trailing count(*) OVER () column.
func scanTripWithTotal(s scanner, total *int64) (domain.Trip, error) {
	return scanTripInto(s, total, true)
}

func scanTripInto(s scanner, total *int64, withTotal bool) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		creatorID pgtype.UUID
		itinerary []byte
		status    string
	)

	dest := []any{
		&id, &t.Name, &t.Description, &t.MaxPeople, &t.CurrentMembers, &status,
		&itinerary, &t.MeetingPoint, &creatorID, &t.CreatorName, &t.CreatedAt, &t.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, total)
	}

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.CreatorID = uuid.UUID(creatorID.Bytes)
	t.Status = domain.TripStatus(status)
	t.Itinerary = domain.NewItinerary(itinerary)

	return t, nil
}
