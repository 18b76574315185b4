package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

const chatColumns = `id, trip_id, sender_id, sender_name, body, sent_at`

// ChatRepo defines the persistence operations for a trip's chat log.
// The log is append-only: no update or delete exists. Message IDs come from
// a BIGSERIAL sequence, so insertion order is the total order of the log and
// a sender's own message is visible to its next read (read-your-writes).
type ChatRepo interface {
	// Append inserts a message and returns it with the server-assigned
	// id and sent_at populated.
	Append(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error)

	// ListByTrip returns the full ordered log for a trip, oldest first.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ChatMessage, error)

	// CountByTrip returns the number of messages in a trip's log.
	CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error)
}

// pgChatRepo is the Postgres implementation of ChatRepo.
type pgChatRepo struct {
	db db
}

// NewChatRepo constructs a ChatRepo backed by the provided db connection.
func NewChatRepo(db db) ChatRepo {
	return &pgChatRepo{db: db}
}

// Append inserts a chat message row.
func (r *pgChatRepo) Append(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	const q = `
		INSERT INTO chat_messages (trip_id, sender_id, sender_name, body)
		VALUES (@trip_id, @sender_id, @sender_name, @body)
		RETURNING ` + chatColumns

	args := pgx.NamedArgs{
		"trip_id":     msg.TripID,
		"sender_id":   msg.SenderID,
		"sender_name": msg.SenderName,
		"body":        msg.Body,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanChatMessage(row)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("repo.ChatRepo.Append: %w", err)
	}
	return result, nil
}

// ListByTrip returns the full log ordered by id ascending.
func (r *pgChatRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ChatMessage, error) {
	const q = `
		SELECT ` + chatColumns + `
		FROM chat_messages
		WHERE trip_id = @trip_id
		ORDER BY id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ChatRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ChatRepo.ListByTrip: scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ChatRepo.ListByTrip: rows: %w", err)
	}

	return messages, nil
}

// CountByTrip returns the log length for a trip.
func (r *pgChatRepo) CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM chat_messages WHERE trip_id = @trip_id`

	var count int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&count); err != nil {
		return 0, fmt.Errorf("repo.ChatRepo.CountByTrip: %w", err)
	}
	return count, nil
}

// scanChatMessage maps a single database row into a domain.ChatMessage.
func scanChatMessage(s scanner) (domain.ChatMessage, error) {
	var (
		m        domain.ChatMessage
		tripID   pgtype.UUID
		senderID pgtype.UUID
	)

	err := s.Scan(&m.ID, &tripID, &senderID, &m.SenderName, &m.Body, &m.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChatMessage{}, domain.ErrNotFound
		}
		return domain.ChatMessage{}, err
	}

	m.TripID = uuid.UUID(tripID.Bytes)
	m.SenderID = uuid.UUID(senderID.Bytes)

	return m, nil
}
