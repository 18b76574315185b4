package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in a trip's append-only chat log.
// ID is a server-assigned sequence value, monotonically increasing within a
// trip; it defines the total order of the log. Messages are never edited or
// deleted once appended.
type ChatMessage struct {
	ID         int64
	TripID     uuid.UUID
	SenderID   uuid.UUID
	SenderName string
	Body       string
	SentAt     time.Time
}
