package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/handler"
)

// ChatPoller re-fetches a trip's chat log on a fixed interval while a chat
// panel is open. The registry pushes nothing, so polling is the only
// delivery mechanism; the poller's lifetime is tied to the panel's via
// the context passed to Run.
type ChatPoller struct {
	client   *Client
	tripID   uuid.UUID
	interval time.Duration

	updates chan []handler.ChatMessageResponse
	lastID  int64
}

// NewChatPoller builds a poller for one trip's chat log.
// interval <= 0 falls back to 5s.
func NewChatPoller(client *Client, tripID uuid.UUID, interval time.Duration) *ChatPoller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ChatPoller{
		client:   client,
		tripID:   tripID,
		interval: interval,
		updates:  make(chan []handler.ChatMessageResponse, 1),
	}
}

// Updates delivers the full ordered log each time new messages appear.
// The channel is closed when Run returns.
func (p *ChatPoller) Updates() <-chan []handler.ChatMessageResponse {
	return p.updates
}

// Run polls until ctx is cancelled, which is the normal way to close a chat
// panel; cancellation returns nil. Transient failures skip the tick — the
// next poll re-fetches the whole log, so nothing is ever missed. A Forbidden
// response stops the poller: the actor lost view capability and the panel
// must re-evaluate from a fresh trip detail.
func (p *ChatPoller) Run(ctx context.Context) error {
	defer close(p.updates)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Prime immediately so an opening panel doesn't wait a full interval.
	if err := p.poll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				return err
			}
		}
	}
}

// poll fetches the log and publishes it when it grew. Errors other than
// transient ones terminate the poller.
func (p *ChatPoller) poll(ctx context.Context) error {
	resp, err := p.client.ListChat(ctx, p.tripID)
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return nil // retry on the next tick
		}
		if ctx.Err() != nil {
			return nil // panel closed mid-poll
		}
		return err
	}

	if n := len(resp.Data); n > 0 && resp.Data[n-1].ID > p.lastID {
		p.lastID = resp.Data[n-1].ID
		select {
		case p.updates <- resp.Data:
		default:
			// Consumer hasn't drained the previous update; the next tick
			// delivers a superset anyway.
		}
	}

	return nil
}
