package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/repo"
)

// maxChatBodyLen bounds a single chat message.
const maxChatBodyLen = 4000

// ChatService implements the capability-gated chat channel for a trip.
type ChatService struct {
	trips       repo.TripRepo
	memberships repo.MembershipRepo
	chat        repo.ChatRepo
}

// NewChatService constructs a ChatService backed by the provided repos.
func NewChatService(trips repo.TripRepo, memberships repo.MembershipRepo, chat repo.ChatRepo) *ChatService {
	return &ChatService{trips: trips, memberships: memberships, chat: chat}
}

// Send appends a message to a trip's chat log.
// Fails with ErrForbidden unless the actor's capability set — derived from a
// fresh trip+membership read at the time of sending — includes send-chat.
func (s *ChatService) Send(ctx context.Context, actor domain.Actor, tripID uuid.UUID, body string) (domain.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: body is required", domain.ErrValidation)
	}
	if len(body) > maxChatBodyLen {
		return domain.ChatMessage{}, fmt.Errorf("%w: body exceeds %d characters", domain.ErrValidation, maxChatBodyLen)
	}

	_, membership, caps, err := snapshot(ctx, s.trips, s.memberships, actor, tripID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("service.ChatService.Send: %w", err)
	}
	if !caps.Has(domain.CapSendChat) {
		return domain.ChatMessage{}, fmt.Errorf("service.ChatService.Send: %w: %s", domain.ErrForbidden, sendDeniedReason(membership))
	}

	msg, err := s.chat.Append(ctx, domain.ChatMessage{
		TripID:     tripID,
		SenderID:   actor.ID,
		SenderName: actor.Name,
		Body:       body,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("service.ChatService.Send: %w", err)
	}
	return msg, nil
}

// sendDeniedReason states, per membership state, why sending was refused and
// what would change it. Outsiders and declined actors cannot read the log
// either, so their message matches the one List gives them.
func sendDeniedReason(m *domain.Membership) string {
	if m != nil && m.Status == domain.MembershipRequested {
		return "chat is read-only until the join request is accepted"
	}
	return "no access to this trip's chat"
}

// List returns a trip's full ordered chat log.
// Fails with ErrForbidden unless the actor's capability set includes view —
// pending requesters may read while waiting on a decision, declined actors
// and outsiders may not. Always returns a non-nil slice on success.
func (s *ChatService) List(ctx context.Context, actor domain.Actor, tripID uuid.UUID) ([]domain.ChatMessage, error) {
	_, _, caps, err := snapshot(ctx, s.trips, s.memberships, actor, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ChatService.List: %w", err)
	}
	if !caps.Has(domain.CapView) {
		return nil, fmt.Errorf("service.ChatService.List: %w: no access to this trip's chat", domain.ErrForbidden)
	}

	messages, err := s.chat.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ChatService.List: %w", err)
	}
	if messages == nil {
		return []domain.ChatMessage{}, nil
	}
	return messages, nil
}
