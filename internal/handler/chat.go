package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

// SendChatRequest is the body of POST /trips/{tripID}/chat.
type SendChatRequest struct {
	Body string `json:"body" validate:"required"`
}

// ChatMessageResponse is the wire representation of one chat log entry.
type ChatMessageResponse struct {
	ID         int64     `json:"id"`
	TripID     uuid.UUID `json:"trip_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}

// ChatListResponse is the body of GET /trips/{tripID}/chat: the full log in
// id order.
type ChatListResponse struct {
	Data []ChatMessageResponse `json:"data"`
}

// ListChat handles GET /trips/{tripID}/chat.
func (s *Server) ListChat(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tripID, err := tripIDParam(r)
	if err != nil {
		requestError(w, "invalid trip id")
		return
	}

	messages, err := s.chat.List(r.Context(), actor, tripID)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]ChatMessageResponse, len(messages))
	for i, m := range messages {
		data[i] = chatMessageToResponse(m)
	}
	writeJSON(w, http.StatusOK, ChatListResponse{Data: data})
}

// SendChat handles POST /trips/{tripID}/chat.
func (s *Server) SendChat(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tripID, err := tripIDParam(r)
	if err != nil {
		requestError(w, "invalid trip id")
		return
	}

	var req SendChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	msg, err := s.chat.Send(r.Context(), actor, tripID, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, chatMessageToResponse(msg))
}

func chatMessageToResponse(m domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:         m.ID,
		TripID:     m.TripID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Body,
		SentAt:     m.SentAt,
	}
}
