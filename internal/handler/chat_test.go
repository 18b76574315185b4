package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/handler"
)

// mockChatServicer is a test double for handler.ChatServicer.
type mockChatServicer struct {
	send func(ctx context.Context, actor domain.Actor, tripID uuid.UUID, body string) (domain.ChatMessage, error)
	list func(ctx context.Context, actor domain.Actor, tripID uuid.UUID) ([]domain.ChatMessage, error)
}

func (m *mockChatServicer) Send(ctx context.Context, actor domain.Actor, tripID uuid.UUID, body string) (domain.ChatMessage, error) {
	return m.send(ctx, actor, tripID, body)
}
func (m *mockChatServicer) List(ctx context.Context, actor domain.Actor, tripID uuid.UUID) ([]domain.ChatMessage, error) {
	return m.list(ctx, actor, tripID)
}

// compile-time check: mockChatServicer must satisfy handler.ChatServicer.
var _ handler.ChatServicer = (*mockChatServicer)(nil)

// ---- GET /trips/{tripID}/chat ----------------------------------------------

func TestListChat_200(t *testing.T) {
	tripID := uuid.New()
	log := []domain.ChatMessage{
		{ID: 1, TripID: tripID, SenderName: "Dana", Body: "first", SentAt: time.Now().UTC()},
		{ID: 2, TripID: tripID, SenderName: "Sam", Body: "second", SentAt: time.Now().UTC()},
	}
	h := newHTTPHandler(nil, nil, &mockChatServicer{
		list: func(_ context.Context, _ domain.Actor, _ uuid.UUID) ([]domain.ChatMessage, error) {
			return log, nil
		},
	})

	rec := doRequest(h, http.MethodGet, "/trips/"+tripID.String()+"/chat", domain.Actor{ID: uuid.New()}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handler.ChatListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(1), resp.Data[0].ID)
	assert.Equal(t, "second", resp.Data[1].Body)
}

func TestListChat_200_EmptyLog(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockChatServicer{
		list: func(_ context.Context, _ domain.Actor, _ uuid.UUID) ([]domain.ChatMessage, error) {
			return []domain.ChatMessage{}, nil
		},
	})

	rec := doRequest(h, http.MethodGet, "/trips/"+uuid.NewString()+"/chat", domain.Actor{ID: uuid.New()}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String(), "empty log encodes as [], not null")
}

func TestListChat_403_Outsider(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockChatServicer{
		list: func(_ context.Context, _ domain.Actor, _ uuid.UUID) ([]domain.ChatMessage, error) {
			return nil, fmt.Errorf("service.ChatService.List: %w: no access to this trip's chat", domain.ErrForbidden)
		},
	})

	rec := doRequest(h, http.MethodGet, "/trips/"+uuid.NewString()+"/chat", domain.Actor{ID: uuid.New()}, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ---- POST /trips/{tripID}/chat ---------------------------------------------

func TestSendChat_201(t *testing.T) {
	tripID := uuid.New()
	actor := domain.Actor{ID: uuid.New(), Name: "Sam"}
	h := newHTTPHandler(nil, nil, &mockChatServicer{
		send: func(_ context.Context, a domain.Actor, _ uuid.UUID, body string) (domain.ChatMessage, error) {
			return domain.ChatMessage{ID: 3, TripID: tripID, SenderID: a.ID, SenderName: a.Name, Body: body, SentAt: time.Now().UTC()}, nil
		},
	})

	body := jsonBody(t, map[string]any{"body": "on my way"})
	rec := doRequest(h, http.MethodPost, "/trips/"+tripID.String()+"/chat", actor, body)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp handler.ChatMessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.ID)
	assert.Equal(t, actor.ID, resp.SenderID)
	assert.Equal(t, "on my way", resp.Body)
}

func TestSendChat_403_PendingRequester(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockChatServicer{
		send: func(_ context.Context, _ domain.Actor, _ uuid.UUID, _ string) (domain.ChatMessage, error) {
			return domain.ChatMessage{}, fmt.Errorf("service.ChatService.Send: %w: chat is read-only until the join request is accepted", domain.ErrForbidden)
		},
	})

	body := jsonBody(t, map[string]any{"body": "hello?"})
	rec := doRequest(h, http.MethodPost, "/trips/"+uuid.NewString()+"/chat", domain.Actor{ID: uuid.New()}, body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "forbidden", resp.Error.Code)
	assert.Equal(t, "forbidden: chat is read-only until the join request is accepted", resp.Error.Message)
}

func TestSendChat_422_EmptyBody(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockChatServicer{})

	body := jsonBody(t, map[string]any{"body": ""})
	rec := doRequest(h, http.MethodPost, "/trips/"+uuid.NewString()+"/chat", domain.Actor{ID: uuid.New()}, body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSendChat_401_NoActor(t *testing.T) {
	h := newHTTPHandler(nil, nil, &mockChatServicer{})

	body := jsonBody(t, map[string]any{"body": "hi"})
	rec := doRequest(h, http.MethodPost, "/trips/"+uuid.NewString()+"/chat", domain.Actor{}, body)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
