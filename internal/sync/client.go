// Package sync implements the client side of the registry: a typed HTTP
// client and the view-synchronization policy that keeps concurrently open
// panels (a Browse listing, a Manage panel) consistent after mutations.
//
// The registry is the single source of truth; views never trust an optimistic
// patch past the round-trip that carried it. Everything here is
// single-goroutine by design — concurrent views coordinate only through the
// registry, never through shared client state.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/handler"
	"github.com/psoldner/tripcrew/backend/internal/middleware"
)

// defaultTimeout bounds each round-trip. A call still pending past this is
// failed-unknown: the caller must re-fetch authoritative state rather than
// assume the mutation did or did not apply.
const defaultTimeout = 10 * time.Second

// Client is a typed HTTP client for the registry API, bound to one actor.
type Client struct {
	base  *url.URL
	httpc *http.Client
	actor domain.Actor
}

// NewClient builds a Client for the registry at baseURL, acting as actor.
// timeout <= 0 falls back to a 10s default.
func NewClient(baseURL string, actor domain.Actor, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("sync.NewClient: parse base url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:  base,
		httpc: &http.Client{Timeout: timeout},
		actor: actor,
	}, nil
}

// Actor returns the identity this client acts as.
func (c *Client) Actor() domain.Actor { return c.actor }

// ListOpenTrips fetches one page of the public browse listing.
func (c *Client) ListOpenTrips(ctx context.Context, page, limit int) (handler.TripListResponse, error) {
	var out handler.TripListResponse
	path := "/trips?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
	err := c.getWithRetry(ctx, path, &out)
	return out, err
}

// GetTripDetail fetches the actor-scoped snapshot of a trip.
func (c *Client) GetTripDetail(ctx context.Context, tripID uuid.UUID) (handler.TripDetailResponse, error) {
	var out handler.TripDetailResponse
	err := c.getWithRetry(ctx, "/trips/"+tripID.String(), &out)
	return out, err
}

// ListChat fetches the full ordered chat log of a trip.
func (c *Client) ListChat(ctx context.Context, tripID uuid.UUID) (handler.ChatListResponse, error) {
	var out handler.ChatListResponse
	err := c.getWithRetry(ctx, "/trips/"+tripID.String()+"/chat", &out)
	return out, err
}

// CreateTrip creates a new trip owned by the client's actor.
func (c *Client) CreateTrip(ctx context.Context, req handler.CreateTripRequest) (handler.TripResponse, error) {
	var out handler.TripResponse
	err := c.do(ctx, http.MethodPost, "/trips", req, &out)
	return out, err
}

// RequestJoin files a join request on a trip.
func (c *Client) RequestJoin(ctx context.Context, tripID uuid.UUID, message string) (handler.MembershipResponse, error) {
	var out handler.MembershipResponse
	err := c.do(ctx, http.MethodPost, "/trips/"+tripID.String()+"/memberships",
		handler.RequestJoinRequest{Message: message}, &out)
	return out, err
}

// Respond approves or declines a pending join request.
func (c *Client) Respond(ctx context.Context, tripID, membershipID uuid.UUID, decision domain.Decision) (handler.MembershipResponse, error) {
	var out handler.MembershipResponse
	err := c.do(ctx, http.MethodPost,
		"/trips/"+tripID.String()+"/memberships/"+membershipID.String()+"/response",
		handler.RespondRequest{Decision: string(decision)}, &out)
	return out, err
}

// SendChat appends a message to a trip's chat log.
func (c *Client) SendChat(ctx context.Context, tripID uuid.UUID, body string) (handler.ChatMessageResponse, error) {
	var out handler.ChatMessageResponse
	err := c.do(ctx, http.MethodPost, "/trips/"+tripID.String()+"/chat",
		handler.SendChatRequest{Body: body}, &out)
	return out, err
}

// UpdateSettings applies a partial settings patch to a trip.
func (c *Client) UpdateSettings(ctx context.Context, tripID uuid.UUID, req handler.UpdateTripRequest) (handler.TripResponse, error) {
	var out handler.TripResponse
	err := c.do(ctx, http.MethodPatch, "/trips/"+tripID.String(), req, &out)
	return out, err
}

// getWithRetry performs a GET with bounded fibonacci backoff on transient
// failures. Only reads retry — a mutation whose outcome is unknown must never
// be resent, so mutating calls go through do directly.
func (c *Client) getWithRetry(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if errors.Is(err, domain.ErrTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// do performs one round-trip and maps the response back onto the domain
// error taxonomy. Network-level failures and timeouts become ErrTransient.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u, err := c.base.Parse(path)
	if err != nil {
		return fmt.Errorf("sync.Client: parse path %q: %w", path, err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sync.Client: encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("sync.Client: build request: %w", err)
	}
	req.Header.Set(middleware.HeaderActorID, c.actor.ID.String())
	req.Header.Set(middleware.HeaderActorName, c.actor.Name)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("sync.Client: %s %s: %w: %v", method, path, domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sync.Client: decode response: %w: %v", domain.ErrTransient, err)
		}
		return nil
	}

	return decodeError(resp)
}

// decodeError converts a non-2xx response into the matching sentinel error,
// preserving the server's reason so views can surface the specific failure.
func decodeError(resp *http.Response) error {
	var envelope handler.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("sync.Client: http %d: %w", resp.StatusCode, domain.ErrTransient)
	}

	detail := envelope.Error
	switch detail.Code {
	case "validation_error":
		return fmt.Errorf("%w: %s", domain.ErrValidation, detail.Message)
	case "not_found":
		return fmt.Errorf("%w: %s", domain.ErrNotFound, detail.Message)
	case "forbidden", "unauthorized":
		return fmt.Errorf("%w: %s", domain.ErrForbidden, detail.Message)
	case "conflict":
		return fmt.Errorf("%w: %s", domain.ErrConflict, detail.Message)
	case "capacity_exceeded":
		return fmt.Errorf("%w: %s", domain.ErrCapacityExceeded, detail.Message)
	default:
		return fmt.Errorf("sync.Client: http %d (%s): %s", resp.StatusCode, detail.Code, detail.Message)
	}
}
