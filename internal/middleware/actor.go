// Package middleware provides HTTP middleware for the TripCrew API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

// actorKey is the context key for the authenticated actor.
// An unexported struct type guarantees no collisions with other packages.
type actorKey struct{}

// Header names populated by the upstream auth gateway. Authentication itself
// is an external collaborator; this service trusts the gateway and only
// consumes the identity it forwards.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
)

// NewActorExtractor returns a middleware that parses the actor identity
// headers into a domain.Actor on the request context. Requests without a
// valid actor ID pass through with no actor set; handlers that require an
// identity reject those with 401. Public endpoints (health, browse listing)
// stay reachable either way.
func NewActorExtractor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.Header.Get(HeaderActorID))
			if err == nil {
				actor := domain.Actor{ID: id, Name: r.Header.Get(HeaderActorName)}
				r = r.WithContext(WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor returns a context carrying the given actor. Exposed for handler
// tests, which have no middleware stack.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom extracts the authenticated actor from the context.
// ok is false when the request carried no valid identity.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
