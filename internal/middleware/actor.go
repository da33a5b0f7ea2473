package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ActorHeader carries the identity of the operator using the console
const ActorHeader = "X-Actor-ID"

type actorKey struct{}

// Actor stores the operator identity from ActorHeader in the request
// context. Requests without the header pass through; operations that need
// an actor reject them.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor returns a context carrying actor
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the operator identity, or "" when unknown
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
