package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/cashdrawer/drawer"
)

// Actor headers. Set by the front end or a gateway; not authenticated.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

type actorKey struct{}

// ActorMiddleware reads the actor headers into the request context. A missing
// or unknown role is treated as operator.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := drawer.Actor{
			ID:   drawer.OwnerID(strings.TrimSpace(r.Header.Get(HeaderActorID))),
			Name: strings.TrimSpace(r.Header.Get(HeaderActorName)),
			Role: drawer.RoleOperator,
		}
		if strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderActorRole)), string(drawer.RoleSupervisor)) {
			actor.Role = drawer.RoleSupervisor
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// RequireSupervisor rejects callers whose actor role is not supervisor.
func RequireSupervisor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r.Context()).IsSupervisor() {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: drawer.ErrForbidden.Error(), Code: "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actorFrom(ctx context.Context) drawer.Actor {
	if a, ok := ctx.Value(actorKey{}).(drawer.Actor); ok {
		return a
	}
	return drawer.Actor{Role: drawer.RoleOperator}
}
