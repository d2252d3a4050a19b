package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
	"github.com/utafrali/shopmesh/pkg/httputil"
)

// UserIDHeader carries the authenticated subject from the gateway to backends.
const UserIDHeader = "X-User-Id"

// Principal is the caller identity established at the gateway. It is built
// once per request and never modified afterwards.
type Principal struct {
	ID              string
	IsAuthenticated bool
}

// Anonymous is the principal of a request without a verified subject.
var Anonymous = Principal{}

// NewPrincipal returns an authenticated principal for id. An empty id yields
// Anonymous.
func NewPrincipal(id string) Principal {
	id = strings.TrimSpace(id)
	if id == "" {
		return Anonymous
	}
	return Principal{ID: id, IsAuthenticated: true}
}

type principalKey struct{}

// WithPrincipal stores p in ctx and tags the active span with it.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	tagPrincipal(ctx, p)
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, or Anonymous.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}

// UserIDFromContext returns the authenticated subject, or "".
func UserIDFromContext(ctx context.Context) string {
	return PrincipalFromContext(ctx).ID
}

// Identity builds the request principal from the X-User-Id header set by the
// gateway. Backends trust the header; they must only be reachable through the
// gateway.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := NewPrincipal(r.Header.Get(UserIDHeader))
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireUser rejects requests without an authenticated principal with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).IsAuthenticated {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication credentials were not provided"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
