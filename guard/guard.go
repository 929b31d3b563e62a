// Package guard wraps protected HTTP routes behind the session controller.
// The decision is made fresh on every request from the controller's current
// snapshot, so a logout observed from another process takes effect on the
// very next request without any restart.
package guard

import (
	"context"
	"net/http"

	"github.com/lotusshop/go-storefront-session/sessions"
	"github.com/lotusshop/go-storefront-session/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores the decoded token claims
	ContextKeyClaims ContextKey = "claims"
)

const loadingPlaceholder = `<!doctype html><html><body><p>Loading session…</p></body></html>`

// SessionState is the slice of the session controller the guard reads.
type SessionState interface {
	Snapshot() sessions.Snapshot
}

// Protect gates next behind an authenticated session.
//
//   - While the session is still resolving, a placeholder page is served with
//     Retry-After so well-behaved clients try again rather than caching a
//     redirect.
//   - Anonymous viewers are redirected to loginPath; not a byte of the
//     protected response is written first.
//   - Authenticated viewers get next, with the decoded claims (which may be
//     absent even when authenticated) placed in the request context.
func Protect(state SessionState, loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := state.Snapshot()

		if snapshot.Loading {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(loadingPlaceholder))
			return
		}

		if !snapshot.Authenticated {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}

		if snapshot.User != nil {
			ctx := r.Context()
			ctx = contextWithClaims(ctx, snapshot.User)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func contextWithClaims(ctx context.Context, claims *token.Claims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, claims.ID)
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// ClaimsFromContext returns the claims Protect placed in the context, or nil
// when the token payload was undecodable.
func ClaimsFromContext(r *http.Request) *token.Claims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*token.Claims)
	return claims
}
