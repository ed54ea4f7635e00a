package middleware

import (
	"context"
	"net/http"
	"strings"

	"loyalty-wallet/internal/model"
	"loyalty-wallet/pkg/apierror"

	"github.com/gorilla/websocket"
)

// IdentityKey is the key for storing the caller's identity in request context.
const IdentityKey contextKey = "identity"

// IdentityResolver maps a session token to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (model.Identity, error)
}

// NewSessionMiddleware attaches the identity of a valid session token to the
// request context. Requests without a token pass through unauthenticated; the
// wallet works offline and only sync needs an identity. A token that does not
// resolve is rejected.
func NewSessionMiddleware(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" || resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired session"))
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that carry no identity.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).Authenticated() {
			writeError(w, apierror.Unauthorized("Sign in first to sync."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest reads a session token from X-Token, a Bearer header or,
// for websocket upgrades that cannot set headers, the token query parameter.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("X-Token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// IdentityFromContext retrieves the caller's identity from request context.
// The zero Identity is returned for anonymous requests.
func IdentityFromContext(ctx context.Context) model.Identity {
	if identity, ok := ctx.Value(IdentityKey).(model.Identity); ok {
		return identity
	}
	return model.Identity{}
}
