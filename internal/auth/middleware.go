package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"spendlog/internal/session"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "session"

type contextKey string

// SessionKey is the context key under which the resolved session is stored.
const SessionKey = contextKey("session")

// CurrentSession retrieves the session placed in the request context by
// RequireSession. The second return is false on requests that never passed
// through the middleware.
func CurrentSession(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(session.Session)
	return sess, ok
}

// RequireSession creates a middleware that resolves the session cookie and
// rejects the request with 401 when it is missing, forged, or expired. The
// response carries no detail about which of those it was.
func RequireSession(manager session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := manager.Resolve(r.Context(), cookie.Value)
			if err != nil {
				log.Debug().Err(err).Msg("Rejected session token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
