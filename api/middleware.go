package api

import (
	"net/http"

	"github.com/coreybb/ikizamini/auth"
)

const noticeLoginRequired = "Banza winjire mbere yo kubona iyi paji."

// LoadSession parses the session cookie once per request and stores the
// result in the request context for handlers and guards downstream.
func LoadSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithSession(r.Context(), sessions.FromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession guards protected routes: without an authenticated session
// the request short-circuits to the login page with a warning notice, before
// the handler ever runs.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.SessionFrom(r.Context()).Authenticated() {
			auth.SetFlash(w, auth.FlashWarning, noticeLoginRequired)
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
