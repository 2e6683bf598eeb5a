package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coreybb/ikizamini/auth"
	rh "github.com/coreybb/ikizamini/route-handlers"
	"github.com/coreybb/ikizamini/webutil"
)

// Protected pages require an authenticated session; public pages do not.
var (
	protectedPages = []string{"home", "index", "exam", "ibibazo", "ibyigwa", "welcom2"}
	publicPages    = []string{"publicpage", "welcom", "twandikire", "terms"}
)

func SetupRoutes(
	sessions *auth.SessionManager,
	pageHandler *rh.PageHandler,
	authHandler *rh.AuthHandler,
	scoreHandler *rh.ScoreHandler,
	contactHandler *rh.ContactHandler,
	static http.FileSystem,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log every request
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set a timeout context for requests
	r.Use(LoadSession(sessions))

	r.Get("/", webutil.MakeHandler(pageHandler.HandleRoot))

	// Signup, login, and verification flow
	r.Get("/auth", webutil.MakeHandler(authHandler.HandleAuthPage))
	r.Post("/auth", webutil.MakeHandler(authHandler.HandleAuth))
	r.Get("/verify", webutil.MakeHandler(authHandler.HandleVerifyPage))
	r.Post("/verify", webutil.MakeHandler(authHandler.HandleVerify))
	r.Get("/logout", webutil.MakeHandler(authHandler.HandleLogout))

	// Public pages and the contact form
	for _, page := range publicPages {
		r.Get("/"+page, webutil.MakeHandler(pageHandler.Page(page)))
	}
	r.Post("/contact", webutil.MakeHandler(contactHandler.HandleContact))

	// Protected pages and score routes behind the session guard
	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		for _, page := range protectedPages {
			r.Get("/"+page, webutil.MakeHandler(pageHandler.Page(page)))
		}
		r.Post("/save_score", webutil.MakeHandler(scoreHandler.HandleSaveScore))
		r.Get("/amanota", webutil.MakeHandler(scoreHandler.HandleMarks))
	})

	r.Handle("/static/*", http.FileServer(static))

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
