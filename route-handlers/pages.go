package routehandlers

import (
	"net/http"

	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/render"
	"github.com/coreybb/ikizamini/webutil"
)

// PageHandler serves the static pages and the root redirect.
type PageHandler struct {
	Sessions *auth.SessionManager
	Renderer *render.Renderer
}

func NewPageHandler(sessions *auth.SessionManager, renderer *render.Renderer) *PageHandler {
	return &PageHandler{Sessions: sessions, Renderer: renderer}
}

// HandleRoot sends authenticated browsers to /home and everyone else to the
// public landing page.
func (h *PageHandler) HandleRoot(w http.ResponseWriter, r *http.Request) error {
	if h.Sessions.FromRequest(r).Authenticated() {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/publicpage", http.StatusSeeOther)
	}
	return nil
}

// Page returns a handler that renders the named static page.
func (h *PageHandler) Page(name string) webutil.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		return h.Renderer.Page(w, r, name, render.PageData{})
	}
}
