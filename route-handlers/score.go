package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/datastore"
	"github.com/coreybb/ikizamini/models"
	"github.com/coreybb/ikizamini/render"
	"github.com/coreybb/ikizamini/webutil"
)

// ScoreHandler owns the quiz score submission and history routes. Both
// require an authenticated session (enforced by middleware).
type ScoreHandler struct {
	Store    datastore.Store
	Renderer *render.Renderer
}

func NewScoreHandler(store datastore.Store, renderer *render.Renderer) *ScoreHandler {
	return &ScoreHandler{Store: store, Renderer: renderer}
}

// HandleSaveScore records one quiz attempt. The only JSON endpoint in the
// application; everything else speaks form encoding.
func (h *ScoreHandler) HandleSaveScore(w http.ResponseWriter, r *http.Request) error {
	var requestData struct {
		Score *int `json:"score"`
		Total *int `json:"total"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid data")
	}
	defer r.Body.Close()

	if requestData.Score == nil || requestData.Total == nil {
		return webutil.ErrBadRequest("Invalid data")
	}

	user, err := h.resolveUser(r)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to resolve session user: %w", err)
	}

	if _, err := h.Store.CreateMark(r.Context(), user.ID, *requestData.Score, *requestData.Total); err != nil {
		return fmt.Errorf("failed to record mark: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
	return nil
}

// HandleMarks renders the score history, newest first. A session that no
// longer resolves to a stored user gets an empty history, not an error.
func (h *ScoreHandler) HandleMarks(w http.ResponseWriter, r *http.Request) error {
	user, err := h.resolveUser(r)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return h.Renderer.Page(w, r, "amanota", render.PageData{})
		}
		return fmt.Errorf("failed to resolve session user: %w", err)
	}

	marks, err := h.Store.ListMarksByUser(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to list marks: %w", err)
	}

	return h.Renderer.Page(w, r, "amanota", render.PageData{Marks: marks})
}

// resolveUser maps the session identity back to a stored user. The email
// claim is authoritative; the display name is a fallback for tokens minted
// before the email claim existed.
func (h *ScoreHandler) resolveUser(r *http.Request) (*models.User, error) {
	sess := auth.SessionFrom(r.Context())
	if !sess.Authenticated() {
		return nil, datastore.ErrNotFound
	}
	if sess.Email != "" {
		return h.Store.FindUserByEmail(r.Context(), sess.Email)
	}
	return h.Store.FindUserByName(r.Context(), sess.Name)
}
