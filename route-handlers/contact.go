package routehandlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/datastore"
	"github.com/coreybb/ikizamini/models"
)

const (
	noticeContactMissing = "Nyamuneka wuzuze izina, email, n'ubutumwa."
	noticeContactSent    = "Ubutumwa bwawe bwoherejwe neza!"
	noticeContactFailed  = "Habaye ikibazo mu kohereza ubutumwa!"
)

// ContactHandler owns the public contact form submission.
type ContactHandler struct {
	Store datastore.Store
}

func NewContactHandler(store datastore.Store) *ContactHandler {
	return &ContactHandler{Store: store}
}

// HandleContact archives the message. A storage failure is logged and shown
// as a generic apology; the visitor is never handed a raw error. Every path
// redirects back to the contact page.
func (h *ContactHandler) HandleContact(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		auth.SetFlash(w, auth.FlashError, noticeContactMissing)
		http.Redirect(w, r, "/twandikire", http.StatusSeeOther)
		return nil
	}

	msg := models.ContactMessage{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Phone:   strings.TrimSpace(r.PostFormValue("phone")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}

	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		auth.SetFlash(w, auth.FlashError, noticeContactMissing)
		http.Redirect(w, r, "/twandikire", http.StatusSeeOther)
		return nil
	}

	if err := h.Store.CreateContactMessage(r.Context(), &msg); err != nil {
		slog.Error("Contact message save failed", "error", err)
		auth.SetFlash(w, auth.FlashError, noticeContactFailed)
	} else {
		auth.SetFlash(w, auth.FlashSuccess, noticeContactSent)
	}

	http.Redirect(w, r, "/twandikire", http.StatusSeeOther)
	return nil
}
