package routehandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/datastore"
	"github.com/coreybb/ikizamini/delivery"
	"github.com/coreybb/ikizamini/models"
	"github.com/coreybb/ikizamini/render"
)

// Flash notices shown by the signup/login/verification flow.
const (
	noticeDuplicateEmail = "Imeri isanzwe ibaho!"
	noticeCheckEmail     = "Reba email yawe kugira ngo wemeze konti."
	noticeBadCredentials = "Imeri cyangwa ijambo ry'ibanga ntabwo ari byo!"
	noticeVerifyFirst    = "Banza wemeze konti yawe ukoresheje kode yo kuri email."
	noticeNothingPending = "Nta konti iri kwemezwa!"
	noticeVerified       = "Konti yawe yemejwe! Injira."
	noticeWrongCode      = "Kode ntabwo ari yo!"
	noticeMissingFields  = "Nyamuneka wuzuze imyanya yose."
	noticeLoggedOut      = "Wasohotse neza!"
)

// AuthHandler owns the signup, login, OTP verification, and logout routes.
type AuthHandler struct {
	Store    datastore.Store
	Sessions *auth.SessionManager
	Mailer   delivery.Mailer
	Renderer *render.Renderer
}

func NewAuthHandler(store datastore.Store, sessions *auth.SessionManager, mailer delivery.Mailer, renderer *render.Renderer) *AuthHandler {
	return &AuthHandler{Store: store, Sessions: sessions, Mailer: mailer, Renderer: renderer}
}

// HandleAuthPage renders the combined login/signup form.
func (h *AuthHandler) HandleAuthPage(w http.ResponseWriter, r *http.Request) error {
	return h.Renderer.Page(w, r, "auth", render.PageData{})
}

// HandleAuth dispatches the posted form on form_type.
func (h *AuthHandler) HandleAuth(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		auth.SetFlash(w, auth.FlashError, noticeMissingFields)
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return nil
	}

	switch r.PostFormValue("form_type") {
	case "signup":
		return h.handleSignup(w, r)
	case "login":
		return h.handleLogin(w, r)
	default:
		auth.SetFlash(w, auth.FlashError, noticeMissingFields)
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return nil
	}
}

// handleSignup creates the account in a single atomic insert, relying on the
// storage-level uniqueness constraint for duplicate detection. OTP mail
// dispatch is best-effort: a mail outage must never block account creation.
func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) error {
	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := strings.TrimSpace(r.PostFormValue("password"))

	if name == "" || email == "" || password == "" {
		auth.SetFlash(w, auth.FlashError, noticeMissingFields)
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash signup password: %w", err)
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate signup otp: %w", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     false,
		OTPCode:      otp,
	}
	if err := h.Store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, datastore.ErrDuplicateEmail) {
			auth.SetFlash(w, auth.FlashError, noticeDuplicateEmail)
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return nil
		}
		return fmt.Errorf("failed to create user %s: %w", email, err)
	}

	if err := h.Mailer.SendOTP(r.Context(), email, otp); err != nil {
		slog.Error("OTP mail dispatch failed, continuing to verification", "email", email, "error", err)
	}

	if err := h.Sessions.IssuePending(w, email); err != nil {
		return fmt.Errorf("failed to issue pending session: %w", err)
	}
	auth.SetFlash(w, auth.FlashSuccess, noticeCheckEmail)
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
	return nil
}

// handleLogin grants a session only to verified accounts. Unknown email and
// wrong password produce the same notice so accounts cannot be enumerated.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) error {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := strings.TrimSpace(r.PostFormValue("password"))

	user, err := h.Store.FindUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			auth.SetFlash(w, auth.FlashError, noticeBadCredentials)
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return nil
		}
		return fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		auth.SetFlash(w, auth.FlashError, noticeBadCredentials)
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return nil
	}

	if !user.Verified {
		if err := h.Sessions.IssuePending(w, email); err != nil {
			return fmt.Errorf("failed to issue pending session: %w", err)
		}
		auth.SetFlash(w, auth.FlashWarning, noticeVerifyFirst)
		http.Redirect(w, r, "/verify", http.StatusSeeOther)
		return nil
	}

	if err := h.Sessions.Issue(w, user); err != nil {
		return fmt.Errorf("failed to issue session: %w", err)
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
	return nil
}

// HandleVerifyPage renders the OTP prompt.
func (h *AuthHandler) HandleVerifyPage(w http.ResponseWriter, r *http.Request) error {
	return h.Renderer.Page(w, r, "verify", render.PageData{})
}

// HandleVerify checks the submitted code against the stored one. An exact
// match verifies the account and clears the code; anything else re-shows the
// prompt with an error and changes nothing. There is no attempt limit.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		auth.SetFlash(w, auth.FlashError, noticeWrongCode)
		http.Redirect(w, r, "/verify", http.StatusSeeOther)
		return nil
	}
	otp := strings.TrimSpace(r.PostFormValue("otp"))

	sess := h.Sessions.FromRequest(r)
	if sess == nil || sess.PendingEmail == "" {
		auth.SetFlash(w, auth.FlashError, noticeNothingPending)
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return nil
	}

	user, err := h.Store.FindUserByEmail(r.Context(), sess.PendingEmail)
	if err != nil && !errors.Is(err, datastore.ErrNotFound) {
		return fmt.Errorf("failed to look up pending user: %w", err)
	}

	if user == nil || user.OTPCode == "" || user.OTPCode != otp {
		return h.Renderer.Page(w, r, "verify", render.PageData{
			Flash: &auth.Flash{Category: auth.FlashError, Message: noticeWrongCode},
		})
	}

	if err := h.Store.MarkVerified(r.Context(), sess.PendingEmail); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	h.Sessions.Clear(w)
	auth.SetFlash(w, auth.FlashSuccess, noticeVerified)
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
	return nil
}

// HandleLogout clears the session.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) error {
	h.Sessions.Clear(w)
	auth.SetFlash(w, auth.FlashSuccess, noticeLoggedOut)
	http.Redirect(w, r, "/publicpage", http.StatusSeeOther)
	return nil
}
