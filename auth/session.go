package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/coreybb/ikizamini/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "ikizamini_session"

	authenticatedTTL = 24 * time.Hour
	pendingTTL       = 30 * time.Minute
)

// Session is the per-browser state carried in a signed cookie. It holds
// either an authenticated identity (Name + Email) or a PendingEmail marker
// for an account awaiting OTP verification, never both.
type Session struct {
	Name         string
	Email        string
	PendingEmail string
}

// Authenticated reports whether the session belongs to a verified, logged-in
// user. An unverified account can never produce an authenticated session.
func (s *Session) Authenticated() bool {
	return s != nil && s.Email != ""
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	PendingEmail string `json:"pending_email,omitempty"`
}

// SessionManager signs and verifies session cookies with an HS256 JWT. The
// application keeps no server-side session state.
type SessionManager struct {
	secret []byte
}

func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret)}
}

// Issue establishes an authenticated session for a verified user.
func (m *SessionManager) Issue(w http.ResponseWriter, user *models.User) error {
	return m.setCookie(w, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(authenticatedTTL)),
		},
		Name:  user.Name,
		Email: user.Email,
	}, authenticatedTTL)
}

// IssuePending marks the browser as mid-verification for the given email.
// It replaces any existing session.
func (m *SessionManager) IssuePending(w http.ResponseWriter, email string) error {
	return m.setCookie(w, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(pendingTTL)),
		},
		PendingEmail: email,
	}, pendingTTL)
}

func (m *SessionManager) setCookie(w http.ResponseWriter, claims sessionClaims, ttl time.Duration) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest reads the session cookie. A missing, expired, or tampered
// cookie yields nil, which callers treat as "no session".
func (m *SessionManager) FromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}

	return &Session{
		Name:         claims.Name,
		Email:        claims.Email,
		PendingEmail: claims.PendingEmail,
	}
}

type sessionContextKey struct{}

// WithSession stores the session in the request context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFrom returns the session stored in the context, or nil.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}
