package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreybb/ikizamini/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionManager_IssueAndRead(t *testing.T) {
	t.Parallel()

	m := NewSessionManager("test-secret")
	rec := httptest.NewRecorder()
	err := m.Issue(rec, &models.User{Name: "Aline", Email: "aline@example.com"})
	require.NoError(t, err)

	sess := m.FromRequest(requestWithCookies(t, rec))
	require.NotNil(t, sess)
	assert.Equal(t, "Aline", sess.Name)
	assert.Equal(t, "aline@example.com", sess.Email)
	assert.Empty(t, sess.PendingEmail)
	assert.True(t, sess.Authenticated())
}

func TestSessionManager_IssuePending(t *testing.T) {
	t.Parallel()

	m := NewSessionManager("test-secret")
	rec := httptest.NewRecorder()
	require.NoError(t, m.IssuePending(rec, "aline@example.com"))

	sess := m.FromRequest(requestWithCookies(t, rec))
	require.NotNil(t, sess)
	assert.Equal(t, "aline@example.com", sess.PendingEmail)
	assert.False(t, sess.Authenticated(), "a pending session must never count as authenticated")
}

func TestSessionManager_WrongSecretRejected(t *testing.T) {
	t.Parallel()

	issuer := NewSessionManager("right-secret")
	rec := httptest.NewRecorder()
	require.NoError(t, issuer.Issue(rec, &models.User{Name: "Aline", Email: "aline@example.com"}))

	verifier := NewSessionManager("wrong-secret")
	assert.Nil(t, verifier.FromRequest(requestWithCookies(t, rec)))
}

func TestSessionManager_NoCookie(t *testing.T) {
	t.Parallel()

	m := NewSessionManager("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, m.FromRequest(req))

	var none *Session
	assert.False(t, none.Authenticated())
}

func TestSessionManager_ClearExpiresCookie(t *testing.T) {
	t.Parallel()

	m := NewSessionManager("test-secret")
	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
