package routehandlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreybb/ikizamini/api"
	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/datastore"
	"github.com/coreybb/ikizamini/delivery"
	"github.com/coreybb/ikizamini/models"
	"github.com/coreybb/ikizamini/render"
	rh "github.com/coreybb/ikizamini/route-handlers"
)

// fakeStore is an in-memory datastore.Store for handler tests.
type fakeStore struct {
	users      map[string]*models.User // keyed by email
	marks      []models.Mark
	contacts   []models.ContactMessage
	contactErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*models.User)}
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, datastore.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) FindUserByName(_ context.Context, name string) (*models.User, error) {
	for _, user := range s.users {
		if user.Name == name {
			copied := *user
			return &copied, nil
		}
	}
	return nil, datastore.ErrNotFound
}

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	if _, exists := s.users[user.Email]; exists {
		return datastore.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	copied := *user
	s.users[user.Email] = &copied
	return nil
}

func (s *fakeStore) MarkVerified(_ context.Context, email string) error {
	if user, ok := s.users[email]; ok {
		user.Verified = true
		user.OTPCode = ""
	}
	return nil
}

func (s *fakeStore) CreateMark(_ context.Context, userID string, score, total int) (*models.Mark, error) {
	mark := models.Mark{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	s.marks = append(s.marks, mark)
	return &mark, nil
}

func (s *fakeStore) ListMarksByUser(_ context.Context, userID string) ([]models.Mark, error) {
	var marks []models.Mark
	for i := len(s.marks) - 1; i >= 0; i-- { // newest first
		if s.marks[i].UserID == userID {
			marks = append(marks, s.marks[i])
		}
	}
	return marks, nil
}

func (s *fakeStore) CreateContactMessage(_ context.Context, msg *models.ContactMessage) error {
	if s.contactErr != nil {
		return s.contactErr
	}
	s.contacts = append(s.contacts, *msg)
	return nil
}

func (s *fakeStore) Close(context.Context) error { return nil }

// mailerFunc adapts a function to delivery.Mailer.
type mailerFunc func(ctx context.Context, email, otp string) error

func (f mailerFunc) SendOTP(ctx context.Context, email, otp string) error {
	return f(ctx, email, otp)
}

type testApp struct {
	router   http.Handler
	store    *fakeStore
	sessions *auth.SessionManager
}

func newTestApp(t *testing.T, mailer delivery.Mailer) *testApp {
	t.Helper()

	if mailer == nil {
		mailer = delivery.LogMailer{}
	}
	store := newFakeStore()
	sessions := auth.NewSessionManager("test-secret")
	renderer, err := render.New()
	require.NoError(t, err)

	router := api.SetupRoutes(
		sessions,
		rh.NewPageHandler(sessions, renderer),
		rh.NewAuthHandler(store, sessions, mailer, renderer),
		rh.NewScoreHandler(store, renderer),
		rh.NewContactHandler(store),
		render.StaticFS(),
	)
	return &testApp{router: router, store: store, sessions: sessions}
}

func (a *testApp) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func signupForm(name, email, password string) url.Values {
	return url.Values{
		"form_type": {"signup"},
		"name":      {name},
		"email":     {email},
		"password":  {password},
	}
}

func loginForm(email, password string) url.Values {
	return url.Values{
		"form_type": {"login"},
		"email":     {email},
		"password":  {password},
	}
}

// seedUser registers a user directly in the fake store.
func seedUser(t *testing.T, store *fakeStore, email, password string, verified bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	otp := ""
	if !verified {
		otp = "123456"
	}
	user := &models.User{
		Name:         "Aline",
		Email:        email,
		PasswordHash: hash,
		Verified:     verified,
		OTPCode:      otp,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return store.users[email]
}

func sessionCookies(t *testing.T, app *testApp, user *models.User) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, app.sessions.Issue(rec, user))
	return rec.Result().Cookies()
}

func hasFlashCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ikizamini_flash" && c.Value != "" {
			return true
		}
	}
	return false
}

// --- Signup ---

func TestSignup_CreatesUnverifiedUserWithOTP(t *testing.T) {
	var sentOTP string
	app := newTestApp(t, mailerFunc(func(_ context.Context, _, otp string) error {
		sentOTP = otp
		return nil
	}))

	rec := app.do(formRequest("/auth", signupForm("Aline", "aline@example.com", "pass123")), nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/verify", rec.Result().Header.Get("Location"))

	user := app.store.users["aline@example.com"]
	require.NotNil(t, user)
	assert.False(t, user.Verified)
	assert.Len(t, user.OTPCode, 6)
	assert.Equal(t, user.OTPCode, sentOTP)
	assert.NotEqual(t, "pass123", user.PasswordHash)

	sess := app.sessions.FromRequest(requestWith(rec.Result().Cookies()))
	require.NotNil(t, sess)
	assert.Equal(t, "aline@example.com", sess.PendingEmail)
	assert.False(t, sess.Authenticated())
}

func TestSignup_MailFailureDoesNotBlock(t *testing.T) {
	app := newTestApp(t, mailerFunc(func(context.Context, string, string) error {
		return errors.New("smtp relay down")
	}))

	rec := app.do(formRequest("/auth", signupForm("Aline", "aline@example.com", "pass123")), nil)

	// The user record exists and the flow still reaches verification.
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/verify", rec.Result().Header.Get("Location"))
	assert.NotNil(t, app.store.users["aline@example.com"])
}

func TestSignup_DuplicateEmailRejected(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "original", true)

	rec := app.do(formRequest("/auth", signupForm("Intruder", "aline@example.com", "other")), nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Result().Header.Get("Location"))
	assert.True(t, hasFlashCookie(rec))
	assert.Len(t, app.store.users, 1)
	assert.Equal(t, "Aline", app.store.users["aline@example.com"].Name)
}

func TestSignup_MissingFieldsRejected(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(formRequest("/auth", signupForm("  ", "aline@example.com", "pass123")), nil)

	assert.Equal(t, "/auth", rec.Result().Header.Get("Location"))
	assert.Empty(t, app.store.users)
}

// --- Login ---

func TestLogin_UnverifiedNeverGetsSession(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "pass123", false)

	rec := app.do(formRequest("/auth", loginForm("aline@example.com", "pass123")), nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/verify", rec.Result().Header.Get("Location"))

	sess := app.sessions.FromRequest(requestWith(rec.Result().Cookies()))
	require.NotNil(t, sess)
	assert.False(t, sess.Authenticated(), "correct password on an unverified account must not authenticate")
	assert.Equal(t, "aline@example.com", sess.PendingEmail)
}

func TestLogin_VerifiedGetsSession(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "pass123", true)

	rec := app.do(formRequest("/auth", loginForm("aline@example.com", "pass123")), nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Result().Header.Get("Location"))

	sess := app.sessions.FromRequest(requestWith(rec.Result().Cookies()))
	require.NotNil(t, sess)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "Aline", sess.Name)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "pass123", true)

	wrongPassword := app.do(formRequest("/auth", loginForm("aline@example.com", "nope")), nil)
	unknownEmail := app.do(formRequest("/auth", loginForm("ghost@example.com", "nope")), nil)

	// Same redirect either way, no account enumeration.
	assert.Equal(t, "/auth", wrongPassword.Result().Header.Get("Location"))
	assert.Equal(t, "/auth", unknownEmail.Result().Header.Get("Location"))
}

// --- Verification ---

func pendingCookies(t *testing.T, app *testApp, email string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, app.sessions.IssuePending(rec, email))
	return rec.Result().Cookies()
}

func TestVerify_CorrectCode(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "pass123", false)

	form := url.Values{"otp": {"123456"}}
	rec := app.do(formRequest("/verify", form), pendingCookies(t, app, "aline@example.com"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Result().Header.Get("Location"))

	user := app.store.users["aline@example.com"]
	assert.True(t, user.Verified)
	assert.Empty(t, user.OTPCode)
}

func TestVerify_WrongCodeLeavesStateUnchanged(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "pass123", false)

	form := url.Values{"otp": {"654321"}}
	rec := app.do(formRequest("/verify", form), pendingCookies(t, app, "aline@example.com"))

	// Prompt re-rendered with an error, no redirect, no lockout.
	assert.Equal(t, http.StatusOK, rec.Code)
	user := app.store.users["aline@example.com"]
	assert.False(t, user.Verified)
	assert.Equal(t, "123456", user.OTPCode)
}

func TestVerify_EmptyCodeNeverMatchesClearedOTP(t *testing.T) {
	app := newTestApp(t, nil)
	seedUser(t, app.store, "aline@example.com", "pass123", true) // verified, OTP cleared

	form := url.Values{"otp": {""}}
	rec := app.do(formRequest("/verify", form), pendingCookies(t, app, "aline@example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerify_WithoutPendingMarker(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(formRequest("/verify", url.Values{"otp": {"123456"}}), nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Result().Header.Get("Location"))
}

// --- Access control ---

func requestWith(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestProtectedPage_RedirectsAnonymous(t *testing.T) {
	app := newTestApp(t, nil)

	for _, path := range []string{"/home", "/index", "/exam", "/ibibazo", "/ibyigwa", "/welcom2", "/amanota"} {
		rec := app.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/auth", rec.Result().Header.Get("Location"), path)
		assert.True(t, hasFlashCookie(rec), path)
	}
}

func TestPublicPages_NoSessionNeeded(t *testing.T) {
	app := newTestApp(t, nil)

	for _, path := range []string{"/publicpage", "/welcom", "/twandikire", "/terms", "/auth", "/verify"} {
		rec := app.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRootRedirect(t *testing.T) {
	app := newTestApp(t, nil)
	user := seedUser(t, app.store, "aline@example.com", "pass123", true)

	anonymous := app.do(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, "/publicpage", anonymous.Result().Header.Get("Location"))

	authed := app.do(httptest.NewRequest(http.MethodGet, "/", nil), sessionCookies(t, app, user))
	assert.Equal(t, "/home", authed.Result().Header.Get("Location"))
}

func TestLogout_ClearsSession(t *testing.T) {
	app := newTestApp(t, nil)
	user := seedUser(t, app.store, "aline@example.com", "pass123", true)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/logout", nil), sessionCookies(t, app, user))

	assert.Equal(t, "/publicpage", rec.Result().Header.Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ikizamini_session" {
			assert.Negative(t, c.MaxAge)
		}
	}
}

// --- Scores ---

func TestSaveScore_Success(t *testing.T) {
	app := newTestApp(t, nil)
	user := seedUser(t, app.store, "aline@example.com", "pass123", true)

	req := httptest.NewRequest(http.MethodPost, "/save_score", strings.NewReader(`{"score":5,"total":10}`))
	req.Header.Set("Content-Type", "application/json")
	rec := app.do(req, sessionCookies(t, app, user))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	require.Len(t, app.store.marks, 1)
	assert.Equal(t, 5, app.store.marks[0].Score)
	assert.Equal(t, 10, app.store.marks[0].Total)
	assert.Equal(t, user.ID, app.store.marks[0].UserID)
}

func TestSaveScore_MissingFieldIsBadRequest(t *testing.T) {
	app := newTestApp(t, nil)
	user := seedUser(t, app.store, "aline@example.com", "pass123", true)

	for _, body := range []string{`{"total":10}`, `{"score":5}`, `{}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/save_score", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := app.do(req, sessionCookies(t, app, user))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"status":"error","message":"Invalid data"}`, rec.Body.String(), body)
	}
	assert.Empty(t, app.store.marks)
}

func TestSaveScore_UnresolvableUserIsNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	ghost := &models.User{Name: "Ghost", Email: "ghost@example.com"}

	req := httptest.NewRequest(http.MethodPost, "/save_score", strings.NewReader(`{"score":5,"total":10}`))
	req.Header.Set("Content-Type", "application/json")
	rec := app.do(req, sessionCookies(t, app, ghost))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"User not found"}`, rec.Body.String())
}

func TestMarks_NewestFirstAndEmptyForUnresolvable(t *testing.T) {
	app := newTestApp(t, nil)
	user := seedUser(t, app.store, "aline@example.com", "pass123", true)

	for _, score := range []int{3, 7, 5} {
		_, err := app.store.CreateMark(context.Background(), user.ID, score, 10)
		require.NoError(t, err)
	}

	rec := app.do(httptest.NewRequest(http.MethodGet, "/amanota", nil), sessionCookies(t, app, user))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, ">5<"), strings.Index(body, ">7<"), "newest mark renders first")

	ghost := &models.User{Name: "Ghost", Email: "ghost@example.com"}
	empty := app.do(httptest.NewRequest(http.MethodGet, "/amanota", nil), sessionCookies(t, app, ghost))
	assert.Equal(t, http.StatusOK, empty.Code, "unresolvable user gets an empty history, not an error")
}

// --- Contact form ---

func contactForm(name, email, phone, message string) url.Values {
	return url.Values{
		"name":    {name},
		"email":   {email},
		"phone":   {phone},
		"message": {message},
	}
}

func TestContact_Success(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(formRequest("/contact", contactForm("Jean", "jean@example.com", "", "Mwiriwe")), nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/twandikire", rec.Result().Header.Get("Location"))
	require.Len(t, app.store.contacts, 1)
	assert.Equal(t, "Mwiriwe", app.store.contacts[0].Message)
}

func TestContact_EmptyMessageStoresNothing(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(formRequest("/contact", contactForm("Jean", "jean@example.com", "", "   ")), nil)

	assert.Equal(t, "/twandikire", rec.Result().Header.Get("Location"))
	assert.True(t, hasFlashCookie(rec))
	assert.Empty(t, app.store.contacts)
}

func TestContact_StorageFailureDegradesGracefully(t *testing.T) {
	app := newTestApp(t, nil)
	app.store.contactErr = errors.New("disk full")

	rec := app.do(formRequest("/contact", contactForm("Jean", "jean@example.com", "", "Mwiriwe")), nil)

	// Still a friendly redirect with a notice, never a raw failure.
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/twandikire", rec.Result().Header.Get("Location"))
	assert.True(t, hasFlashCookie(rec))
}
