package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontext "github.com/dtroode/shopkeeper-auth/internal/api/context"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/cookie"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/middleware"
	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/guard"
	"github.com/dtroode/shopkeeper-auth/internal/metrics"
	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/repository/redis"
	"github.com/dtroode/shopkeeper-auth/internal/security"
	"github.com/dtroode/shopkeeper-auth/internal/service"
	"github.com/dtroode/shopkeeper-auth/internal/testutil"
	"github.com/dtroode/shopkeeper-auth/internal/token"
)

// memUsers is an in-memory model.UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]model.User)}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, user model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return model.User{}, model.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) update(id uuid.UUID, fn func(*model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return m.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (m *memUsers) MarkEmailVerified(ctx context.Context, email string) error {
	u, err := m.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return m.update(u.ID, func(u *model.User) { u.EmailVerified = true })
}

func (m *memUsers) UpdateProfileImage(_ context.Context, id uuid.UUID, url string) error {
	return m.update(id, func(u *model.User) { u.ProfileImage = url })
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

// outbox records sent mail.
type outbox struct {
	mu   sync.Mutex
	sent []model.Mail
}

func (o *outbox) Send(_ context.Context, mail model.Mail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, mail)
	return nil
}

func (o *outbox) last() model.Mail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[len(o.sent)-1]
}

type app struct {
	handler http.Handler
	users   *memUsers
	mail    *outbox
	redis   *miniredis.Miniredis
}

func newApp(t *testing.T) *app {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	conn := redis.NewConnectionFromClient(client)

	users := newMemUsers()
	mail := &outbox{}
	hasher := security.NewArgon2(security.SessionParams)
	issuer := token.NewIssuer(config.Token{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
		ResetSecret:   "reset-secret",
		ResetTTL:      30 * time.Minute,
	})

	sessions := service.NewSessions(redis.NewSessionRepository(conn), hasher, 24*time.Hour, time.Second, lg)
	codes := service.NewVerificationCodes(redis.NewCodeRepository(conn), mail, service.DefaultCodeTTL, time.Second, lg)
	auth := service.NewAuth(users, issuer, sessions, codes, mail, hasher, service.AuthConfig{
		PasswordResetURL: "https://shop.example.com/reset-password",
		CallTimeout:      time.Second,
	}, lg)
	g := guard.New(issuer, sessions, auth, lg)
	cm := apicontext.NewManager()
	collector := metrics.NewCollector(prometheus.NewRegistry())

	h := New(Deps{
		Auth:           auth,
		Users:          auth,
		Guard:          g,
		Local:          middleware.NewLocalStrategy(service.NewCredentialVerifier(users, hasher, time.Second, lg)),
		Refresh:        middleware.NewRefreshStrategy(g),
		ContextManager: cm,
		Observer:       collector,
		RateLimiter:    middleware.NewRateLimiter(1000, 1000),
		Metrics:        collector,
		MetricsHandler: metrics.Handler(prometheus.NewRegistry()),
		Health:         map[string]model.Pinger{"redis": conn},
		Logger:         lg,
	})

	return &app{handler: h, users: users, mail: mail, redis: mr}
}

func (a *app) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	r.RemoteAddr = "192.0.2.10:4000"
	for _, c := range cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, r)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

const signupBody = `{"username":"ann","email":"Ann@Example.com","password":"Secret123!"}`

func TestRouter_SignupSignInRefreshSignOut(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/auth/signup", signupBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"email":"ann@example.com"`)

	rec = a.do(t, http.MethodPost, "/auth/signup", signupBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/signin", `{"email":"ann@example.com","password":"wrong-pass1!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/signin", `{"email":"ann@example.com","password":"Secret123!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := responseCookie(rec, cookie.Access)
	refresh := responseCookie(rec, cookie.Refresh)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, 86400, refresh.MaxAge)
	assert.True(t, access.HttpOnly)

	rec = a.do(t, http.MethodGet, "/auth", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ann"`)

	rec = a.do(t, http.MethodGet, "/auth", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/auth/token/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	renewed := responseCookie(rec, cookie.Access)
	require.NotNil(t, renewed)
	assert.NotEqual(t, access.Value, renewed.Value)
	assert.Nil(t, responseCookie(rec, cookie.Refresh))

	rec = a.do(t, http.MethodGet, "/auth/token/refresh", "", access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "access token is not a refresh token")

	rec = a.do(t, http.MethodPost, "/auth/signout", "", renewed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, responseCookie(rec, cookie.Access).Value)
	assert.Empty(t, responseCookie(rec, cookie.Refresh).Value)

	rec = a.do(t, http.MethodGet, "/auth/token/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "session was revoked")
}

func TestRouter_SecondSignInReplacesSession(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/auth/signup", signupBody).Code)

	creds := `{"email":"ann@example.com","password":"Secret123!"}`
	first := responseCookie(a.do(t, http.MethodPost, "/auth/signin", creds), cookie.Refresh)
	second := responseCookie(a.do(t, http.MethodPost, "/auth/signin", creds), cookie.Refresh)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/auth/token/refresh", "", first).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/auth/token/refresh", "", second).Code)
}

func TestRouter_EmailVerification(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/auth/signup", signupBody).Code)

	rec := a.do(t, http.MethodPost, "/auth/send-email-verification", `{"email":"ann@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	code := regexp.MustCompile(`\d{6}`).FindString(a.mail.last().Body)
	require.NotEmpty(t, code)

	body := `{"email":"ann@example.com","code":"` + code + `"}`
	rec = a.do(t, http.MethodPost, "/auth/verify-email", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := a.users.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	rec = a.do(t, http.MethodPost, "/auth/verify-email", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"statusCode":400,"message":"wrong code provided"}`, rec.Body.String())
}

func TestRouter_PasswordReset(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/auth/signup", signupBody).Code)

	rec := a.do(t, http.MethodPost, "/auth/forgot-password", `{"email":"ann@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tok := regexp.MustCompile(`token=(\S+)`).FindStringSubmatch(a.mail.last().Body)
	require.Len(t, tok, 2)

	rec = a.do(t, http.MethodPost, "/auth/reset-password", `{"token":"`+tok[1]+`","password":"NewSecret1#"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/auth/signin", `{"email":"ann@example.com","password":"Secret123!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/auth/signin", `{"email":"ann@example.com","password":"NewSecret1#"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminOnlyUsers(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/auth/signup", signupBody).Code)

	creds := `{"email":"ann@example.com","password":"Secret123!"}`
	access := responseCookie(a.do(t, http.MethodPost, "/auth/signin", creds), cookie.Access)

	rec := a.do(t, http.MethodGet, "/users", "", access)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	u, err := a.users.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	require.NoError(t, a.users.update(u.ID, func(u *model.User) {
		u.Roles = append(u.Roles, model.RoleAdmin)
	}))

	// Roles travel in the access token, so a new sign in picks up the grant.
	access = responseCookie(a.do(t, http.MethodPost, "/auth/signin", creds), cookie.Access)
	rec = a.do(t, http.MethodGet, "/users", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ann@example.com"`)
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestRouter_SessionStoreDown(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/auth/signup", signupBody).Code)

	a.redis.Close()

	rec := a.do(t, http.MethodPost, "/auth/signin", `{"email":"ann@example.com","password":"Secret123!"}`)
	assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
	assert.Nil(t, responseCookie(rec, cookie.Access))

	assert.Equal(t, http.StatusServiceUnavailable, a.do(t, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	lg := testutil.MakeNoopLogger()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	h := New(Deps{
		Local:          middleware.NewLocalStrategy(nil),
		Refresh:        middleware.NewRefreshStrategy(refreshGuardStub{}),
		ContextManager: apicontext.NewManager(),
		Observer:       collector,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		Logger:         lg,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shopkeeper_auth_signin_total{result="failure",strategy="local"} 1`)
	assert.Contains(t, rec.Body.String(), `shopkeeper_http_requests_total{method="POST",route="/auth/signin",status="400"} 1`)
}

type refreshGuardStub struct{}

func (refreshGuardStub) Refresh(context.Context, string) (model.User, error) {
	return model.User{}, model.ErrUnauthorized
}
