package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontext "github.com/dtroode/shopkeeper-auth/internal/api/context"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/cookie"
	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/oauth"
	"github.com/dtroode/shopkeeper-auth/internal/testutil"
)

var testUser = model.User{
	ID:       uuid.MustParse("6f1c1b7e-5a8e-4d53-9a4e-1f7f3f9d2a10"),
	Email:    "ann@example.com",
	Username: "ann",
	Provider: model.ProviderLocal,
	Roles:    model.DefaultRoles(),
}

type verifierFunc func(ctx context.Context, email, password string) (model.User, error)

func (f verifierFunc) Verify(ctx context.Context, email, password string) (model.User, error) {
	return f(ctx, email, password)
}

type refreshGuardFunc func(ctx context.Context, raw string) (model.User, error)

func (f refreshGuardFunc) Refresh(ctx context.Context, raw string) (model.User, error) {
	return f(ctx, raw)
}

type exchangerStub struct {
	profile model.Profile
	err     error
	gotCode string
}

func (e *exchangerStub) Exchange(_ context.Context, _ oauth.Env, _, code, _ string) (model.Profile, error) {
	e.gotCode = code
	return e.profile, e.err
}

type resolverFunc func(ctx context.Context, p model.Profile) (model.User, error)

func (f resolverFunc) Resolve(ctx context.Context, p model.Profile) (model.User, error) {
	return f(ctx, p)
}

type observerStub struct {
	calls []string
}

func (o *observerStub) ObserveSignIn(strategy string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	o.calls = append(o.calls, strategy+":"+result)
}

func TestLocalStrategy_Authenticate(t *testing.T) {
	t.Parallel()

	s := NewLocalStrategy(verifierFunc(func(_ context.Context, email, password string) (model.User, error) {
		if email == "ann@example.com" && password == "Secret123!" {
			return testUser, nil
		}
		return model.User{}, model.ErrInvalidCredentials
	}))
	assert.Equal(t, "local", s.Name())

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "valid", body: `{"email":"ann@example.com","password":"Secret123!"}`},
		{name: "wrong password", body: `{"email":"ann@example.com","password":"nope"}`, wantErr: model.ErrInvalidCredentials},
		{name: "not json", body: `email=ann`, wantErr: model.ErrInvalidInput},
		{name: "missing password", body: `{"email":"ann@example.com"}`, wantErr: model.ErrInvalidInput},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(tt.body))
			user, err := s.Authenticate(httptest.NewRecorder(), r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testUser.ID, user.ID)
		})
	}
}

func TestRefreshStrategy_Authenticate(t *testing.T) {
	t.Parallel()

	var got string
	s := NewRefreshStrategy(refreshGuardFunc(func(_ context.Context, raw string) (model.User, error) {
		got = raw
		return testUser, nil
	}))
	assert.Equal(t, "refresh", s.Name())

	r := httptest.NewRequest(http.MethodGet, "/auth/token/refresh", nil)
	r.AddCookie(&http.Cookie{Name: cookie.Refresh, Value: "refresh-token"})
	r.AddCookie(&http.Cookie{Name: cookie.Access, Value: "access-token"})

	user, err := s.Authenticate(httptest.NewRecorder(), r)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, user.ID)
	assert.Equal(t, "refresh-token", got)
}

func TestOAuthStrategy_Authenticate(t *testing.T) {
	t.Parallel()

	profile := model.Profile{Provider: model.OAuthProvider("google"), Email: "ann@example.com"}
	resolver := resolverFunc(func(_ context.Context, p model.Profile) (model.User, error) {
		u := testUser
		u.Provider = p.Provider
		return u, nil
	})

	t.Run("provider error parameter", func(t *testing.T) {
		ex := &exchangerStub{profile: profile}
		s := NewOAuthStrategy("google", ex, resolver, false)
		r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil)

		_, err := s.Authenticate(httptest.NewRecorder(), r)
		assert.ErrorIs(t, err, model.ErrUnauthorized)
		assert.Empty(t, ex.gotCode)
	})

	t.Run("state mismatch", func(t *testing.T) {
		s := NewOAuthStrategy("google", &exchangerStub{err: oauth.ErrAuthFailed}, resolver, false)
		r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c&state=s", nil)

		_, err := s.Authenticate(httptest.NewRecorder(), r)
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("provider unreachable", func(t *testing.T) {
		s := NewOAuthStrategy("google", &exchangerStub{err: errors.New("dial tcp: timeout")}, resolver, false)
		r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c&state=s", nil)

		_, err := s.Authenticate(httptest.NewRecorder(), r)
		assert.ErrorIs(t, err, model.ErrInternal)
	})

	t.Run("success", func(t *testing.T) {
		ex := &exchangerStub{profile: profile}
		s := NewOAuthStrategy("google", ex, resolver, false)
		assert.Equal(t, "oauth:google", s.Name())
		r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c&state=s", nil)

		user, err := s.Authenticate(httptest.NewRecorder(), r)
		require.NoError(t, err)
		assert.Equal(t, "c", ex.gotCode)
		assert.Equal(t, model.OAuthProvider("google"), user.Provider)
	})
}

type strategyStub struct {
	user model.User
	err  error
}

func (s strategyStub) Name() string { return "stub" }

func (s strategyStub) Authenticate(http.ResponseWriter, *http.Request) (model.User, error) {
	return s.user, s.err
}

func TestSignIn_With(t *testing.T) {
	t.Parallel()

	cm := apicontext.NewManager()
	obs := &observerStub{}
	m := NewSignIn(cm, obs, testutil.MakeNoopLogger())

	var got model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = cm.GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	m.With(strategyStub{user: testUser})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUser.ID, got.ID)

	rec = httptest.NewRecorder()
	m.With(strategyStub{err: model.ErrInvalidCredentials})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"statusCode":400,"message":"invalid email or password"}`, rec.Body.String())

	assert.Equal(t, []string{"stub:success", "stub:failure"}, obs.calls)
}
