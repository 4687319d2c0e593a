package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

var (
	ErrProviderExists   = errors.New("provider already registered")
	ErrProviderNotFound = errors.New("provider not found")
	ErrAuthFailed       = errors.New("oauth authentication failed")
)

// Env persists per-flow values such as state and nonce between redirect and callback.
type Env interface {
	Save(key, val string) error
	Load(key string) (string, error)
	Delete(key string) error
}

// Identity is what a provider reports after a successful code exchange.
type Identity struct {
	Profile model.Profile
	Nonce   string
}

// IdentityProvider is an OAuth/OIDC identity provider.
type IdentityProvider interface {
	LoginURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

// Authenticator runs the authorization code flow against registered providers.
type Authenticator struct {
	providers map[string]IdentityProvider
	mu        sync.RWMutex
}

func NewAuthenticator() *Authenticator {
	return &Authenticator{
		providers: make(map[string]IdentityProvider),
	}
}

// Use registers a provider under name.
func (a *Authenticator) Use(name string, p IdentityProvider) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.providers[name]; ok {
		return ErrProviderExists
	}

	a.providers[name] = p
	return nil
}

// LoginURL stores a fresh state and nonce in env and returns the provider redirect URL.
func (a *Authenticator) LoginURL(env Env, provider string) (string, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return "", fmt.Errorf("get provider: %w", err)
	}

	state, nonce := randString(32), randString(32)
	if err := env.Save(stateKey(provider), state); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	if err := env.Save(nonceKey(provider), nonce); err != nil {
		return "", fmt.Errorf("save nonce: %w", err)
	}

	return p.LoginURL(state, nonce), nil
}

// Exchange checks state, redeems the code and checks the nonce of the returned identity.
func (a *Authenticator) Exchange(ctx context.Context, env Env, provider, code, state string) (model.Profile, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return model.Profile{}, fmt.Errorf("get provider: %w", err)
	}

	saved, err := env.Load(stateKey(provider))
	nonce, _ := env.Load(nonceKey(provider))
	// state and nonce are single use
	_ = env.Delete(stateKey(provider))
	_ = env.Delete(nonceKey(provider))
	if err != nil || !equal(saved, state) {
		return model.Profile{}, ErrAuthFailed
	}

	identity, err := p.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			if rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized {
				return model.Profile{}, ErrAuthFailed
			}
		}
		return model.Profile{}, fmt.Errorf("exchange: %w", err)
	}

	if !equal(nonce, identity.Nonce) {
		return model.Profile{}, ErrAuthFailed
	}

	if identity.Profile.Email == "" {
		return model.Profile{}, fmt.Errorf("%w: provider returned no email", ErrAuthFailed)
	}

	return identity.Profile, nil
}

func (a *Authenticator) getProvider(name string) (IdentityProvider, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}

	return p, nil
}

func stateKey(provider string) string { return provider + "-state" }
func nonceKey(provider string) string { return provider + "-nonce" }

func equal(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func randString(size int) string {
	b := make([]byte, size)

	// rand.Read never returns an error
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
