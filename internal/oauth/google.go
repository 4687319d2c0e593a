package oauth

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// GoogleProviderName is the name Google is registered under.
const GoogleProviderName = "google"

const (
	googleIssuer       = "https://accounts.google.com"
	googleScopeEmail   = "email"
	googleScopeProfile = "profile"
)

var _ IdentityProvider = (*Google)(nil)

// Google implements IdentityProvider with Google OpenID Connect.
type Google struct {
	cfg      *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type googleClaims struct {
	Sub      string `json:"sub,omitempty"`
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"email_verified,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// NewGoogle discovers the Google OIDC configuration and creates the provider.
func NewGoogle(ctx context.Context, cfg config.Google) (*Google, error) {
	p, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{oidc.ScopeOpenID, googleScopeProfile, googleScopeEmail},
			Endpoint:     endpoints.Google,
		},
		verifier: p.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// LoginURL returns the Google consent page URL.
func (g *Google) LoginURL(state, nonce string) string {
	return g.cfg.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Exchange redeems the authorization code and reads the ID token claims.
func (g *Google) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, err
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return Identity{}, errors.New("token response has no id_token")
	}
	idTok, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("verify id token: %w", err)
	}

	var claims googleClaims
	if err := idTok.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("read claims: %w", err)
	}

	return Identity{
		Nonce:   idTok.Nonce,
		Profile: profileFromClaims(claims),
	}, nil
}

func profileFromClaims(c googleClaims) model.Profile {
	return model.Profile{
		Provider:      model.OAuthProvider(GoogleProviderName),
		Email:         model.NormalizeEmail(c.Email),
		EmailVerified: c.Verified,
		DisplayName:   nameOrDefault(c.Name, defaultName(c)),
		PictureURL:    c.Picture,
	}
}

func nameOrDefault(name, def string) string {
	if name != "" {
		return name
	}
	return def
}

// defaultName derives a stable name from the subject identifier.
func defaultName(c googleClaims) string {
	sum := sha1.Sum([]byte(c.Sub))
	return fmt.Sprintf("google_%x", sum[:4])
}
