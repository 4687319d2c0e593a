package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// Kind names a signing context. It is written into the "typ" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// Claims are the JWT claims of a signed token carrying payload P.
type Claims[P any] struct {
	jwt.RegisteredClaims
	Kind    Kind `json:"typ"`
	Payload P    `json:"payload"`
}

// Signer signs and verifies HS256 tokens of one kind with its own secret and TTL.
type Signer[P any] struct {
	kind   Kind
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. A nil clock defaults to time.Now.
func NewSigner[P any](kind Kind, secret string, ttl time.Duration, now func() time.Time) *Signer[P] {
	if now == nil {
		now = time.Now
	}
	return &Signer[P]{
		kind:   kind,
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

// Sign returns a signed token embedding payload.
func (s *Signer[P]) Sign(payload P) (model.IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims[P]{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:    s.kind,
		Payload: payload,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("failed to sign %s token: %w", s.kind, err)
	}

	return model.IssuedToken{Token: signed, ExpiresAt: expiresAt, TTL: s.ttl}, nil
}

// Verify checks signature, expiry and kind and returns the payload.
// Expired tokens yield model.ErrExpiredToken, every other failure model.ErrInvalidToken.
func (s *Signer[P]) Verify(raw string) (P, error) {
	var zero P
	claims := &Claims[P]{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return zero, fmt.Errorf("%s token: %w", s.kind, model.ErrExpiredToken)
		}
		return zero, fmt.Errorf("%s token: %w: %v", s.kind, model.ErrInvalidToken, err)
	}
	if claims.Kind != s.kind {
		return zero, fmt.Errorf("token type mismatch %q: %w", claims.Kind, model.ErrInvalidToken)
	}

	return claims.Payload, nil
}

// TTL returns the lifetime of tokens produced by the signer.
func (s *Signer[P]) TTL() time.Duration {
	return s.ttl
}
