package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

var testParams = Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestArgon2_HashAndVerify(t *testing.T) {
	h := NewArgon2(testParams)

	encoded, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify("Passw0rd!", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2_SaltedHashesDiffer(t *testing.T) {
	h := NewArgon2(testParams)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2_VerifyWithOtherParams(t *testing.T) {
	encoded, err := NewArgon2(testParams).Hash("secret")
	require.NoError(t, err)

	other := testParams
	other.Iterations = 2
	ok, err := NewArgon2(other).Verify("secret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2_VerifyMalformed(t *testing.T) {
	h := NewArgon2(testParams)

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "wrong algorithm", encoded: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "bad params", encoded: "$argon2id$v=19$x$c2FsdA$aGFzaA"},
		{name: "bad salt", encoded: "$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify("secret", tt.encoded)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Passw0rd!", wantErr: false},
		{name: "too short", password: "Pa0!", wantErr: true},
		{name: "no digit", password: "Password!", wantErr: true},
		{name: "no letter", password: "12345678!", wantErr: true},
		{name: "no special", password: "Passw0rdd", wantErr: true},
		{name: "unsupported character", password: "Passw0rd! ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("al"))
	assert.ErrorIs(t, ValidateUsername("a"), model.ErrInvalidInput)
	assert.ErrorIs(t, ValidateUsername("  "), model.ErrInvalidInput)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("a@x.com"))
	assert.ErrorIs(t, ValidateEmail("not-an-email"), model.ErrInvalidInput)
	assert.ErrorIs(t, ValidateEmail("Alice <a@x.com>"), model.ErrInvalidInput)
}

func TestGravatarURL(t *testing.T) {
	want := "https://www.gravatar.com/avatar/743173788aa9166801df2e18f0e7ff24?s=200&r=pg&d=mm"

	assert.Equal(t, want, GravatarURL("a@x.com"))
	assert.Equal(t, want, GravatarURL("  A@X.com "))
}
