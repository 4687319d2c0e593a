package security

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

const (
	minPasswordLength = 8
	minUsernameLength = 2
	passwordSpecials  = "$@!%*#?&"
)

// ValidatePassword enforces the password policy: at least eight characters
// from letters, digits and "$@!%*#?&", with at least one of each class.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return &model.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters long", minPasswordLength)}
	}

	var letter, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return &model.ValidationError{Field: "password", Reason: fmt.Sprintf("contains unsupported character %q", r)}
		}
	}

	if !letter || !digit || !special {
		return &model.ValidationError{
			Field:  "password",
			Reason: "must contain at least one letter, one number and one of " + passwordSpecials,
		}
	}

	return nil
}

// ValidateUsername checks the minimum username length.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(strings.TrimSpace(username)) < minUsernameLength {
		return &model.ValidationError{Field: "username", Reason: fmt.Sprintf("must be at least %d characters long", minUsernameLength)}
	}
	return nil
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &model.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}

// GravatarURL returns the default profile image for an email address.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(model.NormalizeEmail(email)))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
