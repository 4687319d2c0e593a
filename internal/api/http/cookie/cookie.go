package cookie

import (
	"net/http"
	"strings"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

const (
	// Access carries the access token.
	Access = "Authentication"
	// Refresh carries the refresh token.
	Refresh = "Refresh"
)

// Set writes token into an HttpOnly cookie living as long as the token.
func Set(w http.ResponseWriter, name string, token model.IssuedToken, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token.Token,
		Path:     "/",
		MaxAge:   token.MaxAge(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the named cookie.
func Clear(w http.ResponseWriter, name string, secure bool) {
	// MaxAge -1 is rendered as "Max-Age=0".
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the token from the named cookie, falling back to the
// bearer Authorization header.
func Token(r *http.Request, name string) string {
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}
