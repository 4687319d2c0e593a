package oauth

import (
	"net/http"
	"time"
)

const flowCookieTTL = 10 * time.Minute

// CookieScope prefixes the cookies of the HTTP authorization code flow.
const CookieScope = "oauth"

// HTTPEnv implements Env with short-lived HttpOnly cookies.
type HTTPEnv struct {
	scope  string
	secure bool
	w      http.ResponseWriter
	r      *http.Request
}

// NewHTTPEnv creates a new HTTPEnv instance
func NewHTTPEnv(scope string, secure bool, w http.ResponseWriter, r *http.Request) *HTTPEnv {
	return &HTTPEnv{scope: scope, secure: secure, w: w, r: r}
}

func (e *HTTPEnv) Save(key, val string) error {
	http.SetCookie(e.w, &http.Cookie{
		Name:     e.cookieName(key),
		Value:    val,
		Path:     "/",
		MaxAge:   int(flowCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   e.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (e *HTTPEnv) Load(key string) (string, error) {
	c, err := e.r.Cookie(e.cookieName(key))
	if err != nil {
		return "", err
	}

	return c.Value, nil
}

func (e *HTTPEnv) Delete(key string) error {
	http.SetCookie(e.w, &http.Cookie{
		Name:     e.cookieName(key),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   e.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (e *HTTPEnv) cookieName(key string) string {
	return e.scope + "-" + key
}
