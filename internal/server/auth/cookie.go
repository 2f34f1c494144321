package auth

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// CookieCodec moves session tokens in and out of the session cookie. It does
// no validation of its own; that is the TokenService's job.
type CookieCodec struct {
	name   string
	secure bool
	maxAge time.Duration
}

// NewCookieCodec returns a codec for the "token" cookie. secure should be on
// whenever the API is served over TLS.
func NewCookieCodec(secure bool, maxAge time.Duration) *CookieCodec {
	return &CookieCodec{name: common.SessionCookieName, secure: secure, maxAge: maxAge}
}

// Encode wraps token in an HttpOnly, SameSite=Lax cookie scoped to "/".
func (c *CookieCodec) Encode(token string) *http.Cookie {
	return c.cookie(token, int(c.maxAge/time.Second))
}

// Expire returns a cookie that makes the browser drop the session.
func (c *CookieCodec) Expire() *http.Cookie {
	return c.cookie("", -1)
}

// Decode extracts the session token from r.
func (c *CookieCodec) Decode(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieCodec) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
