package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCodec_Encode(t *testing.T) {
	t.Parallel()
	c := NewCookieCodec(true, 240*time.Hour)

	ck := c.Encode("tok")
	assert.Equal(t, "token", ck.Name)
	assert.Equal(t, "tok", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 864000, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	assert.False(t, NewCookieCodec(false, time.Hour).Encode("tok").Secure)
}

func TestCookieCodec_Expire(t *testing.T) {
	t.Parallel()
	ck := NewCookieCodec(false, time.Hour).Expire()

	assert.Equal(t, "token", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Equal(t, -1, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
}

func TestCookieCodec_DecodeRoundTrip(t *testing.T) {
	t.Parallel()
	c := NewCookieCodec(false, time.Hour)

	rec := httptest.NewRecorder()
	http.SetCookie(rec, c.Encode("abc.def.ghi"))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}

	tok, ok := c.Decode(req)
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestCookieCodec_DecodeMissing(t *testing.T) {
	t.Parallel()
	c := NewCookieCodec(false, time.Hour)

	_, ok := c.Decode(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "other", Value: "x"})
	_, ok = c.Decode(req)
	assert.False(t, ok)
}
