package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/connections"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// newStack wires the real services over in-memory users. The sqlite handle
// only provides transactions to the signup flow.
func newStack(t *testing.T) (http.Handler, *connections.Manager) {
	t.Helper()

	dial := func(ctx context.Context) (*sql.DB, error) {
		return sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	}
	conns := connections.NewManager(dial, time.Second, logging.Nop{})
	t.Cleanup(func() { _ = conns.Close() })

	tokens := auth.NewTokenService("test-secret", 240*time.Hour)
	svc := services.NewUserService(conns, repomanager.NewMemoryRepositoryManager(),
		auth.NewBcryptHasher(bcrypt.MinCost), tokens, logging.Nop{})

	h := NewHandler(svc, auth.NewCookieCodec(false, tokens.Validity()), conns, logging.Nop{})
	return NewRouter(h, logging.Nop{}, RouterOptions{}), conns
}

func TestEndToEnd(t *testing.T) {
	r, conns := newStack(t)
	assert.Equal(t, connections.StateCold, conns.State())

	rec := do(t, r, http.MethodPost, "/api/signup", `{"name":"Ada","email":"ada@x.com","password":"Passw0rd"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "signup does not log in")
	assert.Equal(t, connections.StateLive, conns.State())

	rec = do(t, r, http.MethodPost, "/api/login", `{"email":"ada@x.com","password":"Passw0rd"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]
	assert.Equal(t, 864000, session.MaxAge)

	rec = do(t, r, http.MethodGet, "/api/user", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@x.com"}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/api/login", `{"email":"ada@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/user", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/signup", `{"name":"Ada","email":"ada@x.com","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/signup", `{"email":"bob@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required fields: name, password", message(t, rec))

	rec = do(t, r, http.MethodGet, "/api/user", "", &http.Cookie{Name: "token", Value: session.Value + "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, services.MsgInvalidToken, message(t, rec))
}
