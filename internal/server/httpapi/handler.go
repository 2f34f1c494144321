// Package httpapi is the JSON/cookie transport for the account flows.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/connections"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// Users is the account service behind the handlers.
type Users interface {
	Signup(ctx context.Context, req services.SignupRequest) error
	Login(ctx context.Context, req services.LoginRequest) (string, error)
	WhoAmI(ctx context.Context, token string) (*services.Profile, error)
	Logout(ctx context.Context, token string) error
}

// StoreState reports the credential store connection state for /health.
type StoreState interface {
	State() connections.State
}

type Handler struct {
	users   Users
	cookies *auth.CookieCodec
	store   StoreState
	logger  logging.Logger
}

func NewHandler(u Users, c *auth.CookieCodec, s StoreState, l logging.Logger) *Handler {
	return &Handler{users: u, cookies: c, store: s, logger: l.With("module", "http")}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/user", h.WhoAmI)
		api.GET("/whoami", h.WhoAmI)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.users.Signup(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageResponse{Message: "Account created successfully"})
}

func (h *Handler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	token, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	http.SetCookie(c.Writer, h.cookies.Encode(token))
	c.JSON(http.StatusOK, messageResponse{Message: "Login successful"})
}

func (h *Handler) WhoAmI(c *gin.Context) {
	token, ok := h.cookies.Decode(c.Request)
	if !ok {
		h.writeError(c, common.NewAuthError(services.MsgNoToken))
		return
	}

	profile, err := h.users.WhoAmI(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Logout always clears the cookie. Revocation failures are logged but do not
// keep the browser logged in.
func (h *Handler) Logout(c *gin.Context) {
	if token, ok := h.cookies.Decode(c.Request); ok {
		if err := h.users.Logout(c.Request.Context(), token); err != nil {
			h.logger.Error(c.Request.Context(), "token revocation failed", "error", err)
		}
	}

	http.SetCookie(c.Writer, h.cookies.Expire())
	c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Health reports liveness. The store state is informational: a cold store
// is connected lazily by the next request.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Store: string(h.store.State())})
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.writeError(c, &common.ValidationError{Message: "Request body must be a JSON object"})
		return false
	}
	return true
}
