package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// RouterOptions carries the optional pieces of the engine.
type RouterOptions struct {
	CORSOrigins []string
	Observer    RequestObserver
	Metrics     http.Handler
}

// NewRouter builds the gin engine with recovery, request logging, CORS and
// the API routes. /metrics is mounted when opts.Metrics is set.
func NewRouter(h *Handler, l logging.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(l, opts.Observer))
	if len(opts.CORSOrigins) > 0 {
		r.Use(CORS(opts.CORSOrigins))
	}

	h.RegisterRoutes(r)

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, messageResponse{Message: "Not found"})
	})

	return r
}
