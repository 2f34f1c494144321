package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestObserver is told about every finished request.
type RequestObserver interface {
	ObserveRequest(route string, code int, elapsed time.Duration)
}

// RequestLogger tags each request with an id, logs its outcome and feeds obs
// (which may be nil). The id rides on the request context, so every log line
// written for the request carries it. Request bodies and cookies are never
// logged.
func RequestLogger(l logging.Logger, obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))

		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		route := c.FullPath()
		status := c.Writer.Status()
		if obs != nil {
			obs.ObserveRequest(route, status, elapsed)
		}

		args := []any{"method", c.Request.Method, "route", route, "status", status, "elapsed", elapsed}
		if status >= http.StatusInternalServerError {
			l.Warn(c.Request.Context(), "request served", args...)
			return
		}
		l.Debug(c.Request.Context(), "request served", args...)
	}
}

// CORS lets the listed browser origins call the API with cookies.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	return cors.New(cfg)
}
