package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	msgEmailInUse    = "Email already in use"
	msgUserNotFound  = "User not found"
	msgInternalError = "Internal server error"
)

// writeError is the single place where service errors become status codes.
// Anything unrecognised is logged and answered with an opaque 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		ve *common.ValidationError
		ae *common.AuthError
	)

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, messageResponse{Message: ve.Error()})
	case errors.As(err, &ae):
		c.JSON(http.StatusUnauthorized, messageResponse{Message: ae.Message})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, messageResponse{Message: msgEmailInUse})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, messageResponse{Message: msgUserNotFound})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: msgInternalError})
	}
}
