package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"kredit-api/services"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

var statusByKind = map[services.Kind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindConflict:   http.StatusBadRequest,
	services.KindAuth:       http.StatusUnauthorized,
	services.KindToken:      http.StatusUnauthorized,
	services.KindForbidden:  http.StatusForbidden,
	services.KindNotFound:   http.StatusNotFound,
}

// respondError translates a service error into an HTTP response. Unexpected
// errors are logged and reported, and the caller only sees a generic message.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := statusByKind[svcErr.Kind]; ok {
			c.JSON(status, gin.H{"error": svcErr.Message})
			return
		}
	}

	slog.Error("request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	sentry.CaptureException(err)

	message := "internal server error"
	if svcErr != nil && svcErr.Message != "" {
		message = svcErr.Message
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
