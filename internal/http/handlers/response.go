// Package handlers exposes the rental contract over HTTP.
//
// Every failure is answered with an ErrorResponse carrying a stable code from
// errors.go. Success bodies are plain JSON documents; operations without a
// result (fulfillment, rent change, funding) answer 204.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/rentald/internal/http/middleware"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"insufficient_funds"`
	// Human-readable message
	Message string `json:"message" example:"contract balance too low"`
}

// fail aborts with an ErrorResponse. Server errors are logged at error level;
// contract rejections (payment required, forbidden, conflict) at info level
// with the caller so refused calls stay auditable.
func fail(c *gin.Context, status int, code, msg string) {
	if ev := failEvent(middleware.LoggerFrom(c), status); ev != nil {
		ev.Int("status", status).
			Str("code", code).
			Str("message", msg).
			Str("account", account(c)).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

func failEvent(l *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return l.Error()
	case status == http.StatusPaymentRequired, status == http.StatusForbidden, status == http.StatusConflict:
		return l.Info()
	}
	return nil
}

// Fail is fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
